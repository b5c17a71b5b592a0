package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("package not found")

// Reason classifies a validation failure.
type Reason string

// Validation failure reasons.
const (
	// ReasonMissing is a required field or file that was not sent.
	ReasonMissing Reason = "missing"
	// ReasonEmpty is a text field that is blank after trimming.
	ReasonEmpty Reason = "empty"
	// ReasonCategory is a category outside the known set.
	ReasonCategory Reason = "category"
	// ReasonImageType is an image of an unsupported MIME type.
	ReasonImageType Reason = "image_type"
	// ReasonImageSize is an image over the upload limit.
	ReasonImageSize Reason = "image_size"
	// ReasonImageEmpty is a zero-byte image on create.
	ReasonImageEmpty Reason = "image_empty"
	// ReasonNoChanges is an update that sets no field.
	ReasonNoChanges Reason = "no_changes"
	// ReasonMalformedRequest is a body that could not be decoded.
	ReasonMalformedRequest Reason = "malformed"
)

// ValidationError describes rejected input. Message is safe to show to the caller.
type ValidationError struct {
	Field   string
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError.
func Invalid(field string, reason Reason, message string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Message: message}
}

// StorageError wraps a failure of the underlying storage other than a missing file.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
