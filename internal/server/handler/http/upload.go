package http

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/atinyakov/travelsite/internal/imagestore"
	"github.com/atinyakov/travelsite/internal/models"
)

// formOverhead is the room left for the text fields and multipart framing
// on top of the image itself.
const formOverhead = 1 << 20

// Create handles the multipart create form: category, title, details,
// price and an image file.
func (h *PackagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(w, r)
	if err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}

	for _, name := range []string{"category", "title", "details", "price"} {
		if v, ok := form.Value[name]; !ok || len(v) == 0 {
			writeFailure(w, r, h.Log, models.Invalid(name, models.ReasonMissing, "Missing required fields"))
			return
		}
	}

	fields, err := h.Catalog.ValidateFields(models.PackageFields{
		Category: models.Category(formValue(form, "category")),
		Title:    formValue(form, "title"),
		Details:  formValue(form, "details"),
		Price:    formValue(form, "price"),
	})
	if err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}

	files := form.File["image"]
	if len(files) == 0 {
		writeFailure(w, r, h.Log, models.Invalid("image", models.ReasonMissing, "Image file is required"))
		return
	}
	if err := checkImage(files[0]); err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}

	p, err := h.storeImage(r.Context(), fields.Category, fields.Title, files[0])
	if err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}
	fields.ImagePath = p
	fields.PreviewImage = p

	rec, err := h.Catalog.Create(r.Context(), fields)
	if err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, packageResponse{Package: rec})
}

// storeImage saves fh as <slug(title)>-<unix millis><ext> in the category.
func (h *PackagesHandler) storeImage(ctx context.Context, cat models.Category, title string, fh *multipart.FileHeader) (string, error) {
	ext, _ := imagestore.ExtensionFor(fh.Header.Get("Content-Type"))
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	name := fmt.Sprintf("%s-%d%s", models.Slugify(title), now().UnixMilli(), ext)

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	p, err := h.Images.Save(ctx, cat, name, f)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return p, nil
}

// parseForm reads a multipart body of at most one image plus text fields.
func parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, imagestore.MaxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(imagestore.MaxUploadBytes + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, models.Invalid("image", models.ReasonImageSize, "Image exceeds 8MB limit")
		}
		return nil, models.Invalid("", models.ReasonMalformedRequest, "Invalid form data")
	}
	return r.MultipartForm, nil
}

// optionalImage returns the uploaded image of an update form, or nil when
// none or an empty one was sent.
func optionalImage(form *multipart.Form) (*multipart.FileHeader, error) {
	files := form.File["image"]
	if len(files) == 0 || files[0].Size == 0 {
		return nil, nil
	}
	if err := checkImage(files[0]); err != nil {
		return nil, err
	}
	return files[0], nil
}

// checkImage rejects a file of the wrong type first, whatever its size,
// then empty and oversized ones.
func checkImage(fh *multipart.FileHeader) error {
	if _, ok := imagestore.ExtensionFor(fh.Header.Get("Content-Type")); !ok {
		return models.Invalid("image", models.ReasonImageType, "Unsupported image type. Use JPG, PNG, or WEBP.")
	}
	if fh.Size == 0 {
		return models.Invalid("image", models.ReasonImageEmpty, "Uploaded image is empty")
	}
	if fh.Size > imagestore.MaxUploadBytes {
		return models.Invalid("image", models.ReasonImageSize, "Image exceeds 8MB limit")
	}
	return nil
}

func formValue(form *multipart.Form, name string) string {
	if v := form.Value[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}
