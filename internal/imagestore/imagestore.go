// Package imagestore stores uploaded package images, either under the public
// static directory or on Cloudinary.
package imagestore

import (
	"context"
	"fmt"
	"io"

	"github.com/atinyakov/travelsite/internal/models"
)

// MaxUploadBytes is the largest accepted image.
const MaxUploadBytes = 8 << 20

// PublicPrefix is the URL prefix of locally stored package images.
const PublicPrefix = "/images/packages"

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ExtensionFor returns the file extension for an accepted image MIME type.
func ExtensionFor(contentType string) (string, bool) {
	ext, ok := extensions[contentType]
	return ext, ok
}

// Store saves an image and returns the path or URL it is served from.
type Store interface {
	Save(ctx context.Context, cat models.Category, filename string, body io.Reader) (string, error)
}

// PublicPath returns the public path of a locally stored image.
func PublicPath(cat models.Category, filename string) string {
	return fmt.Sprintf("%s/%s/%s", PublicPrefix, cat, filename)
}
