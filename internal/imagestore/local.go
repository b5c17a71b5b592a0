package imagestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atinyakov/travelsite/internal/models"
)

// Local writes images to <publicDir>/images/packages/<category>/.
type Local struct {
	publicDir string
}

// NewLocal returns a Local store rooted at publicDir.
func NewLocal(publicDir string) *Local {
	return &Local{publicDir: publicDir}
}

// Dir returns the directory holding the images of cat.
func (l *Local) Dir(cat models.Category) string {
	return filepath.Join(l.publicDir, "images", "packages", string(cat))
}

// Save writes body to the category directory, creating it if needed.
func (l *Local) Save(ctx context.Context, cat models.Category, filename string, body io.Reader) (string, error) {
	if _, ok := models.ParseCategory(string(cat)); !ok {
		return "", fmt.Errorf("save image: unknown category %q", cat)
	}
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("save image: invalid filename %q", filename)
	}

	dir := l.Dir(cat)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return PublicPath(cat, name), nil
}
