// Package repository provides persistence implementations for the package
// catalog: a JSON file store and a PostgreSQL store.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/travelsite/internal/ids"
	"github.com/atinyakov/travelsite/internal/models"
)

// errMalformed marks a catalog file that exists but cannot be used.
var errMalformed = errors.New("malformed catalog")

// FileCatalogRepository keeps the catalog in a single JSON file.
// All operations are serialized.
type FileCatalogRepository struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileCatalogRepository returns a repository backed by the file at path.
func NewFileCatalogRepository(path string, log *zap.Logger) *FileCatalogRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileCatalogRepository{path: path, log: log, now: time.Now}
}

// Load returns the whole catalog, seeding the file when it is missing or corrupt.
func (r *FileCatalogRepository) Load(ctx context.Context) (models.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// ListByCategory returns the records of one category in display order.
func (r *FileCatalogRepository) ListByCategory(ctx context.Context, cat models.Category) ([]models.PackageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return nil, err
	}
	return c.List(cat), nil
}

// Create stores a new record first in its category and returns it.
func (r *FileCatalogRepository) Create(ctx context.Context, f models.PackageFields) (models.PackageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return models.PackageRecord{}, err
	}

	rec := models.PackageRecord{
		ID:           ids.NewPackageID(),
		Category:     f.Category,
		Title:        f.Title,
		Details:      f.Details,
		ImagePath:    f.ImagePath,
		PreviewImage: f.PreviewImage,
		Price:        f.Price,
	}
	if rec.PreviewImage == "" {
		rec.PreviewImage = rec.ImagePath
	}
	c.Prepend(rec)

	if err := r.save(c); err != nil {
		return models.PackageRecord{}, err
	}
	return rec, nil
}

// Update applies upd to the record with the given id and moves it to the
// front of its (possibly new) category.
func (r *FileCatalogRepository) Update(ctx context.Context, id string, upd models.PackageUpdate) (models.PackageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return models.PackageRecord{}, err
	}

	cat, i, ok := c.Find(id)
	if !ok {
		return models.PackageRecord{}, models.ErrNotFound
	}

	rec := applyUpdate(c.List(cat)[i], upd)
	c.Remove(cat, i)
	c.Prepend(rec)

	if err := r.save(c); err != nil {
		return models.PackageRecord{}, err
	}
	return rec, nil
}

// Delete removes the record with the given id and returns it.
func (r *FileCatalogRepository) Delete(ctx context.Context, id string) (models.PackageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return models.PackageRecord{}, err
	}

	cat, i, ok := c.Find(id)
	if !ok {
		return models.PackageRecord{}, models.ErrNotFound
	}
	rec := c.Remove(cat, i)

	if err := r.save(c); err != nil {
		return models.PackageRecord{}, err
	}
	return rec, nil
}

func (r *FileCatalogRepository) load() (models.Catalog, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r.reseed()
		}
		return models.Catalog{}, &models.StorageError{Op: "read", Path: r.path, Err: err}
	}

	c, migrated, err := decodeCatalog(data)
	if err != nil {
		backup := fmt.Sprintf("%s.corrupt-%d", r.path, r.now().UnixMilli())
		if rerr := os.Rename(r.path, backup); rerr != nil {
			return models.Catalog{}, &models.StorageError{Op: "preserve", Path: r.path, Err: rerr}
		}
		r.log.Warn("catalog file is corrupt, reseeding",
			zap.String("path", r.path),
			zap.String("backup", backup),
			zap.Error(err),
		)
		return r.reseed()
	}

	if migrated {
		r.log.Info("assigned ids to catalog records", zap.String("path", r.path))
		if err := r.save(c); err != nil {
			return models.Catalog{}, err
		}
	}
	return c, nil
}

func (r *FileCatalogRepository) reseed() (models.Catalog, error) {
	c := SeedCatalog()
	if err := r.save(c); err != nil {
		return models.Catalog{}, err
	}
	return c, nil
}

// save writes c to a temporary file next to the target and renames it into place.
func (r *FileCatalogRepository) save(c models.Catalog) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return &models.StorageError{Op: "encode", Path: r.path, Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &models.StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return &models.StorageError{Op: "write", Path: r.path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &models.StorageError{Op: "write", Path: r.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &models.StorageError{Op: "write", Path: r.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return &models.StorageError{Op: "rename", Path: r.path, Err: err}
	}
	return nil
}

// decodeCatalog validates the stored document and assigns ids to records
// that lack one. migrated reports whether any id was assigned.
func decodeCatalog(data []byte) (c models.Catalog, migrated bool, err error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return c, false, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if doc == nil {
		return c, false, fmt.Errorf("%w: not an object", errMalformed)
	}

	for _, cat := range models.Categories {
		raw, ok := doc[string(cat)]
		if !ok {
			return c, false, fmt.Errorf("%w: missing %q", errMalformed, cat)
		}
		var entries []map[string]any
		if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
			return c, false, fmt.Errorf("%w: %q is not an array", errMalformed, cat)
		}

		records := make([]models.PackageRecord, 0, len(entries))
		for i, e := range entries {
			rec, assigned, err := decodeRecord(cat, i, e)
			if err != nil {
				return c, false, fmt.Errorf("%w: %s[%d]: %v", errMalformed, cat, i, err)
			}
			migrated = migrated || assigned
			records = append(records, rec)
		}
		c.Set(cat, records)
	}
	return c, migrated, nil
}

func decodeRecord(cat models.Category, index int, e map[string]any) (models.PackageRecord, bool, error) {
	if e == nil {
		return models.PackageRecord{}, false, errors.New("null entry")
	}

	fields := map[string]string{}
	for _, name := range []string{"category", "title", "details", "previewImage", "imagePath", "price"} {
		v, ok := e[name].(string)
		if !ok {
			return models.PackageRecord{}, false, fmt.Errorf("field %q missing or not a string", name)
		}
		fields[name] = v
	}
	if _, ok := models.ParseCategory(fields["category"]); !ok {
		return models.PackageRecord{}, false, fmt.Errorf("unknown category %q", fields["category"])
	}

	rec := models.PackageRecord{
		Category:     cat,
		Title:        fields["title"],
		Details:      fields["details"],
		PreviewImage: fields["previewImage"],
		ImagePath:    fields["imagePath"],
		Price:        fields["price"],
	}

	id, _ := e["id"].(string)
	id = strings.TrimSpace(id)
	if id == "" {
		rec.ID = LegacyID(cat, rec.Title, index)
		return rec, true, nil
	}
	rec.ID = id
	return rec, false, nil
}

// applyUpdate returns rec with the non-nil fields of upd applied. A new image
// path also becomes the preview image unless one is given explicitly.
func applyUpdate(rec models.PackageRecord, upd models.PackageUpdate) models.PackageRecord {
	if upd.Category != nil {
		rec.Category = *upd.Category
	}
	if upd.Title != nil {
		rec.Title = *upd.Title
	}
	if upd.Details != nil {
		rec.Details = *upd.Details
	}
	if upd.Price != nil {
		rec.Price = *upd.Price
	}
	if upd.ImagePath != nil {
		rec.ImagePath = *upd.ImagePath
	}
	switch {
	case upd.PreviewImage != nil:
		rec.PreviewImage = *upd.PreviewImage
	case upd.ImagePath != nil:
		rec.PreviewImage = *upd.ImagePath
	}
	return rec
}
