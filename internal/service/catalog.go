package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/travelsite/internal/models"
	"github.com/atinyakov/travelsite/internal/obs"
)

// CatalogRepository defines the persistence operations required by the catalog service.
type CatalogRepository interface {
	// Load returns the whole catalog.
	Load(ctx context.Context) (models.Catalog, error)
	// ListByCategory returns one category in display order.
	ListByCategory(ctx context.Context, cat models.Category) ([]models.PackageRecord, error)
	// Create stores a new record first in its category.
	Create(ctx context.Context, f models.PackageFields) (models.PackageRecord, error)
	// Update applies a partial update; models.ErrNotFound if id is unknown.
	Update(ctx context.Context, id string, upd models.PackageUpdate) (models.PackageRecord, error)
	// Delete removes a record; models.ErrNotFound if id is unknown.
	Delete(ctx context.Context, id string) (models.PackageRecord, error)
}

// Invalidator drops cached documents for the given paths.
type Invalidator interface {
	Invalidate(paths ...string)
}

// AdminCatalogPath is the admin listing document path.
const AdminCatalogPath = "/admin/packages"

// CategoryPath returns the public listing path of a category.
func CategoryPath(cat models.Category) string {
	return "/packages/" + string(cat)
}

// CatalogService validates catalog mutations and keeps cached views fresh.
type CatalogService struct {
	repo  CatalogRepository
	cache Invalidator
	log   *zap.Logger
}

// NewCatalogService constructs a CatalogService. cache and log may be nil.
func NewCatalogService(repo CatalogRepository, cache Invalidator, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, log: log}
}

// Catalog returns every record of both categories.
func (s *CatalogService) Catalog(ctx context.Context) (models.Catalog, error) {
	return s.repo.Load(ctx)
}

// Get returns the record with the given id or models.ErrNotFound.
func (s *CatalogService) Get(ctx context.Context, id string) (models.PackageRecord, error) {
	c, err := s.repo.Load(ctx)
	if err != nil {
		return models.PackageRecord{}, err
	}
	cat, i, ok := c.Find(id)
	if !ok {
		return models.PackageRecord{}, models.ErrNotFound
	}
	return c.List(cat)[i], nil
}

// List returns the records of one category.
func (s *CatalogService) List(ctx context.Context, cat models.Category) ([]models.PackageRecord, error) {
	return s.repo.ListByCategory(ctx, cat)
}

// Page returns one public listing page of a category. rawPage is the
// unvalidated ?page= value.
func (s *CatalogService) Page(ctx context.Context, cat models.Category, rawPage string) (models.Page, error) {
	records, err := s.repo.ListByCategory(ctx, cat)
	if err != nil {
		return models.Page{}, err
	}
	return models.Paginate(cat, records, rawPage, models.PageSize), nil
}

// ValidateFields checks the category and sanitizes the required texts of a
// new record. It returns the cleaned fields.
func (s *CatalogService) ValidateFields(f models.PackageFields) (models.PackageFields, error) {
	if _, ok := models.ParseCategory(string(f.Category)); !ok {
		return f, models.Invalid("category", models.ReasonCategory, "Invalid category")
	}
	f.Title = models.SanitizeText(f.Title)
	f.Details = models.SanitizeText(f.Details)
	f.Price = models.SanitizeText(f.Price)
	if f.Title == "" || f.Details == "" || f.Price == "" {
		return f, models.Invalid("", models.ReasonEmpty, "Title, details, and price are required")
	}
	return f, nil
}

// Create validates f and stores a new record.
func (s *CatalogService) Create(ctx context.Context, f models.PackageFields) (models.PackageRecord, error) {
	f, err := s.ValidateFields(f)
	if err != nil {
		return models.PackageRecord{}, err
	}

	rec, err := s.repo.Create(ctx, f)
	if err != nil {
		return models.PackageRecord{}, fmt.Errorf("create package: %w", err)
	}

	s.mutated("create", rec, CategoryPath(rec.Category))
	return rec, nil
}

// ValidateUpdate checks the present fields of upd and sanitizes its texts in place.
func (s *CatalogService) ValidateUpdate(upd *models.PackageUpdate) error {
	if upd.Category != nil {
		if _, ok := models.ParseCategory(string(*upd.Category)); !ok {
			return models.Invalid("category", models.ReasonCategory, "Invalid category")
		}
	}
	texts := []struct {
		name    string
		field   *string
		message string
	}{
		{"title", upd.Title, "Title is required"},
		{"details", upd.Details, "Details are required"},
		{"price", upd.Price, "Price is required"},
	}
	for _, t := range texts {
		if t.field == nil {
			continue
		}
		*t.field = models.SanitizeText(*t.field)
		if *t.field == "" {
			return models.Invalid(t.name, models.ReasonEmpty, t.message)
		}
	}
	if upd.IsEmpty() {
		return models.Invalid("", models.ReasonNoChanges, "No changes provided")
	}
	return nil
}

// Update validates upd and applies it to the record with id.
func (s *CatalogService) Update(ctx context.Context, id string, upd models.PackageUpdate) (models.PackageRecord, error) {
	if id == "" {
		return models.PackageRecord{}, models.Invalid("id", models.ReasonMissing, "Package id is required")
	}
	if err := s.ValidateUpdate(&upd); err != nil {
		return models.PackageRecord{}, err
	}

	rec, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return models.PackageRecord{}, fmt.Errorf("update package %s: %w", id, err)
	}

	// the previous category is unknown here, so every category page is dropped
	paths := make([]string, 0, len(models.Categories))
	for _, cat := range models.Categories {
		paths = append(paths, CategoryPath(cat))
	}
	s.mutated("update", rec, paths...)
	return rec, nil
}

// Delete removes the record with id and returns it.
func (s *CatalogService) Delete(ctx context.Context, id string) (models.PackageRecord, error) {
	if id == "" {
		return models.PackageRecord{}, models.Invalid("id", models.ReasonMissing, "Package id is required")
	}

	rec, err := s.repo.Delete(ctx, id)
	if err != nil {
		return models.PackageRecord{}, fmt.Errorf("delete package %s: %w", id, err)
	}

	s.mutated("delete", rec, CategoryPath(rec.Category))
	return rec, nil
}

func (s *CatalogService) mutated(op string, rec models.PackageRecord, categoryPaths ...string) {
	if s.cache != nil {
		paths := append([]string{"/", AdminCatalogPath}, categoryPaths...)
		s.cache.Invalidate(paths...)
	}
	obs.RecordMutation(op)
	s.log.Info("catalog updated",
		zap.String("op", op),
		zap.String("id", rec.ID),
		zap.String("category", string(rec.Category)),
	)
}
