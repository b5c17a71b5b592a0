package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/atinyakov/travelsite/internal/ids"
	"github.com/atinyakov/travelsite/internal/models"
)

const packageColumns = `id, category, title, details, price, image_path, preview_image`

// PostgresCatalogRepository implements catalog persistence against a PostgreSQL database.
// Display order is position DESC; new and moved records take MAX(position)+1.
type PostgresCatalogRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB

	seeded atomic.Bool
}

// NewPostgresCatalogRepository creates a repository using the provided *sql.DB.
// The packages table must already exist (see db.InitPostgres).
func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{DB: db}
}

// Load returns the whole catalog, seeding the table when it is empty.
func (r *PostgresCatalogRepository) Load(ctx context.Context) (models.Catalog, error) {
	if err := r.ensureSeeded(ctx); err != nil {
		return models.Catalog{}, err
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+packageColumns+` FROM packages ORDER BY position DESC
	`)
	if err != nil {
		return models.Catalog{}, fmt.Errorf("Load: %w", err)
	}
	defer rows.Close()

	c := models.Catalog{Local: []models.PackageRecord{}, International: []models.PackageRecord{}}
	for rows.Next() {
		rec, err := scanPackage(rows)
		if err != nil {
			return models.Catalog{}, err
		}
		c.Set(rec.Category, append(c.List(rec.Category), rec))
	}
	if err := rows.Err(); err != nil {
		return models.Catalog{}, fmt.Errorf("Load: %w", err)
	}
	return c, nil
}

// ListByCategory returns the records of one category in display order.
func (r *PostgresCatalogRepository) ListByCategory(ctx context.Context, cat models.Category) ([]models.PackageRecord, error) {
	if err := r.ensureSeeded(ctx); err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+packageColumns+` FROM packages WHERE category = $1 ORDER BY position DESC
	`, string(cat))
	if err != nil {
		return nil, fmt.Errorf("ListByCategory: %w", err)
	}
	defer rows.Close()

	records := []models.PackageRecord{}
	for rows.Next() {
		rec, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByCategory: %w", err)
	}
	return records, nil
}

// Create inserts a new record ahead of all existing ones.
func (r *PostgresCatalogRepository) Create(ctx context.Context, f models.PackageFields) (models.PackageRecord, error) {
	if err := r.ensureSeeded(ctx); err != nil {
		return models.PackageRecord{}, err
	}

	rec := models.PackageRecord{
		ID:           ids.NewPackageID(),
		Category:     f.Category,
		Title:        f.Title,
		Details:      f.Details,
		Price:        f.Price,
		ImagePath:    f.ImagePath,
		PreviewImage: f.PreviewImage,
	}
	if rec.PreviewImage == "" {
		rec.PreviewImage = rec.ImagePath
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO packages (id, category, title, details, price, image_path, preview_image, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, (SELECT COALESCE(MAX(position), 0) + 1 FROM packages))
	`, rec.ID, string(rec.Category), rec.Title, rec.Details, rec.Price, rec.ImagePath, rec.PreviewImage)
	if err != nil {
		return models.PackageRecord{}, fmt.Errorf("Create: %w", err)
	}
	return rec, nil
}

// Update applies upd within a transaction and moves the record to the front
// of its category.
func (r *PostgresCatalogRepository) Update(ctx context.Context, id string, upd models.PackageUpdate) (models.PackageRecord, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.PackageRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanPackage(tx.QueryRowContext(ctx, `
		SELECT `+packageColumns+` FROM packages WHERE id = $1 FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PackageRecord{}, models.ErrNotFound
		}
		return models.PackageRecord{}, err
	}

	rec := applyUpdate(existing, upd)

	query := `
		UPDATE packages
		   SET category = $2, title = $3, details = $4, price = $5, image_path = $6, preview_image = $7,
		       position = (SELECT COALESCE(MAX(position), 0) + 1 FROM packages)
		 WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query,
		rec.ID, string(rec.Category), rec.Title, rec.Details, rec.Price, rec.ImagePath, rec.PreviewImage,
	); err != nil {
		return models.PackageRecord{}, fmt.Errorf("update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.PackageRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// Delete removes the record with the given id and returns it.
func (r *PostgresCatalogRepository) Delete(ctx context.Context, id string) (models.PackageRecord, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.PackageRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rec, err := scanPackage(tx.QueryRowContext(ctx, `
		DELETE FROM packages WHERE id = $1 RETURNING `+packageColumns, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PackageRecord{}, models.ErrNotFound
		}
		return models.PackageRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.PackageRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// ensureSeeded inserts the seed catalog once if the table is empty.
func (r *PostgresCatalogRepository) ensureSeeded(ctx context.Context) error {
	if r.seeded.Load() {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM packages`).Scan(&count); err != nil {
		return fmt.Errorf("count packages: %w", err)
	}

	if count == 0 {
		seed := SeedCatalog()
		position := int64(len(seed.Local) + len(seed.International))
		for _, cat := range models.Categories {
			for _, rec := range seed.List(cat) {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO packages (id, category, title, details, price, image_path, preview_image, position)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
					ON CONFLICT (id) DO NOTHING
				`, rec.ID, string(rec.Category), rec.Title, rec.Details, rec.Price, rec.ImagePath, rec.PreviewImage, position)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				position--
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.seeded.Store(true)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner) (models.PackageRecord, error) {
	var rec models.PackageRecord
	var cat string
	if err := row.Scan(&rec.ID, &cat, &rec.Title, &rec.Details, &rec.Price, &rec.ImagePath, &rec.PreviewImage); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan: %w", err)
	}
	parsed, ok := models.ParseCategory(cat)
	if !ok {
		return rec, fmt.Errorf("scan: unknown category %q", cat)
	}
	rec.Category = parsed
	return rec, nil
}
