package imagestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/travelsite/internal/models"
)

// CatalogSource provides the current catalog.
type CatalogSource interface {
	Catalog(ctx context.Context) (models.Catalog, error)
}

// Sweep removes locally stored images that no record references and that
// were last modified before now-retention. It returns the number removed.
func (l *Local) Sweep(ctx context.Context, src CatalogSource, retention time.Duration, now time.Time) (int, error) {
	c, err := src.Catalog(ctx)
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]bool)
	for _, cat := range models.Categories {
		for _, rec := range c.List(cat) {
			referenced[rec.ImagePath] = true
			referenced[rec.PreviewImage] = true
		}
	}

	cutoff := now.Add(-retention)
	removed := 0
	for _, cat := range models.Categories {
		entries, err := os.ReadDir(l.Dir(cat))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, err
		}
		for _, e := range entries {
			if e.IsDir() || referenced[PublicPath(cat, e.Name())] {
				continue
			}
			info, err := e.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(l.Dir(cat), e.Name())); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// StartOrphanSweeper runs Sweep every interval until ctx is cancelled.
func StartOrphanSweeper(
	ctx context.Context,
	store *Local,
	src CatalogSource,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := store.Sweep(ctx, src, retention, time.Now())
				if err != nil {
					log.Error("failed to sweep orphan images", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("swept orphan images", zap.Int("removed", removed))
				}
			}
		}
	}()
}
