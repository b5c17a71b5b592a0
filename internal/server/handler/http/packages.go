package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/travelsite/internal/imagestore"
	"github.com/atinyakov/travelsite/internal/models"
)

// CatalogService defines the catalog operations required by the HTTP handlers.
type CatalogService interface {
	Catalog(ctx context.Context) (models.Catalog, error)
	Get(ctx context.Context, id string) (models.PackageRecord, error)
	Page(ctx context.Context, cat models.Category, rawPage string) (models.Page, error)
	// ValidateFields and ValidateUpdate let handlers reject input before an
	// image is written.
	ValidateFields(f models.PackageFields) (models.PackageFields, error)
	ValidateUpdate(upd *models.PackageUpdate) error
	Create(ctx context.Context, f models.PackageFields) (models.PackageRecord, error)
	Update(ctx context.Context, id string, upd models.PackageUpdate) (models.PackageRecord, error)
	Delete(ctx context.Context, id string) (models.PackageRecord, error)
}

// PackagesHandler serves the admin package API under /api/admin/packages.
type PackagesHandler struct {
	Catalog CatalogService
	Images  imagestore.Store
	Log     *zap.Logger

	// Now stamps uploaded file names; time.Now when nil.
	Now func() time.Time
}

type packageResponse struct {
	Package models.PackageRecord `json:"package"`
}

type catalogResponse struct {
	Packages models.Catalog `json:"packages"`
}

// List returns the whole catalog.
func (h *PackagesHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := h.Catalog.Catalog(r.Context())
	if err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{Packages: c})
}

// Update applies a multipart form (all text fields, optional image) or a
// JSON object (any subset of category, title, details and price) to the
// package named in the URL.
func (h *PackagesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeFailure(w, r, h.Log, models.Invalid("id", models.ReasonMissing, "Package id is required"))
		return
	}

	var (
		upd models.PackageUpdate
		err error
	)
	if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		upd, err = h.multipartUpdate(w, r, id)
	} else {
		upd, err = jsonUpdate(r)
	}
	if err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}

	rec, err := h.Catalog.Update(r.Context(), id, upd)
	if err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, packageResponse{Package: rec})
}

// Delete removes the package named in the URL. Its image is kept.
func (h *PackagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Catalog.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, packageResponse{Package: rec})
}

func (h *PackagesHandler) multipartUpdate(w http.ResponseWriter, r *http.Request, id string) (models.PackageUpdate, error) {
	var upd models.PackageUpdate
	form, err := parseForm(w, r)
	if err != nil {
		return upd, err
	}

	cat, ok := models.ParseCategory(formValue(form, "category"))
	if !ok {
		return upd, models.Invalid("category", models.ReasonCategory, "Invalid category")
	}
	upd.Category = &cat

	for _, f := range []struct {
		name string
		dst  **string
	}{
		{"title", &upd.Title},
		{"details", &upd.Details},
		{"price", &upd.Price},
	} {
		v, ok := form.Value[f.name]
		if !ok || len(v) == 0 {
			return upd, models.Invalid(f.name, models.ReasonMissing, "Invalid "+f.name)
		}
		s := v[0]
		*f.dst = &s
	}
	if err := h.Catalog.ValidateUpdate(&upd); err != nil {
		return upd, err
	}

	img, err := optionalImage(form)
	if err != nil || img == nil {
		return upd, err
	}
	// An unknown id must not leave a stored image behind.
	if _, err := h.Catalog.Get(r.Context(), id); err != nil {
		return upd, err
	}
	p, err := h.storeImage(r.Context(), cat, *upd.Title, img)
	if err != nil {
		return upd, err
	}
	upd.ImagePath = &p
	upd.PreviewImage = &p
	return upd, nil
}

// jsonUpdate reads a partial update. Only keys present in the body are
// applied; each must be a string.
func jsonUpdate(r *http.Request) (models.PackageUpdate, error) {
	var upd models.PackageUpdate
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		return upd, models.Invalid("", models.ReasonMalformedRequest, "Invalid request body")
	}

	if raw, ok := body["category"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return upd, models.Invalid("category", models.ReasonCategory, "Invalid category")
		}
		cat := models.Category(s)
		upd.Category = &cat
	}
	for _, f := range []struct {
		name string
		dst  **string
	}{
		{"title", &upd.Title},
		{"details", &upd.Details},
		{"price", &upd.Price},
	} {
		raw, ok := body[f.name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || string(raw) == "null" {
			return upd, models.Invalid(f.name, models.ReasonMalformedRequest, "Invalid "+f.name)
		}
		*f.dst = &s
	}
	return upd, nil
}
