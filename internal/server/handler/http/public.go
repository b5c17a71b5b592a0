package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/travelsite/internal/models"
)

// PublicHandler serves the public listing documents and the admin page document.
type PublicHandler struct {
	Catalog CatalogService
	Log     *zap.Logger
}

// CategoryView is one listing page together with the display texts of its category.
type CategoryView struct {
	models.CategoryMeta
	models.Page
}

type homeResponse struct {
	Sections []CategoryView `json:"sections"`
}

type adminResponse struct {
	Packages   models.Catalog                          `json:"packages"`
	Categories map[models.Category]models.CategoryMeta `json:"categories"`
}

// Home returns the first page of every category.
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	resp := homeResponse{Sections: make([]CategoryView, 0, len(models.Categories))}
	for _, cat := range models.Categories {
		page, err := h.Catalog.Page(r.Context(), cat, "1")
		if err != nil {
			writeFailure(w, r, h.Log, err)
			return
		}
		resp.Sections = append(resp.Sections, CategoryView{CategoryMeta: models.CategoryInfo[cat], Page: page})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Category returns one page of a category listing, selected by ?page=.
func (h *PublicHandler) Category(w http.ResponseWriter, r *http.Request) {
	cat, ok := models.ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	page, err := h.Catalog.Page(r.Context(), cat, r.URL.Query().Get("page"))
	if err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, CategoryView{CategoryMeta: models.CategoryInfo[cat], Page: page})
}

// Admin returns the admin catalog document.
func (h *PublicHandler) Admin(w http.ResponseWriter, r *http.Request) {
	c, err := h.Catalog.Catalog(r.Context())
	if err != nil {
		writeFailure(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, adminResponse{Packages: c, Categories: models.CategoryInfo})
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
