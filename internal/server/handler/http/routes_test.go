package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/travelsite/internal/imagestore"
	"github.com/atinyakov/travelsite/internal/middleware"
	"github.com/atinyakov/travelsite/internal/models"
	"github.com/atinyakov/travelsite/internal/obs"
	"github.com/atinyakov/travelsite/internal/repository"
	"github.com/atinyakov/travelsite/internal/service"
	"github.com/atinyakov/travelsite/internal/session"
	"github.com/atinyakov/travelsite/internal/viewcache"
)

const testPassword = "hunter2"

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) http.Handler {
	t.Helper()
	h, _ := newRouterWithOptions(t, RouterOptions{LoginLimiter: limiter})
	return h
}

// newRouterWithOptions builds a router over a fresh catalog file and returns
// the path of that file. Cache and PublicDir are filled in.
func newRouterWithOptions(t *testing.T, opts RouterOptions) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	publicDir := filepath.Join(dir, "public")
	dataFile := filepath.Join(dir, "packages.json")

	cache := viewcache.New(0)
	repo := repository.NewFileCatalogRepository(dataFile, nil)
	catalog := service.NewCatalogService(repo, cache, nil)

	keys, err := session.NewKeyHolder("router-test-secret")
	require.NoError(t, err)
	auth := service.NewAuthService(testPassword, session.NewCodec(keys), false)

	opts.Cache = cache
	opts.PublicDir = publicDir
	return NewRouter(
		&AuthHandler{AuthService: auth},
		&PackagesHandler{Catalog: catalog, Images: imagestore.NewLocal(publicDir)},
		&PublicHandler{Catalog: catalog},
		opts,
	), dataFile
}

func serve(h http.Handler, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rec := serve(h, postForm("/admin/login", url.Values{"password": {testPassword}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/packages", rec.Header().Get("Location"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestRouter_AdminIsProtected(t *testing.T) {
	h, dataFile := newRouterWithOptions(t, RouterOptions{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/admin/packages", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	assert.NoFileExists(t, dataFile, "an unauthenticated request must not touch the catalog")

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/api/admin/packages/local-x-1", nil),
		&http.Cookie{Name: session.CookieName, Value: "v1.9999999999999.forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/admin/packages", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, postForm("/admin/login", url.Values{"password": {"wrong"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login?error=invalid", rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies())
}

func TestRouter_AdminSession(t *testing.T) {
	h := newTestRouter(t, nil)
	cookie := login(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/admin/login", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/packages", rec.Header().Get("Location"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/admin/packages", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Packages   models.Catalog                          `json:"packages"`
		Categories map[models.Category]models.CategoryMeta `json:"categories"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	assert.Len(t, doc.Packages.Local, 20)
	assert.Len(t, doc.Packages.International, 20)
	assert.Equal(t, "Local", doc.Categories[models.Local].ShortLabel)

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/admin/logout", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRouter_PublicListings(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var home struct {
		Sections []CategoryView `json:"sections"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&home))
	require.Len(t, home.Sections, 2)
	assert.Equal(t, models.Local, home.Sections[0].Category)
	assert.Equal(t, "Local Philippines Packages", home.Sections[0].Title)
	assert.Equal(t, 20, home.Sections[0].Total)
	assert.Len(t, home.Sections[0].Packages, models.PageSize)

	tests := []struct {
		target     string
		wantPage   int
		wantCount  int
		wantStatus int
	}{
		{"/packages/local", 1, 6, http.StatusOK},
		{"/packages/local?page=4", 4, 2, http.StatusOK},
		{"/packages/international?page=99", 4, 2, http.StatusOK},
		{"/packages/international?page=abc", 1, 6, http.StatusOK},
		{"/packages/domestic", 0, 0, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var view CategoryView
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
			assert.Equal(t, tt.wantPage, view.Page.Page)
			assert.Len(t, view.Packages, tt.wantCount)
			assert.Equal(t, 4, view.TotalPages)
		})
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_CreateServeDelete(t *testing.T) {
	h := newTestRouter(t, nil)
	cookie := login(t, h)

	first := serve(h, httptest.NewRequest(http.MethodGet, "/packages/local", nil))
	require.Equal(t, "MISS", first.Header().Get("X-Cache"))
	again := serve(h, httptest.NewRequest(http.MethodGet, "/packages/local", nil))
	require.Equal(t, "HIT", again.Header().Get("X-Cache"))

	body, ct := multipartBody(t,
		map[string]string{"category": "local", "title": "Siargao Surf", "details": "4D3N", "price": "PHP 12,500"},
		&filePart{contentType: "image/png", body: []byte("\x89PNG")})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/packages", body)
	req.Header.Set("Content-Type", ct)
	rec := serve(h, req, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Package models.PackageRecord `json:"package"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.True(t, strings.HasPrefix(created.Package.ID, "pkg-"))
	assert.True(t, strings.HasPrefix(created.Package.ImagePath, "/images/packages/local/siargao-surf-"))
	assert.True(t, strings.HasSuffix(created.Package.ImagePath, ".png"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, created.Package.ImagePath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "\x89PNG", string(got))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/images/packages/local/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "directories are not listed")

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/packages/local", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), "create invalidates the listing")
	var view CategoryView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, 21, view.Total)
	assert.Equal(t, created.Package.ID, view.Packages[0].ID)

	update := httptest.NewRequest(http.MethodPut, "/api/admin/packages/"+created.Package.ID,
		strings.NewReader(`{"category":"international"}`))
	update.Header.Set("Content-Type", "application/json")
	rec = serve(h, update, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/packages/international", nil))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, created.Package.ID, view.Packages[0].ID, "a moved record goes first")

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/api/admin/packages/"+created.Package.ID, nil), cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/api/admin/packages/"+created.Package.ID, nil), cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Package not found"}`, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodGet, created.Package.ImagePath, nil))
	assert.Equal(t, http.StatusOK, rec.Code, "deleting a package keeps its image")
}

func TestRouter_LoginRateLimited(t *testing.T) {
	h := newTestRouter(t, middleware.NewRateLimiter(2, 1))

	for i := 0; i < 2; i++ {
		rec := serve(h, postForm("/admin/login", url.Values{"password": {"wrong"}}))
		require.Equal(t, http.StatusSeeOther, rec.Code)
	}
	rec := serve(h, postForm("/admin/login", url.Values{"password": {testPassword}}))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "only the login action is limited")
}

func TestRouter_LoginRateLimitIgnoresForwardingHeaders(t *testing.T) {
	h := newTestRouter(t, middleware.NewRateLimiter(2, 1))

	attempt := func(i int) int {
		req := postForm("/admin/login", url.Values{"password": {"wrong"}})
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		return serve(h, req).Code
	}
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusSeeOther, attempt(i))
	}
	assert.Equal(t, http.StatusTooManyRequests, attempt(2))
}

func TestRouter_TrustProxyUsesForwardedIP(t *testing.T) {
	h, _ := newRouterWithOptions(t, RouterOptions{
		LoginLimiter: middleware.NewRateLimiter(1, 1),
		TrustProxy:   true,
	})

	attempt := func(ip string) int {
		req := postForm("/admin/login", url.Values{"password": {"wrong"}})
		req.Header.Set("X-Forwarded-For", ip)
		return serve(h, req).Code
	}
	assert.Equal(t, http.StatusSeeOther, attempt("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, attempt("203.0.113.1"))
	assert.Equal(t, http.StatusSeeOther, attempt("203.0.113.2"), "another client has its own bucket")
}

func TestRouter_Metrics(t *testing.T) {
	obs.Init()
	h := newTestRouter(t, nil)

	serve(h, httptest.NewRequest(http.MethodGet, "/packages/local", nil))
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/packages/{category}"`)
}
