package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/travelsite/internal/middleware"
	"github.com/atinyakov/travelsite/internal/obs"
	"github.com/atinyakov/travelsite/internal/viewcache"
)

// RouterOptions carries the shared infrastructure of the router.
type RouterOptions struct {
	// Cache serves the listing documents; nil disables caching.
	Cache *viewcache.Cache
	// LoginLimiter bounds POST /admin/login per client IP; nil disables it.
	LoginLimiter *middleware.RateLimiter
	// PublicDir is served under /images/.
	PublicDir string
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	// Only set it behind a proxy that overwrites those headers.
	TrustProxy bool
	Logger     *zap.Logger
}

// NewRouter constructs the HTTP handler of the service.
//
// Routes:
//
//	GET    /                         → publicHandler.Home (cached)
//	GET    /packages/{category}      → publicHandler.Category (cached)
//	GET    /images/*                 → static images
//	GET    /admin/login              → authHandler.LoginPage
//	POST   /admin/login              → authHandler.Login (rate limited)
//	POST   /admin/logout             → authHandler.Logout
//	GET    /admin/packages           → publicHandler.Admin (page auth, cached)
//	GET    /api/admin/packages       → packagesHandler.List
//	POST   /api/admin/packages       → packagesHandler.Create
//	PUT    /api/admin/packages/{id}  → packagesHandler.Update
//	DELETE /api/admin/packages/{id}  → packagesHandler.Delete
//	GET    /healthz, /metrics
func NewRouter(
	authHandler *AuthHandler,
	packagesHandler *PackagesHandler,
	publicHandler *PublicHandler,
	opts RouterOptions,
) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cached := func(next http.Handler) http.Handler { return next }
	if opts.Cache != nil {
		cached = opts.Cache.Middleware
	}

	r := chi.NewRouter()
	if opts.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.WithRequestLogging(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(obs.Instrument)

	r.Get("/healthz", Healthz)
	r.Handle("/metrics", obs.Handler())

	r.Group(func(r chi.Router) {
		r.Use(cached)
		r.Get("/", publicHandler.Home)
		r.Get("/packages/{category}", publicHandler.Category)
	})
	if opts.PublicDir != "" {
		r.Handle("/images/*", noDirListing(http.FileServer(http.Dir(opts.PublicDir))))
	}

	r.Post("/admin/logout", authHandler.Logout)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminPage(authHandler.AuthService))
		r.Get("/login", authHandler.LoginPage)
		if opts.LoginLimiter != nil {
			r.With(opts.LoginLimiter.Middleware).Post("/login", authHandler.Login)
		} else {
			r.Post("/login", authHandler.Login)
		}
		r.With(cached).Get("/packages", publicHandler.Admin)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminAPI(authHandler.AuthService))
		r.Get("/packages", packagesHandler.List)
		r.Post("/packages", packagesHandler.Create)
		r.Put("/packages/{id}", packagesHandler.Update)
		r.Delete("/packages/{id}", packagesHandler.Delete)
	})

	return r
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
