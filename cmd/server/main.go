// Package main initializes and starts the travel catalog server, setting up
// configuration, logging, the catalog store, image storage, services,
// handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/travelsite/internal/config"
	"github.com/atinyakov/travelsite/internal/db"
	"github.com/atinyakov/travelsite/internal/imagestore"
	"github.com/atinyakov/travelsite/internal/logger"
	"github.com/atinyakov/travelsite/internal/middleware"
	"github.com/atinyakov/travelsite/internal/obs"
	"github.com/atinyakov/travelsite/internal/repository"
	"github.com/atinyakov/travelsite/internal/server/handler/http"
	"github.com/atinyakov/travelsite/internal/service"
	"github.com/atinyakov/travelsite/internal/session"
	"github.com/atinyakov/travelsite/internal/viewcache"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse .env, flags, config file and environment.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session keys are loaded once; without them login answers "not configured".
	var codec service.TokenCodec
	keys, err := session.NewKeyHolder(options.SessionSecret)
	if err != nil {
		zapLogger.Warn("admin login disabled", zap.Error(err))
	} else {
		codec = session.NewCodec(keys)
	}
	if options.AdminPassword == "" {
		zapLogger.Warn("admin login disabled: ADMIN_PASSWORD is not set")
	}

	// Pick the catalog store.
	var repo service.CatalogRepository
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()
		repo = repository.NewPostgresCatalogRepository(postgresDB)
		zapLogger.Info("using postgres catalog store")
	} else {
		repo = repository.NewFileCatalogRepository(options.DataFile, zapLogger)
		zapLogger.Info("using file catalog store", zap.String("path", options.DataFile))
	}

	// Pick the image store.
	var images imagestore.Store
	local := imagestore.NewLocal(options.PublicDir)
	if options.CloudinaryURL != "" {
		images, err = imagestore.NewCloudinary(options.CloudinaryURL)
		if err != nil {
			zapLogger.Fatal("cannot init cloudinary", zap.Error(err))
		}
		zapLogger.Info("storing images on cloudinary")
	} else {
		images = local
	}

	obs.Init()
	cache := viewcache.New(viewcache.DefaultMaxEntries)

	// Initialize business-logic services.
	authService := service.NewAuthService(options.AdminPassword, codec, options.Secure())
	catalogService := service.NewCatalogService(repo, cache, zapLogger)

	if _, err := catalogService.Catalog(ctx); err != nil {
		zapLogger.Fatal("cannot load catalog", zap.Error(err))
	}

	if options.SweepInterval > 0 && options.CloudinaryURL == "" {
		imagestore.StartOrphanSweeper(ctx, local, catalogService,
			options.SweepInterval, options.SweepRetention, zapLogger)
	}

	// Create HTTP handlers and the router.
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger}
	packagesHandler := &http.PackagesHandler{Catalog: catalogService, Images: images, Log: zapLogger}
	publicHandler := &http.PublicHandler{Catalog: catalogService, Log: zapLogger}

	router := http.NewRouter(authHandler, packagesHandler, publicHandler, http.RouterOptions{
		Cache:        cache,
		LoginLimiter: middleware.NewRateLimiter(options.LoginRateBurst, options.LoginRatePerMinute),
		PublicDir:    options.PublicDir,
		TrustProxy:   options.TrustProxy,
		Logger:       zapLogger,
	})

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	if options.TLSCert != "" && options.TLSKey != "" {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
