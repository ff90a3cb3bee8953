package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/stefan-ffr/mueller/internal/cms"
	"github.com/stefan-ffr/mueller/internal/config"
	"github.com/stefan-ffr/mueller/internal/directory"
	"github.com/stefan-ffr/mueller/internal/i18n"
	mw "github.com/stefan-ffr/mueller/internal/middleware"
	"github.com/stefan-ffr/mueller/internal/observability"
	"github.com/stefan-ffr/mueller/internal/qr"
)

const shutdownTimeout = 10 * time.Second

// server holds everything the handlers need.
type server struct {
	cfg      config.Config
	logger   *zap.Logger
	loader   *directory.Loader
	bundle   *i18n.Bundle
	qr       *qr.Generator
	pages    *cms.Store
	sessions *mw.SessionStore
	views    *viewSet
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSource, err := buildSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init document source", zap.Error(err))
	}
	defer closeSource()

	srv, err := newServer(ctx, cfg, logger, src)
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	// Warm the person cache so the first visitor does not pay for it.
	go func() {
		people, err := srv.loader.LoadAllPeople(ctx)
		if err != nil {
			return
		}
		logger.Info("people loaded", zap.Int("count", len(people)), zap.Int("manifest", len(srv.loader.Manifest())))
	}()

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening",
			zap.String("addr", httpSrv.Addr),
			zap.Bool("dev_mode", cfg.Server.DevMode),
			zap.String("source", cfg.Data.SourceKind()),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Fatal("listen", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("web stopped")
}

// buildSource selects the document backend and wraps it in the Redis cache
// when one is configured. A Redis outage at startup only disables the cache.
func buildSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (directory.Source, func(), error) {
	var (
		src     directory.Source
		closers []func() error
	)
	switch cfg.Data.SourceKind() {
	case "gcs":
		gcs, err := directory.NewGCSSource(ctx, cfg.Data.GCSBucket, cfg.Data.GCSPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs source: %w", err)
		}
		src = gcs
		closers = append(closers, gcs.Close)
	case "http":
		src = directory.NewHTTPSource(cfg.Data.BaseURL, nil)
	default:
		src = directory.NewDirSource(cfg.Data.Dir)
	}

	if cfg.Redis.URL != "" {
		client, err := directory.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("redis unavailable, document cache disabled", zap.Error(err))
		} else {
			src = directory.NewRedisCachedSource(src, client, "", cfg.Redis.TTL).WithLogger(logger)
			closers = append(closers, client.Close)
		}
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("close document source", zap.Error(err))
			}
		}
	}
	return src, closeAll, nil
}

// newServer wires the loader, translations, templates and content pages.
// Missing translations degrade to showing keys.
func newServer(ctx context.Context, cfg config.Config, logger *zap.Logger, src directory.Source) (*server, error) {
	loader := directory.NewLoader(src,
		directory.WithLogger(logger),
		directory.WithManifest(cfg.Data.People),
		directory.WithStrictReferences(cfg.Data.StrictRefs),
	)

	bundle, err := loadBundle(ctx, loader, cfg.I18n.Fallback, logger)
	if err != nil {
		return nil, err
	}

	views, err := newViewSet(cfg.Server.TemplatesDir, cfg.Server.DevMode, bundle)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &server{
		cfg:      cfg,
		logger:   logger,
		loader:   loader,
		bundle:   bundle,
		qr:       qr.NewGenerator(qr.PNGEncoder{}, logger),
		pages:    cms.NewStore(cfg.Server.ContentDir, cms.WithFallbackLanguages(cfg.I18n.Fallback, "de")),
		sessions: mw.NewSessionStore(cfg.Session.SigningKey, cfg.Session.Secure, logger),
		views:    views,
	}, nil
}

func loadBundle(ctx context.Context, loader *directory.Loader, fallback string, logger *zap.Logger) (*i18n.Bundle, error) {
	translations, err := loader.LoadTranslations(ctx)
	if err == nil {
		bundle, bErr := i18n.New(translations, fallback)
		if bErr == nil {
			return bundle, nil
		}
		err = bErr
	}
	logger.Error("translations unavailable, showing keys", zap.Error(err))
	return i18n.New(map[string]map[string]string{fallback: {}}, fallback)
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(observability.InjectLoggerMiddleware(s.logger))
	r.Use(observability.RequestLoggerMiddleware)
	r.Use(observability.RecoveryMiddleware(s.logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	// ready once at least one person is cached
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if len(s.loader.CachedPeople()) == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("warming up"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/assets/*", mw.AssetsWithCache(filepath.Join(s.cfg.Server.PublicDir, "assets"), "/assets", s.cfg.Server.DevMode))

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		r.Use(mw.Locale(s.bundle))
		r.Use(mw.VaryLocale)

		r.Get("/", s.handleIndex)
		r.Get("/profile", s.handleProfileQuery)
		r.Get("/p/{id}", s.handleProfilePath)
		r.Get("/business-card", s.handleBusinessCard)
		r.Get("/vcard/{id}.vcf", s.handleVCard)
		r.Get("/qr/{id}/{slot}.png", s.handleQR)
		r.Get("/pages/{slug}", s.handleContentPage)
	})
	return r
}
