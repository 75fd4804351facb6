// Package server exposes the translation overlay over HTTP: a translating
// front for the site plus the editing and admin API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ZaguanLabs/livelang"
	"github.com/ZaguanLabs/livelang/internal/config"
	"github.com/ZaguanLabs/livelang/store"
)

// APIPrefix is the mount point of the JSON API.
const APIPrefix = "/livelang/v1"

// limiterIdle is how long an idle client keeps its rate limit bucket.
const limiterIdle = 30 * time.Minute

// sweeper is implemented by caches that need expired entries purged.
type sweeper interface {
	Sweep() int
}

// Deps are the collaborators of a Server.
type Deps struct {
	Overlay      *livelang.Overlay
	Translations *store.TranslationStore
	Settings     *store.SettingsStore
	Languages    *livelang.LanguageRegistry
	// Cache is swept on a schedule when it supports it. Optional.
	Cache livelang.TranslationCache
	// Upstream serves the untranslated site. Built from the config when nil.
	Upstream http.Handler
	Logger   *slog.Logger
}

// Server is the HTTP front of the overlay.
type Server struct {
	cfg          *config.Config
	overlay      *livelang.Overlay
	translations *store.TranslationStore
	settings     *store.SettingsStore
	languages    *livelang.LanguageRegistry
	cache        livelang.TranslationCache
	upstream     http.Handler
	limiter      *livelang.KeyedRateLimiter
	scheduler    *Scheduler
	logger       *slog.Logger
	router       chi.Router
}

// New builds a server and its routes.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Overlay == nil || deps.Translations == nil || deps.Settings == nil || deps.Languages == nil {
		return nil, errors.New("server: overlay, translations, settings and languages are required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	upstream := deps.Upstream
	if upstream == nil {
		var err error
		if upstream, err = NewUpstream(cfg); err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:          cfg,
		overlay:      deps.Overlay,
		translations: deps.Translations,
		settings:     deps.Settings,
		languages:    deps.Languages,
		cache:        deps.Cache,
		upstream:     upstream,
		limiter: livelang.NewKeyedRateLimiter(livelang.RateLimitConfig{
			RequestsPerMinute: cfg.SaveRateLimit,
			BurstSize:         cfg.SaveRateBurst,
		}),
		scheduler: NewScheduler(logger),
		logger:    logger,
	}

	if err := s.scheduleJobs(); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(s.csrfProtect())
		r.Use(s.requireToken)

		r.With(s.rateLimit, s.requireEditor).Post("/save", s.handleSave)

		r.Get("/translations", s.handleListTranslations)
		r.Delete("/translations", s.handleClearTranslations)
		r.Delete("/translations/{id}", s.handleDeleteTranslation)
		r.Post("/translations/{id}/toggle", s.handleToggleTranslation)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		r.Get("/languages", s.handleListLanguages)
		r.Post("/languages", s.handleAddLanguage)
		r.Post("/languages/reorder", s.handleReorderLanguages)
		r.Put("/languages/{code}", s.handleUpdateLanguage)
		r.Delete("/languages/{code}", s.handleDeleteLanguage)
		r.Post("/languages/{code}/default", s.handleSetDefaultLanguage)

		r.Post("/cache/flush", s.handleFlushCache)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.detectLanguage)
		r.Use(s.translate)
		r.Handle("/*", s.upstream)
	})

	s.router = r
}

func (s *Server) scheduleJobs() error {
	if sw, ok := s.cache.(sweeper); ok {
		err := s.scheduler.Add("cache sweep", s.cfg.CacheSweepSpec, func() {
			if n := sw.Sweep(); n > 0 {
				s.logger.Info("swept expired cache entries", "count", n)
			}
		})
		if err != nil {
			return err
		}
	}

	return s.scheduler.Add("rate limiter prune", "@every 10m", func() {
		if n := s.limiter.Prune(limiterIdle); n > 0 {
			s.logger.Debug("pruned idle rate limiters", "count", n)
		}
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Warm fills the render cache with the mappings of every page that has
// page-specific translations.
func (s *Server) Warm(ctx context.Context) error {
	pages, err := s.translations.Slugs(ctx)
	if err != nil {
		return fmt.Errorf("listing pages: %w", err)
	}
	stats := s.overlay.Warm(ctx, pages, s.cfg.WarmWorkers)
	s.logger.Info("render cache warmed", "pages", stats.Pages, "cached", stats.Cached, "pairs", stats.Pairs)
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.WarmCache {
		if err := s.Warm(ctx); err != nil {
			s.logger.Warn("warming render cache failed", "error", err)
		}
	}

	s.scheduler.Start()
	defer s.scheduler.Stop()

	srv := &http.Server{
		Addr:              s.cfg.ServerAddr(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.cfg.ServerAddr(), "env", s.cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
