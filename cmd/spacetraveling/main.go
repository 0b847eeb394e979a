// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/olegiv/spacetraveling/internal/cache"
	"github.com/olegiv/spacetraveling/internal/config"
	"github.com/olegiv/spacetraveling/internal/export"
	"github.com/olegiv/spacetraveling/internal/handler"
	"github.com/olegiv/spacetraveling/internal/logging"
	"github.com/olegiv/spacetraveling/internal/middleware"
	"github.com/olegiv/spacetraveling/internal/prismic"
	"github.com/olegiv/spacetraveling/internal/render"
	"github.com/olegiv/spacetraveling/internal/scheduler"
	"github.com/olegiv/spacetraveling/internal/seo"
	"github.com/olegiv/spacetraveling/internal/site"
	"github.com/olegiv/spacetraveling/internal/uikit"
	"github.com/olegiv/spacetraveling/internal/version"
	"github.com/olegiv/spacetraveling/internal/webhook"
	"github.com/olegiv/spacetraveling/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

const (
	// Generated pages may be shared by CDNs for a minute and served stale
	// for ten more while they are revalidated.
	pageSMaxAge              = 60
	pageStaleWhileRevalidate = 600

	staticMaxAge    = 31536000
	recorderSize    = 100
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	exportTarget := flag.String("export", "", "Build the site, write it to `DIR` (or a .zip archive) and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "spacetraveling - blog front-end for a Prismic repository\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRISMIC_API_ENDPOINT    Prismic API v2 endpoint (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PRISMIC_ACCESS_TOKEN    Prismic access token (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ST_SERVER_PORT          Server port (default: 3000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ST_ENV                  Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ST_SITE_URL             Public site URL for canonical links and the sitemap\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ST_PAGE_SIZE            Posts per list page (default: 2)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ST_REVALIDATE_SCHEDULE  Cron schedule for rebuilds, empty disables (default: @every 10m)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ST_WEBHOOK_SECRET       Prismic webhook secret, enables POST /api/revalidate (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ST_REDIS_URL            Redis URL for a shared props store (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info, *exportTarget); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// application holds the wired components.
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder *logging.Recorder
	store    cache.Cache
	site     *site.Site
	renderer *render.Renderer
	seo      *seo.SiteConfig
	version  version.Info
}

func run(info version.Info, exportTarget string) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Text logs on stdout; WARN and ERROR records are also kept for /health
	recorder := logging.NewRecorder(recorderSize)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)})
	logger := slog.New(logging.NewHandler(textHandler, recorder))
	slog.SetDefault(logger)

	app, err := newApplication(cfg, logger, recorder, info)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.store.Close(); err != nil {
			logger.Error("error closing props store", "error", err)
		}
	}()

	if exportTarget != "" {
		return app.export(exportTarget)
	}
	return app.serve()
}

func newApplication(cfg *config.Config, logger *slog.Logger, recorder *logging.Recorder, info version.Info) (*application, error) {
	store := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
		MaxEntries: cfg.CacheMaxSize,
	}, logger)

	client, err := prismic.New(prismic.Options{
		Endpoint:    cfg.PrismicEndpoint,
		AccessToken: cfg.PrismicAccessToken,
		Timeout:     cfg.HTTPTimeout,
		Logger:      logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating prismic client: %w", err)
	}

	s := site.New(client, store, site.Options{
		PageSize:      cfg.PageSize,
		PropsTTL:      cfg.CacheTTLDuration(),
		FallbackWait:  cfg.FallbackWait,
		FallbackRate:  rate.Limit(cfg.FallbackRPS),
		FallbackBurst: cfg.FallbackBurst,
		Logger:        logger,
	})

	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS: templates,
		Funcs:       uikit.TemplateFuncs(nil),
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &application{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		store:    store,
		site:     s,
		renderer: renderer,
		seo: &seo.SiteConfig{
			SiteName:        cfg.SiteName,
			SiteURL:         cfg.SiteURL,
			SiteDescription: cfg.SiteDescription,
			DefaultOGImage:  "/static/dist/images/logo.svg",
		},
		version: info,
	}, nil
}

// export writes the static site to target.
func (app *application) export(target string) error {
	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("loading static assets: %w", err)
	}
	exporter := export.New(app.site, app.renderer, app.logger, export.Options{
		SEO:            app.seo,
		Static:         staticFS,
		DisallowRobots: app.cfg.IsDevelopment(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := exporter.ExportToPath(ctx, target)
	if err != nil {
		return fmt.Errorf("exporting site: %w", err)
	}
	app.logger.Info("export complete", "target", target, "files", res.Files, "posts", res.Posts)
	return nil
}

// serve builds the site, starts the revalidation scheduler and serves
// HTTP until SIGINT or SIGTERM.
func (app *application) serve() error {
	// Prebuild every page. A failed build is not fatal: pages are
	// generated on demand and /health reports the failure.
	buildCtx, cancel := context.WithTimeout(context.Background(), scheduler.DefaultBuildTimeout)
	_, _ = app.site.Build(buildCtx)
	cancel()

	sched := scheduler.New(app.site, app.cfg.RevalidateSchedule, app.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	var trigger handler.Trigger
	if app.cfg.WebhookSecret != "" {
		debouncer := webhook.NewDebouncer(func(ctx context.Context) error {
			_, err := app.site.Build(ctx)
			return err
		}, webhook.DefaultDebounceConfig(), app.logger)
		defer debouncer.Stop()
		trigger = debouncer
	}

	r, err := app.routes(sched, trigger)
	if err != nil {
		return err
	}

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              app.cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "addr", app.cfg.ServerAddr(), "env", app.cfg.Env, "version", app.version.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	app.logger.Info("server stopped")
	return nil
}

// routes builds the router. next reports the next scheduled rebuild and
// trigger queues webhook rebuilds; either may be nil.
func (app *application) routes(next handler.NextRunner, trigger handler.Trigger) (http.Handler, error) {
	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return nil, fmt.Errorf("loading static assets: %w", err)
	}

	frontend := handler.NewFrontendHandler(app.site, app.renderer, app.logger, handler.FrontendConfig{
		SEO:          app.seo,
		MaxListPages: app.cfg.MaxListPages,
	})
	seoHandler := handler.NewSEOHandler(app.site, app.logger, app.cfg.SiteURL, app.cfg.IsDevelopment())
	deps := handler.HealthDeps{
		Store:     app.store,
		Recorder:  app.recorder,
		Scheduler: next,
		Version:   app.version,
	}
	if p, ok := trigger.(handler.PendingReporter); ok {
		deps.Rebuilds = p
	}
	health := handler.NewHealthHandler(app.site, deps)
	limiter := middleware.NewClientRateLimiter(app.cfg.RateLimitRPS, app.cfg.RateLimitBurst, app.logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))                  // Gzip compression with level 5
	r.Use(chimw.GetHead)                      // Handle HEAD requests for uptime monitoring
	r.Use(middleware.Timeout(requestTimeout)) // 30 second request timeout
	r.Use(middleware.StripTrailingSlash)      // Redirect /path/ to /path (301)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(app.cfg.IsDevelopment())))

	r.Handle(handler.RouteStatic, middleware.StaticCache(staticMaxAge)(
		http.StripPrefix(handler.StaticPrefix, http.FileServer(http.FS(staticFS))),
	))
	r.Get(handler.RouteFavicon, frontend.Favicon)
	r.With(middleware.NoStore).Get(handler.RouteHealth, health.Health)
	if trigger != nil {
		wh := handler.NewWebhookHandler(trigger, app.cfg.WebhookSecret, app.logger)
		r.With(middleware.NoStore).Post(handler.RouteRevalidate, wh.Revalidate)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.PageCache(pageSMaxAge, pageStaleWhileRevalidate))
		r.Get(handler.RouteSitemap, seoHandler.Sitemap)
		r.Get(handler.RouteRobots, seoHandler.Robots)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Get(handler.RouteRoot, frontend.Home)
			r.Get(handler.RoutePost, frontend.Post)
		})
	})

	// 404 Not Found handler - themed 404 page
	r.NotFound(frontend.NotFound)

	return r, nil
}
