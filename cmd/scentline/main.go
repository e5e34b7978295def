package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"scentline/internal/api"
	"scentline/pkg/config"
	"scentline/pkg/db"
	"scentline/pkg/logging"
	"scentline/pkg/playback"
	"scentline/pkg/probe"
	"scentline/pkg/request"
	"scentline/pkg/session"
	"scentline/pkg/store"
	"scentline/pkg/terrain"
	"scentline/pkg/tracker"
	"scentline/pkg/version"
	"scentline/pkg/weather"
)

var (
	configPath = flag.String("config", "configs/scentline.yaml", "Path to config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	// .env is optional; used on field tablets to point at a local config
	_ = godotenv.Load()
	if p := os.Getenv("SCENTLINE_CONFIG"); p != "" {
		*configPath = p
	}

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Scentline Started", "version", version.Version)

	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()
	st := store.NewSQLiteStore(dbConn)

	if err := dbConn.PruneCache(7 * 24 * time.Hour); err != nil {
		slog.Warn("Cache pruning failed", "error", err)
	}

	tr := tracker.New()
	reqClient := request.New(st, tr, request.Options{
		Timeout:     time.Duration(cfg.Request.Timeout),
		Retries:     cfg.Request.Retries,
		BackoffBase: time.Duration(cfg.Request.Backoff.BaseDelay),
		BackoffMax:  time.Duration(cfg.Request.Backoff.MaxDelay),
	})

	weatherSvc, err := weather.New(st, tr, time.Duration(cfg.Weather.CacheTTL))
	if err != nil {
		return fmt.Errorf("failed to initialize weather service: %w", err)
	}

	landcover := initLandcover(cfg)
	elevation := terrain.NewElevationService(reqClient, cfg.Terrain.ElevationURL)

	sessionMgr := session.NewManager(float64(cfg.Live.MinMove), cfg.Live.HeadingWindow)
	if session.TryRestore(ctx, st, sessionMgr) {
		slog.Info("Restored interrupted session")
	}

	probes := []probe.Probe{
		probe.Database(st),
		probe.Weather(weatherSvc),
		probe.Elevation(elevation),
	}
	if landcover != nil {
		probes = append(probes, probe.Landcover(landcover))
	}
	results := probe.Run(ctx, probes)
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, cfg, st, tr, weatherSvc, landcover, elevation, sessionMgr)
}

func initLandcover(cfg *config.Config) *terrain.Classifier {
	if len(cfg.Terrain.LandcoverPaths) == 0 {
		slog.Info("Landcover: no layers configured, terrain classification disabled")
		return nil
	}
	c, err := terrain.NewClassifier(cfg.Terrain.LandcoverPaths...)
	if err != nil {
		// Log but don't fail, classification just won't work
		slog.Warn("Landcover: failed to load layers", "error", err)
		return nil
	}
	slog.Info("Landcover: layers loaded", "features", c.FeatureCount())
	return c
}

func runServer(
	ctx context.Context,
	cfg *config.Config,
	st store.Store,
	tr *tracker.Tracker,
	weatherSvc *weather.Service,
	landcover *terrain.Classifier,
	elevation *terrain.ElevationService,
	sessionMgr *session.Manager,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	coneDefaults := cfg.Cone.Settings()
	playbackMgr := playback.NewManager()

	srv := api.NewServer(cfg.Server.Address, api.Handlers{
		Envelope: api.NewEnvelopeHandler(weatherSvc, landcover),
		Cone:     api.NewConeHandler(coneDefaults),
		Metrics:  api.NewMetricsHandler(),
		Weather:  api.NewWeatherHandler(weatherSvc),
		Terrain:  api.NewTerrainHandler(landcover, elevation),
		Sessions: api.NewSessionHandler(sessionMgr, st),
		Profiles: api.NewProfileHandler(st),
		Export:   api.NewExportHandler(st),
		Coverage: api.NewCoverageHandler(st),
		Playback: api.NewPlaybackHandler(playbackMgr, st),
		Live:     api.NewLiveHandler(sessionMgr, coneDefaults),
		Stats:    api.NewStatsHandler(tr, sessionMgr),
	}, shutdownFunc)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit, st, sessionMgr)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal, st store.Store, sessionMgr *session.Manager) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Persist the active session so it survives a restart in the field
	if sessionMgr.Current() != nil {
		if err := sessionMgr.Save(shutdownCtx, st); err != nil {
			slog.Error("Failed to persist session on shutdown", "error", err)
		}
	}

	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
