package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"flight-state-table/internal/api"
	"flight-state-table/internal/config"
	"flight-state-table/internal/console"
	"flight-state-table/internal/fetcher"
	"flight-state-table/internal/history"
	"flight-state-table/internal/ingest"
	"flight-state-table/internal/metrics"
	"flight-state-table/internal/scheduler"
	"flight-state-table/internal/snapshot"
	"flight-state-table/internal/stream"
	"flight-state-table/internal/table"
	"flight-state-table/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	envFile := flag.String("env", ".env", "path to optional .env file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	if err := run(cfg, log); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics()

	store, closeStore, err := openStore(ctx, cfg.Snapshot, log)
	if err != nil {
		return err
	}
	defer closeStore()

	client := fetcher.NewOpenSkyClient(fetcher.Options{
		BaseURL:  cfg.OpenSky.BaseURL,
		Timeout:  cfg.OpenSky.RequestTimeout,
		Username: cfg.OpenSky.Username,
		Password: cfg.OpenSky.Password,
		Box:      cfg.OpenSky.Box,
	}, log, m)

	tbl := table.New()
	hub := stream.NewHub(tbl.Rows, log, m)
	defer hub.Close()

	tbl.AddSink(hub)
	if cfg.Console.Enabled {
		tbl.AddSink(console.NewSink(os.Stdout, cfg.Console.MaxRows))
	}

	cycles := history.NewRing[ingest.Result](cfg.History.Size)
	pipeline := ingest.New(client, store, tbl,
		ingest.WithLogger(log),
		ingest.WithMetrics(m),
		ingest.WithHistory(cycles),
		ingest.WithNotifier(ingest.NewMultiNotifier(ingest.NewLogNotifier(log), hub)),
	)

	// Show the cached table before touching the network.
	pipeline.Restore(ctx)

	sched := scheduler.New(scheduler.Config{
		Interval:     cfg.Scheduler.Interval,
		FetchOnStart: cfg.Scheduler.FetchOnStart,
		ManualEvery:  cfg.Scheduler.ManualRate,
		ManualBurst:  cfg.Scheduler.ManualBurst,
	}, pipeline.RunCycle, log, m)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	go logResults(ctx, sched.Results(), log)

	mux := http.NewServeMux()
	api.NewServer(log, m, tbl, cycles, sched, hub).SetupRoutes(mux)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received %v, shutting down...", sig)
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not stop cleanly: %v", err)
	}

	log.Info("Server stopped")
	return nil
}

// openStore returns the configured snapshot store and its cleanup function.
func openStore(ctx context.Context, cfg config.SnapshotConfig, log *logger.Logger) (snapshot.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		pg, err := snapshot.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres snapshot store: %w", err)
		}
		log.Info("Using postgres snapshot store")
		return pg, pg.Close, nil
	default:
		fs := snapshot.NewFileStore(cfg.Path)
		log.Info("Using snapshot file %s", fs.Path())
		return fs, func() {}, nil
	}
}

func logResults(ctx context.Context, results <-chan ingest.Result, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-results:
			switch {
			case !res.Displayed():
				log.Warn("Cycle %s (%s) failed after %v: %v", res.ID, res.Trigger, res.Duration, res.Err)
			case res.PersistErr != nil:
				log.Warn("Cycle %s (%s) displayed %d states but was not cached: %v", res.ID, res.Trigger, res.Rows, res.PersistErr)
			default:
				log.Debug("Cycle %s (%s) displayed %d states in %v", res.ID, res.Trigger, res.Rows, res.Duration)
			}
		}
	}
}
