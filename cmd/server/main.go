package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"oma-gateway/internal/api"
	"oma-gateway/internal/backend"
	"oma-gateway/internal/catalog"
	"oma-gateway/internal/config"
	"oma-gateway/internal/fetch"
	"oma-gateway/internal/format"
	"oma-gateway/internal/jobs"
	"oma-gateway/internal/ledger"
	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
	"oma-gateway/internal/orders"
	"oma-gateway/internal/session"
	"oma-gateway/internal/sheets"
	"oma-gateway/internal/storage"
	"oma-gateway/internal/store"
	"oma-gateway/internal/ttl"
)

func main() {
	// Local development only; deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	// Logger
	logger := logs.NewLogger(cfg.LogBuffer, cfg.Level())
	logger.SetOutput(os.Stderr)

	// Metrics
	reg := metrics.NewRegistry()

	// Response cache over durable storage
	kv, err := storage.Open(ctx, cfg.Storage())
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	defer kv.Close()

	// Background loops stop on ctx; storage closes after they return.
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cache := store.New(kv, cfg.CacheTTL, logger, reg)
	cache.Load(ctx)

	// Backend client and services
	hc := fetch.NewClient(cfg.Fetch(), logger, reg)
	sc := sheets.New(cfg.BackendURL, hc, logger)
	orderSvc := orders.NewService(sc, cache, logger)

	// Wake the backend and warm the cache without holding up startup.
	wg.Go(func() { _ = sc.Preload(ctx) })

	// Keep-alive
	bc := cfg.Backend()
	monitor := backend.NewMonitor(bc.Health, reg)
	heartbeat := backend.NewHeartbeat(sc, monitor, bc.KeepAliveInterval, logger, reg)
	wg.Go(func() { heartbeat.Start(ctx) })

	// Cache sweeper
	cleaner := ttl.NewCleaner(cache, cfg.CacheSweepInterval, cfg.CacheRetention, logger, reg)
	wg.Go(func() { cleaner.Start(ctx) })

	// Scheduled warm-up
	scheduler := jobs.New(format.IST, logger, reg)
	if err := jobs.RegisterWarmup(scheduler, jobs.Schedules{
		Preload:   cfg.PreloadSchedule,
		Dashboard: cfg.DashboardSchedule,
	}, sc, orderSvc); err != nil {
		return err
	}
	wg.Go(func() { scheduler.Start(ctx) })

	// API
	handler := api.NewHandler(api.Services{
		Cache:   cache,
		Ledger:  ledger.NewService(sc, cache, logger, reg),
		Orders:  orderSvc,
		Catalog: catalog.NewService(sc, cache, logger),
		Session: session.NewStore(kv),
		Monitor: monitor,
		Metrics: reg,
		Logger:  logger,
	})
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.RegisterRoutes(mux.NewRouter(), handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}()

	logger.Infof("gateway for %s listening on %s", cfg.BackendURL, cfg.ListenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("gateway stopped")
	return nil
}
