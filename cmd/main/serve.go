package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"guardplan/internal/api"
	routes "guardplan/internal/api/handlers"
	"guardplan/internal/config"
	"guardplan/internal/events"
	"guardplan/internal/logging"
	"guardplan/internal/metrics"
	"guardplan/internal/redis"
	"guardplan/internal/service/planner"
	"guardplan/internal/surface"
	"guardplan/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const publisherBuffer = 256

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the planner HTTP API and event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	plannerCfg, err := loadPlannerConfig(cfg.PlannerConfig)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEmitter(events.WithLogger(logger.With(slog.String("component", "events"))))
	ready := surface.NewReady()

	opts := []planner.Option{planner.WithEmitter(bus), planner.WithLogger(logger)}
	if cfg.RequireMapSurface {
		opts = append(opts, planner.WithMapReady(ready))
	}
	p, err := planner.New(plannerCfg, opts...)
	if err != nil {
		return fmt.Errorf("create planner: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	defer m.Attach(bus)()
	defer surface.AttachNotifier(bus, surface.LogNotifier{Logger: logger})()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.RedisUrl != "" {
		client, err := redis.Init(cfg.RedisUrl)
		if err != nil {
			return err
		}
		defer closeConnections()

		publisher := redis.NewPublisher(client, cfg.RedisChannel, publisherBuffer, config.PublishTimeout, logger.With(slog.String("component", "redis")))
		defer publisher.Attach(bus)()
		g.Go(func() error { return publisher.Run(ctx) })
	}

	go func() {
		if err := ready.Wait(ctx); err == nil {
			logger.Info("map surface ready")
		}
	}()

	worker.StartAllWorkers(ctx, p, m, logger.With(slog.String("component", "worker")))
	reportMemoryStats(ctx, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	api.SetupRouter(r, api.Deps{
		Planner: p,
		Stream:  routes.NewStream(bus, ready, p.Snapshot, logger.With(slog.String("component", "stream"))),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Info: map[string]string{
			"port":              cfg.Port,
			"requireMapSurface": fmt.Sprint(cfg.RequireMapSurface),
		},
	})

	srv := &http.Server{Addr: cfg.Port, Handler: r}
	g.Go(func() error {
		logger.Info("api server listening", slog.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func setupLogging(cfg config.Config) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stdout
	closeFn := func() {}

	// Tee to a file when one is configured
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, logFile)
		closeFn = func() { _ = logFile.Close() }
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, w)
	return logger, closeFn, nil
}

func loadPlannerConfig(path string) (config.Planner, error) {
	cfg, err := config.LoadPlanner(path)
	if err != nil {
		return cfg, fmt.Errorf("load planner config %q: %w", path, err)
	}
	return cfg, nil
}

func reportMemoryStats(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var m runtime.MemStats
				runtime.ReadMemStats(&m)
				logger.Debug("memory stats",
					slog.Uint64("alloc_mib", m.Alloc/1024/1024),
					slog.Uint64("sys_mib", m.Sys/1024/1024),
					slog.Uint64("num_gc", uint64(m.NumGC)),
				)
			}
		}
	}()
}

func closeConnections() {
	if err := redis.Close(); err != nil {
		slog.Error("closing redis connection", slog.Any("error", err))
		return
	}
	slog.Info("redis connection closed")
}
