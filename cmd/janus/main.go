package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"janus/internal/config"
	"janus/internal/database"
	"janus/internal/exchange"
	"janus/internal/ingest"
	"janus/internal/model"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
	logger.Info("service stopped")
}

func run(ctx context.Context, logger *slog.Logger, cfg config.Config) error {
	reg, err := model.DefaultRegistry()
	if err != nil {
		return err
	}

	products := make([]model.Product, 0, len(cfg.Ingest.Products))
	for _, s := range cfg.Ingest.Products {
		p, err := model.ParseProduct(reg, s)
		if err != nil {
			return err
		}
		products = append(products, p)
	}

	sink, closer, err := openSink(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := exchange.NewClient(cfg.Exchange.Name, logger, &cfg.Exchange, reg)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := ingest.NewMetrics(promReg)
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(logger, cfg.Metrics.Addr, promReg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	bridge := ingest.NewBridge(logger, client, sink, metrics, ingest.Options{
		Products:          products,
		Retention:         cfg.Sink.Retention(),
		ReconnectInterval: cfg.Exchange.ReconnectInterval(),
		ProgressEvery:     cfg.Ingest.ProgressEvery,
	})
	return bridge.Run(ctx)
}

func openSink(ctx context.Context, logger *slog.Logger, cfg config.Config) (database.Sink, io.Closer, error) {
	switch cfg.Sink.Driver {
	case "postgres":
		logger.Info("Connecting to Postgres", "host", cfg.Database.Host, "db", cfg.Database.DBName)
		sink, err := database.NewPostgresSink(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		return sink, sink, nil
	default:
		logger.Info("Connecting to Redis", "url", cfg.Redis.URL)
		sink, err := database.NewRedisSink(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Redis connection established")
		return sink, sink, nil
	}
}

func serveMetrics(logger *slog.Logger, addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
