// Package main is the entry point for the selector engine's HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vitaliisemenov/selector-engine/internal/api/handlers"
	apiserver "github.com/vitaliisemenov/selector-engine/internal/api/server"
	"github.com/vitaliisemenov/selector-engine/internal/config"
	"github.com/vitaliisemenov/selector-engine/internal/metrics"
	"github.com/vitaliisemenov/selector-engine/internal/providers/k8sinventory"
	"github.com/vitaliisemenov/selector-engine/internal/providers/rangeclient"
	"github.com/vitaliisemenov/selector-engine/internal/providers/rediscache"
	"github.com/vitaliisemenov/selector-engine/internal/realtime"
	"github.com/vitaliisemenov/selector-engine/internal/selector"
	"github.com/vitaliisemenov/selector-engine/internal/selectorcache"
)

const (
	serviceName    = "selector-engine"
	serviceVersion = "1.0.0"
)

func main() {
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var configPath = flag.String("config", "", "Path to a YAML config file (optional; env vars and defaults apply otherwise)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", serviceName, serviceVersion)
		os.Exit(0)
	}

	if *showHelp {
		fmt.Printf("Selector Engine - fleet target-selection service\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		fmt.Printf("  -config     Path to a YAML config file\n")
		fmt.Printf("  -version    Show version information\n")
		fmt.Printf("  -help       Show this help message\n\n")
		fmt.Printf("Environment variables are read with the SELECTOR_ENGINE_ prefix, e.g. SELECTOR_ENGINE_SERVER_PORT.\n")
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting selector engine", "service", serviceName, "version", serviceVersion)

	reg := prometheus.NewRegistry()
	appMetrics := metrics.New(reg)

	source, closeSource, err := buildSource(cfg, logger)
	if err != nil {
		logger.Error("failed to build subject source", "error", err)
		os.Exit(1)
	}
	defer closeSource()

	opts := selector.DefaultOptions()
	opts.Logger = logger
	opts.Cache = selectorcache.New(cfg.Selector.CacheSize)
	opts.DefaultKind = cfg.Selector.DefaultKind
	if len(cfg.Selector.Delimiter) == 1 {
		opts.Delim = cfg.Selector.Delimiter[0]
	}
	if cfg.Range.Enabled {
		opts.RangeProvider = rangeclient.New(cfg.Range.Host,
			rangeclient.WithRateLimit(rate.Limit(cfg.Range.RateLimit), cfg.Range.RateBurst),
			rangeclient.WithLogger(logger),
		)
	}

	query := selector.NewDefaultQuery()
	engine := handlers.NewEngine(query, source, opts, appMetrics, logger)

	bus := realtime.NewEventBus(logger, realtime.NewRealtimeMetrics(reg, "selector_engine"))
	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	if err := bus.Start(busCtx); err != nil {
		logger.Error("failed to start event bus", "error", err)
		os.Exit(1)
	}

	serverCfg := apiserver.DefaultConfig(logger)
	serverCfg.Registry = reg
	router := apiserver.NewRouter(serverCfg, engine, bus)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := apiserver.New(addr, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.Server.GracefulShutdownTimeout); err != nil {
		logger.Error("server exited with error", "error", err)
		stopBus()
		os.Exit(1)
	}

	stopBus()
	if err := bus.Stop(context.Background()); err != nil {
		logger.Warn("event bus did not stop cleanly", "error", err)
	}
}

// buildSource assembles the selector.SubjectSource chain: Kubernetes node
// inventory, optionally wrapped in a Redis snapshot cache. The returned
// close func releases both and is always safe to call.
func buildSource(cfg *config.Config, logger *slog.Logger) (selector.SubjectSource, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if !cfg.K8s.Enabled {
		return noopSource{}, closeAll, nil
	}

	k8sClient, err := k8sinventory.New(&k8sinventory.Config{
		Timeout:         cfg.K8s.Timeout,
		MaxRetries:      cfg.K8s.MaxRetries,
		RetryBackoff:    cfg.K8s.RetryBackoff,
		MaxRetryBackoff: cfg.K8s.MaxRetryBackoff,
		LabelSelector:   cfg.K8s.LabelSelector,
		Logger:          logger,
	})
	if err != nil {
		return nil, closeAll, err
	}
	closers = append(closers, func() { k8sClient.Close() })

	var source selector.SubjectSource = k8sClient

	if cfg.Redis.Enabled {
		cacheCfg := rediscache.DefaultConfig()
		cacheCfg.Addr = cfg.Redis.Addr
		cacheCfg.Password = cfg.Redis.Password
		cacheCfg.DB = cfg.Redis.DB
		cacheCfg.PoolSize = cfg.Redis.PoolSize
		cacheCfg.DialTimeout = cfg.Redis.DialTimeout
		cacheCfg.ReadTimeout = cfg.Redis.ReadTimeout
		cacheCfg.WriteTimeout = cfg.Redis.WriteTimeout
		cacheCfg.Key = cfg.Redis.Key
		cacheCfg.TTL = cfg.Redis.TTL

		cached, err := rediscache.New(source, cacheCfg, logger)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, func() { cached.Close() })
		source = cached
	}

	return source, closeAll, nil
}

// noopSource is used when every pool provider is disabled: the engine still
// serves /v1/match (which needs no pool) but /v1/filter returns no subjects.
type noopSource struct{}

func (noopSource) Subjects(ctx context.Context) ([]*selector.Subject, error) {
	return nil, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Level == "debug" {
		level = slog.LevelDebug
	} else if cfg.Level == "warn" {
		level = slog.LevelWarn
	} else if cfg.Level == "error" {
		level = slog.LevelError
	}

	var out *lumberjack.Logger
	if cfg.Output == "file" {
		out = &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if out != nil {
		if cfg.Format == "text" {
			return slog.New(slog.NewTextHandler(out, handlerOpts))
		}
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
}
