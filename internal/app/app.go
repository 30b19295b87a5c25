package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/mimic/internal/config"
	"github.com/MrSnakeDoc/mimic/internal/engine"
	"github.com/MrSnakeDoc/mimic/internal/events"
	"github.com/MrSnakeDoc/mimic/internal/httpserver"
	"github.com/MrSnakeDoc/mimic/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mimic/internal/logger"
	"github.com/MrSnakeDoc/mimic/internal/metrics"
	"github.com/MrSnakeDoc/mimic/internal/redis"
	"github.com/MrSnakeDoc/mimic/internal/registry"
	"github.com/MrSnakeDoc/mimic/internal/scheduler"
	"github.com/MrSnakeDoc/mimic/internal/seed"
	"github.com/MrSnakeDoc/mimic/internal/utils"
	"github.com/MrSnakeDoc/mimic/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	engine      *engine.Engine
	reloader    *scheduler.SeedReloader // nil without a seed directory
}

// New wires every component from cfg. The event stream, when configured,
// must be reachable: New fails rather than start without it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	loggerClient.Debug("configuration loaded", logger.String("config", fmt.Sprintf("%+v", cfg.Redacted())))

	var opts []engine.Option

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		opts = append(opts, engine.WithMetrics(m))
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, redis.Options{
			Addr:           cfg.Redis.Addr,
			User:           cfg.Redis.User,
			Password:       cfg.Redis.Password,
			DB:             cfg.Redis.DB,
			DialTimeout:    cfg.Redis.DialTimeout,
			ReadTimeout:    cfg.Redis.ReadTimeout,
			WriteTimeout:   cfg.Redis.WriteTimeout,
			PoolSize:       cfg.Redis.PoolSize,
			ConnectTimeout: cfg.Redis.ConnectTimeout,
			RetryInterval:  cfg.Redis.RetryInterval,
			MaxWait:        cfg.Redis.MaxWait,
			PingTimeout:    cfg.Redis.PingTimeout,
			WarnThreshold:  cfg.Redis.WarnThreshold,
		}, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect event stream: %w", err)
		}
		redisClient = client
		opts = append(opts, engine.WithEvents(events.NewStreamPublisher(client, cfg.Redis.Stream, cfg.Redis.StreamMaxLen)))
		loggerClient.Info("event stream enabled",
			logger.String("stream", cfg.Redis.Stream),
			logger.Int64("max_len", cfg.Redis.StreamMaxLen))
	}

	eng := engine.New(registry.New(), loggerClient, opts...)

	var reloader *scheduler.SeedReloader
	var reloadTrigger chan struct{}
	if cfg.SeedDir != "" {
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewSeedReloader(
			seed.NewLoader(cfg.SeedDir, eng, loggerClient),
			loggerClient,
			cfg.SeedReloadInterval,
			reloadTrigger,
		)
	} else {
		loggerClient.Info("seed directory not configured, starting with an empty registry")
	}

	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		TrustProxy:        cfg.TrustProxy,
		AdminPrefix:       cfg.AdminPrefix,
		Engine:            eng,
		Metrics:           m,
		RedisClient:       redisClient,
		SeedDir:           cfg.SeedDir,
		SeedReloadTrigger: reloadTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		engine:      eng,
		reloader:    reloader,
	}, nil
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM, then shuts down.
// The seed reloader and the event stream client are released on every exit
// path, including a server that fails to start.
func (a *App) Run(ctx context.Context) error {
	defer func() { _ = a.logger.Sync() }()
	defer a.release()

	a.logger.Infof("🚀 Starting %s on %s", version.String(), a.cfg.ListenAddr)
	a.logger.Info("admin routes", logger.String("prefix", a.cfg.AdminPrefix))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seeds are in place before the first request is served.
	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		a.logger.Info("seed reloader started",
			logger.String("dir", a.cfg.SeedDir),
			logger.Duration("interval", a.cfg.SeedReloadInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ mimic stopped cleanly",
		logger.Int("services", a.engine.Count()))
	return nil
}

// release stops the seed reloader and closes the event stream client.
func (a *App) release() {
	if a.reloader != nil {
		a.reloader.Stop()
	}
	if a.redisClient != nil {
		utils.MustClose(a.redisClient, a.logger)
	}
}
