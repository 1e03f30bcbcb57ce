package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/arteza/studio/internal/config"
	"github.com/arteza/studio/internal/event"
	handler "github.com/arteza/studio/internal/handler/http"
	"github.com/arteza/studio/internal/notify"
	"github.com/arteza/studio/internal/remote"
	"github.com/arteza/studio/internal/remote/postgres"
	"github.com/arteza/studio/internal/remote/postgrest"
	"github.com/arteza/studio/internal/service"
	slotredis "github.com/arteza/studio/internal/storage/redis"
	"github.com/arteza/studio/internal/store"
	"github.com/arteza/studio/pkg/database"
	"github.com/arteza/studio/pkg/health"
	"github.com/arteza/studio/pkg/httpclient"
	pkgkafka "github.com/arteza/studio/pkg/kafka"
	"github.com/arteza/studio/pkg/middleware"
	"github.com/arteza/studio/pkg/tracing"
)

const serviceName = "studio"

// App wires together all dependencies and runs the studio backend.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	closeRemote    func()
	cartService    *service.CartService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Redis holds the cart slots. Carts still work in memory without it, so
	// an unreachable server only degrades the service.
	rdb := database.NewRedisClient(database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := database.PingRedis(ctx, rdb, logger); err != nil {
		logger.Warn("redis unreachable, carts opened now will not be persisted",
			slog.String("addr", cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
	}

	// Remote data service.
	backend, closeRemote, err := newRemoteBackend(ctx, cfg, logger)
	if err != nil {
		_ = rdb.Close()
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	// Cart observers: per-request toasts, log lines and, optionally, Kafka.
	observers := []store.Observer{notify.ContextObserver{}, notify.LogObserver{Logger: logger}}
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		observers = append(observers, event.NewProducer(producer, logger))
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	storage := slotredis.NewSlotStorage(rdb, cfg.CartTTL())
	cartService := service.NewCartService(storage, cfg.CartStorageKey, logger, observers...)
	catalogService := service.NewCatalogService(backend, logger)
	studioService := service.NewStudioService(backend, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("remote", backend.Ping)
	healthHandler.RegisterOptional("redis", storage.Ping)
	if producer != nil {
		healthHandler.RegisterOptional("kafka", producer.Ping)
	}

	// HTTP router.
	router := handler.NewRouter(handler.Services{
		Cart:    cartService,
		Catalog: catalogService,
		Studio:  studioService,
	}, healthHandler, handler.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Session: handler.SessionConfig{
			MaxAge: cfg.CartTTL(),
			Secure: cfg.Environment == "production",
		},
		WriteRateLimit: middleware.RateLimitConfig{
			RPS:   cfg.WriteRateLimitRPS,
			Burst: cfg.WriteRateLimitBurst,
		},
		CatalogMaxAge: time.Duration(cfg.CatalogCacheSeconds) * time.Second,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		producer:       producer,
		closeRemote:    closeRemote,
		cartService:    cartService,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newRemoteBackend builds the configured data service backend and returns a
// function releasing its resources.
func newRemoteBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (remote.Backend, func(), error) {
	switch cfg.RemoteBackend {
	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)

		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}

		tracer := &database.QueryTracer{
			SlowThreshold: time.Duration(cfg.SlowQueryThresholdMs) * time.Millisecond,
			Logger:        logger,
		}
		return postgres.NewBackend(pool, tracer), pool.Close, nil

	case config.BackendPostgREST:
		client := httpclient.New(httpclient.DefaultConfig())
		breaker := httpclient.NewBreaker(client, httpclient.DefaultBreakerConfig("remote"), logger)
		logger.Info("using hosted data service", slog.String("url", cfg.RemoteURL))
		return postgrest.New(cfg.RemoteURL, cfg.RemoteAPIKey, breaker, logger), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown remote backend %q", cfg.RemoteBackend)
}

// Run starts the HTTP server and the idle cart evictor, then blocks until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	idle := a.cfg.CartIdle()
	go a.cartService.RunEvictor(ctx, idle/2, idle)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	a.closeRemote()

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
