package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shawnhank/nomnomlog-sub000/internal/auth"
	"github.com/shawnhank/nomnomlog-sub000/internal/client"
	"github.com/shawnhank/nomnomlog-sub000/internal/config"
	"github.com/shawnhank/nomnomlog-sub000/internal/event"
	handler "github.com/shawnhank/nomnomlog-sub000/internal/handler/http"
	"github.com/shawnhank/nomnomlog-sub000/internal/repository/postgres"
	redisrepo "github.com/shawnhank/nomnomlog-sub000/internal/repository/redis"
	"github.com/shawnhank/nomnomlog-sub000/internal/service"
	"github.com/shawnhank/nomnomlog-sub000/internal/storage"
	"github.com/shawnhank/nomnomlog-sub000/migrations"
	"github.com/shawnhank/nomnomlog-sub000/pkg/database"
	"github.com/shawnhank/nomnomlog-sub000/pkg/health"
	"github.com/shawnhank/nomnomlog-sub000/pkg/httpclient"
	pkgkafka "github.com/shawnhank/nomnomlog-sub000/pkg/kafka"
	"github.com/shawnhank/nomnomlog-sub000/pkg/middleware"
	"github.com/shawnhank/nomnomlog-sub000/pkg/tracing"
)

// App wires together all dependencies and runs the API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Anything opened before a failure is released again.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	// The signing key is checked first so a misconfigured server never
	// touches its backing stores.
	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	a.tracerShutdown, err = tracing.InitTracer(ctx, cfg.Tracing(handler.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, handler.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}

	a.redis, err = database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// A nil publisher makes the event producer drop events.
	var publisher event.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	events := event.NewProducer(publisher, logger)

	ledger := redisrepo.NewRevocationLedger(a.redis)
	users := service.NewUserService(postgres.NewUserRepository(a.pool), ledger, issuer, events, logger)

	if cfg.AdminEmail != "" {
		created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			return nil, fmt.Errorf("ensure admin account: %w", err)
		}
		if created {
			logger.Info("admin account bootstrapped", slog.String("email", cfg.AdminEmail))
		}
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", ledger.Ping)
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	var photos *service.PhotoService
	if cfg.PhotosEnabled() {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			ForcePathStyle:  cfg.S3ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("photo storage: %w", err)
		}
		photos = service.NewPhotoService(store)
		healthHandler.RegisterNonCritical("s3", store.Ping)
	} else {
		logger.Warn("S3_BUCKET not set, photo endpoints disabled")
	}

	var search *service.SearchService
	if cfg.BusinessSearchEnabled() {
		breaker := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("yelp"),
			logger,
		)
		search = service.NewSearchService(client.NewYelpClient(breaker, cfg.YelpBaseURL, cfg.YelpAPIKey, logger))
	} else {
		logger.Warn("YELP_API_KEY not set, business search disabled")
	}

	a.limiter = middleware.NewRateLimiter(cfg.LoginRateLimitRPS, cfg.LoginRateLimitBurst, logger)

	router := handler.NewRouter(handler.RouterConfig{
		Users:        users,
		Restaurants:  service.NewRestaurantService(postgres.NewRestaurantRepository(a.pool)),
		Meals:        service.NewMealService(postgres.NewMealRepository(a.pool), events, logger),
		Tags:         service.NewTagService(postgres.NewTagRepository(a.pool)),
		Photos:       photos,
		Search:       search,
		Resolver:     auth.NewGate(issuer, ledger, logger),
		Health:       healthHandler,
		CORS:         corsConfig(cfg),
		LoginLimiter: a.limiter,
		PprofCIDRs:   cfg.PprofAllowedCIDRs,
		Logger:       logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return a, nil
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		c.AllowedOrigins = cfg.CORSAllowedOrigins
	}
	return c
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.release()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release closes everything but the HTTP server. It is safe on a partially
// constructed App.
func (a *App) release() []error {
	var errs []error

	if a.limiter != nil {
		a.limiter.Stop()
	}

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}
