package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/arena-hq/arena-engine/config"
	"github.com/arena-hq/arena-engine/internal/database"
	"github.com/arena-hq/arena-engine/internal/middleware"
	proposalrepo "github.com/arena-hq/arena-engine/internal/repositories/proposal"
	requestrepo "github.com/arena-hq/arena-engine/internal/repositories/request"
	vendorrepo "github.com/arena-hq/arena-engine/internal/repositories/vendor"
	"github.com/arena-hq/arena-engine/internal/tracing"
	"github.com/arena-hq/arena-engine/pkg/events"
	"github.com/arena-hq/arena-engine/pkg/kafka"
	"github.com/arena-hq/arena-engine/pkg/lifecycle"
	"github.com/arena-hq/arena-engine/pkg/matching"
	healthroutes "github.com/arena-hq/arena-engine/pkg/routes/health"
	proposalroutes "github.com/arena-hq/arena-engine/pkg/routes/proposal"
	requestroutes "github.com/arena-hq/arena-engine/pkg/routes/request"
	vendorroutes "github.com/arena-hq/arena-engine/pkg/routes/vendor"
)

var version = "dev"

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Engine exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger ectologger.Logger) error {
	tracingShutdown, err := tracing.Setup(ctx, cfg.AppName, cfg.TracingEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracingShutdown(shutdownCtx)
	}()

	db, err := connectWithRetry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrateDatabase(cfg, logger, db); err != nil {
		return err
	}

	var cache matching.SnapshotCache = matching.NoopSnapshotCache{}
	var healthCache healthroutes.Pinger
	if cfg.SnapshotCacheOn {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		snapshotCache := matching.NewRedisSnapshotCache(redisClient, cfg.SnapshotCacheTTL)
		cache = snapshotCache
		healthCache = snapshotCache
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.KafkaProducerOn {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaLifecycleTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()

		publisher = events.NewEmitter(producer, logger)
	}

	proposals := proposalrepo.NewRepository(db, logger)
	vendors := vendorrepo.NewRepository(db, logger)
	requests := requestrepo.NewRepository(db, logger)

	matcher := matching.NewService(logger, vendors, requests, cache)
	lifecycleService := lifecycle.NewService(logger, proposals)

	if err := registerDependencies(logger, proposals, vendors, requests, matcher, lifecycleService, publisher); err != nil {
		return err
	}

	checker := healthroutes.NewChecker(db, healthCache, version)

	e := buildServer(cfg, logger, checker)

	serverErr := make(chan error, 1)
	go func() {
		address := fmt.Sprintf(":%d", cfg.Port)
		logger.WithField("address", address).Info("Starting engine HTTP server")
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	checker.SetReady(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	}

	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return e.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) ectologger.Logger {
	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		var b []byte
		var err error
		if cfg.PrettyLogs {
			b, err = json.MarshalIndent(msg, "", "  ")
		} else {
			b, err = json.Marshal(msg)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to marshal log message: %v\n", err)
			return
		}
		fmt.Println(string(b))
	})
}

func connectWithRetry(ctx context.Context, cfg config.Config, logger ectologger.Logger) (*database.DatabaseInstance, error) {
	dbConfig := database.Config{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}

	var db *database.DatabaseInstance
	var err error
	for attempt := 1; attempt <= cfg.StartupMaxAttempts; attempt++ {
		db, err = database.Connect(ctx, dbConfig, logger)
		if err == nil {
			return db, nil
		}
		logger.WithError(err).Warnf("Database connection attempt %d of %d failed", attempt, cfg.StartupMaxAttempts)
		time.Sleep(time.Duration(attempt) * time.Second)
	}

	return nil, err
}

func migrateDatabase(cfg config.Config, logger ectologger.Logger, db *database.DatabaseInstance) error {
	driver, err := migratepg.WithInstance(db.DB.DB, &migratepg.Config{})
	if err != nil {
		logger.WithError(err).Error("Failed to create migration driver")
		return err
	}

	migrationService := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})

	return migrationService.Migrate(cfg.DatabaseName, driver)
}

func registerDependencies(
	logger ectologger.Logger,
	proposals *proposalrepo.Repository,
	vendors *vendorrepo.Repository,
	requests *requestrepo.Repository,
	matcher *matching.Service,
	lifecycleService *lifecycle.Service,
	publisher events.Publisher,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*proposalrepo.Repository](container, proposals); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[lifecycle.Store](container, proposals); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*vendorrepo.Repository](container, vendors); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*requestrepo.Repository](container, requests); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*matching.Service](container, matcher); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*lifecycle.Service](container, lifecycleService); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[events.Publisher](container, publisher); err != nil {
		return err
	}

	return nil
}

func buildServer(cfg config.Config, logger ectologger.Logger, checker *healthroutes.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.HTTPErrorHandler = middleware.Error(logger)

	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")

	requestsGroup := api.Group("/requests")
	requestroutes.Register(requestsGroup)
	proposalroutes.RegisterRequestRoutes(requestsGroup)

	proposalroutes.Register(api.Group("/proposals"))
	vendorroutes.Register(api.Group("/vendors"))

	return e
}
