package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"studentapi/docs"
	"studentapi/internal/cache"
	"studentapi/internal/config"
	"studentapi/internal/database"
	"studentapi/internal/database/migration"
	handlers "studentapi/internal/http/handler"
	"studentapi/internal/http/middleware"
	"studentapi/internal/logger"
	"studentapi/internal/otel"
	"studentapi/internal/repository"
	"studentapi/internal/repository/memory"
	mongorepo "studentapi/internal/repository/mongo"
	"studentapi/internal/repository/postgres"
	"studentapi/internal/service"
	"studentapi/internal/storage"
	"studentapi/internal/validation"
)

// @title Student Records API
// @version 1.0
// @description CRUD over student records with optional file attachments.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server_stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	var objStore storage.Storage
	if cfg.MinIO.Enabled {
		objStore, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		log.Info("object_storage_ready", zap.String("bucket", cfg.MinIO.Bucket))
	}

	validator := validation.New(validation.WithStrictCourses(cfg.Validation.StrictCourses))
	studentSvc := service.NewStudentService(validator, repo, objStore, log)

	var limiterStore fiber.Storage
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		defer rdb.Close()
		limiterStore = cache.NewStorage(rdb, "studentapi:")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "studentapi",
		ErrorHandler: handlers.ErrorHandler(),
		// Values from Ctx outlive the handler in the memory store and logs.
		Immutable: true,
		// Room for the multipart envelope around a maximum-size file.
		BodyLimit: int(cfg.Upload.MaxBytes) + 1<<20,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Env != config.EnvProduction}))
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())
	app.Use(middleware.Helmet())
	app.Use(middleware.CORS(cfg.CORS))
	app.Use(middleware.Limiter(cfg.RateLimit, limiterStore))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, studentSvc, cfg.Upload)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("server_starting",
			zap.String("addr", addr),
			zap.String("env", cfg.Env),
			zap.String("store_backend", cfg.StoreBackend),
			zap.Bool("uploads_enabled", objStore != nil),
			zap.Bool("strict_courses", validator.Strict()),
		)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openRepository builds the configured student store and a func releasing it.
func openRepository(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (repository.StudentRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewStudentPostgres(db), func() { _ = db.Close() }, nil

	case config.BackendMongo:
		client, err := database.NewMongo(cfg.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		repo := mongorepo.NewStudentMongo(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
		return repo, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}, nil

	case config.BackendMemory:
		log.Warn("using in-memory store; records are lost on restart")
		return memory.NewStudentMemory(), func() {}, nil

	default:
		return nil, nil, errors.New("unsupported store backend: " + cfg.StoreBackend)
	}
}
