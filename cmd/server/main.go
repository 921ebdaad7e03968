package main

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/tutoring-schedule/internal/app"
    "github.com/iliyamo/tutoring-schedule/internal/config"
    "github.com/iliyamo/tutoring-schedule/internal/database"
    "github.com/iliyamo/tutoring-schedule/internal/handler"
    "github.com/iliyamo/tutoring-schedule/internal/middleware"
    "github.com/iliyamo/tutoring-schedule/internal/queue"
    "github.com/iliyamo/tutoring-schedule/internal/repository"
    "github.com/iliyamo/tutoring-schedule/internal/repository/inmem"
    "github.com/iliyamo/tutoring-schedule/internal/router"
    "github.com/iliyamo/tutoring-schedule/internal/schedule"
    "github.com/iliyamo/tutoring-schedule/internal/service"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        fmt.Fprintln(os.Stderr, "config:", err)
        os.Exit(1)
    }
    logger := app.NewLogger(cfg.Env)
    defer func() { _ = logger.Sync() }()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    if err := run(ctx, cfg, logger); err != nil {
        logger.Fatal("server stopped", zap.Error(err))
    }
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
    store, closeStore, err := openStore(ctx, cfg, logger)
    if err != nil {
        return err
    }
    defer closeStore()

    svc := service.NewSchedulingService(store, logger, service.WithRetryDelay(cfg.StoreRetryDelay))

    rdb := config.NewRedisClient(config.LoadRedisConfig(), logger)
    if rdb != nil {
        defer func() { _ = rdb.Close() }()
    }
    cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, logger)

    opts := []handler.Option{handler.WithCacheInvalidator(cache)}
    var publisher *queue.Publisher
    if cfg.EventsEnabled {
        publisher = queue.NewPublisher(cfg.RabbitURL, logger)
        opts = append(opts, handler.WithEvents(publisher))
    }
    h := handler.NewScheduleHandler(svc, cfg.Grid, logger, opts...)

    if cfg.AuditConsumerEnabled {
        consumer := queue.NewAuditConsumer(cfg.RabbitURL, cfg.AuditLogPath, logger)
        go func() {
            if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
                logger.Error("audit consumer stopped", zap.Error(err))
            }
        }()
    }

    if cfg.GenerationEnabled {
        sched := app.NewScheduler(svc, cfg.GenerationBranches, cfg.GenerationInterval, logger)
        sched.OnGenerated = func(ctx context.Context, result *schedule.GenerationResult) {
            cache.Invalidate(ctx)
            if publisher == nil {
                return
            }
            if err := publisher.Publish(ctx, queue.NewWeekGeneratedEvent(result)); err != nil {
                logger.Warn("publish week.generated failed", zap.Error(err))
            }
        }
        sched.Start(ctx)
        defer sched.Stop()
    }

    e := echo.New()
    e.HideBanner = true
    e.Use(middleware.RequestLogger(logger))
    router.RegisterRoutes(e, router.Deps{
        Schedule:  h,
        JWTSecret: cfg.JWTSecret,
        Cache:     cache,
        RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
    })

    errCh := make(chan error, 1)
    go func() {
        addr := ":" + cfg.Port
        logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errCh <- err
        }
        close(errCh)
    }()

    select {
    case err := <-errCh:
        return err
    case <-ctx.Done():
    }

    logger.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    return e.Shutdown(shutdownCtx)
}

// openStore builds the configured store.  The returned func releases it.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (service.Store, func(), error) {
    if cfg.StoreDriver == config.DriverMemory {
        store := inmem.New()
        if cfg.SeedFile != "" {
            if err := store.LoadFile(cfg.SeedFile); err != nil {
                return nil, nil, fmt.Errorf("load seed: %w", err)
            }
            logger.Info("seeded memory store", zap.String("file", cfg.SeedFile))
        }
        return store, func() {}, nil
    }

    db, err := database.Open(ctx, database.Options{
        User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
    })
    if err != nil {
        return nil, nil, fmt.Errorf("open database: %w", err)
    }
    if cfg.DBMigrate {
        m, err := database.NewMigrator(db, logger)
        if err == nil {
            err = m.Run(ctx)
        }
        if err != nil {
            _ = db.Close()
            return nil, nil, fmt.Errorf("migrate: %w", err)
        }
    }
    return repository.NewStore(db), func() { _ = db.Close() }, nil
}
