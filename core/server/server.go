package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biocard-api/core/cache"
	"biocard-api/core/config"
	"biocard-api/core/database"
	"biocard-api/core/logger"
	"biocard-api/core/middleware"
	"biocard-api/core/worker"
	"biocard-api/modules/availability"
	"biocard-api/modules/booking"
	"biocard-api/modules/events"
	"biocard-api/modules/events/tasks"
	"biocard-api/modules/integration"
	"biocard-api/modules/integration/provider"
	"biocard-api/modules/notification"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// Run boots the API: config, storage, module wiring, background worker,
// HTTP listener. It blocks until SIGINT/SIGTERM and shuts down cleanly.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Server.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	redisCache := cache.NewRedisCache(cfg.Redis)
	defer redisCache.Close()
	if err := redisCache.Ping(context.Background()); err != nil {
		// Redis degrades rate limiting and background sync but does not
		// stop the API from serving.
		logger.Warn("Server:Run:RedisUnavailable", "addr", cfg.Redis.Addr, "error", err)
	}

	mw := middleware.NewMiddleware(redisCache)

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.CORS())

	providers := provider.NewRegistry(
		provider.NewGoogleAdapter(cfg.GoogleAPI),
		provider.NewOutlookAdapter(cfg.MicrosoftAPI),
	)

	notifSvc := notification.Init(e, db, mw)
	integSvc := integration.Init(e, db, mw, providers)
	availSvc := availability.Init(e, mw, integSvc)
	eventSvc := events.Init(e, db, mw, integSvc)
	booking.Init(e, db, mw, integSvc, availSvc, eventSvc, notifSvc)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	w := worker.New(cfg.Redis, cfg.Sync.WorkerConcurrency)
	tasks.NewSyncTaskHandler(eventSvc).Register(w.Mux())
	if err := w.RegisterPeriodic(cfg.Sync.Schedule, tasks.NewSyncAllTask()); err != nil {
		return fmt.Errorf("register sync schedule: %w", err)
	}
	go func() {
		if err := w.Start(); err != nil {
			logger.Error("Server:Run:WorkerStopped", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:HTTPStopped", "error", err)
		}
	}()
	logger.Info("Server:Run:Started", "addr", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server:Run:ShuttingDown")
	w.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
