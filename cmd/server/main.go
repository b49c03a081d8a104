package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ourscreen/internal/core/ports"
	"ourscreen/internal/core/services"
	httphandlers "ourscreen/internal/handlers/http"
	eventbus "ourscreen/internal/infrastructure/distributed"
	"ourscreen/internal/infrastructure/middleware"
	"ourscreen/internal/infrastructure/monitoring"
	repositories "ourscreen/internal/infrastructure/repositories"
	"ourscreen/pkg/config"
	lockpkg "ourscreen/pkg/distributed"
	"ourscreen/pkg/logger"
	"ourscreen/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/ourscreen/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "ourscreen-server",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Warnw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	// Initialize repositories
	roomRepo := repoFactory.CreateRoomRepository()
	participantRepo := repoFactory.CreateParticipantRepository()
	messageRepo := repoFactory.CreateMessageRepository(cfg.Rooms.MessageHistoryLimit)
	mediaRepo := repoFactory.CreateMediaStateRepository()

	// Event publisher: Redis pub/sub when available, in-process otherwise
	var events ports.EventPublisher
	var lockFactory services.LockFactory
	if client := repoFactory.RedisClient(); client != nil {
		events = eventbus.NewEventBus(client, uuid.New().String(), log)
		lockFactory = func(key string) services.Locker {
			return lockpkg.NewLock(client, "ourscreen:lock:"+key, 10*time.Second)
		}
	} else {
		events = eventbus.NewLocalEventBus()
	}

	// Initialize monitoring
	prometheusCollector := monitoring.NewPrometheusCollector()

	// Initialize services
	tokenService := services.NewTokenService(cfg, log)
	tokenService.SetFallbackRecorder(prometheusCollector)

	roomService := services.NewRoomService(
		roomRepo,
		participantRepo,
		messageRepo,
		mediaRepo,
		events,
		services.RoomServiceOptions{
			SuffixLength:       cfg.Rooms.SuffixLength,
			QuickSuffixLength:  cfg.Rooms.QuickSuffixLength,
			HistoryLimit:       cfg.Rooms.MessageHistoryLimit,
			PublicListCacheTTL: cfg.Rooms.PublicListCacheTTL,
			LockFactory:        lockFactory,
		},
		log,
	)

	// Initialize HTTP handlers
	tokenHandler := httphandlers.NewTokenHandler(tokenService, cfg, prometheusCollector)
	roomHandler := httphandlers.NewRoomHandler(roomService, prometheusCollector)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestLoggingMiddleware(zapLogger))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	tokenHandler.SetupRoutes(router)
	roomHandler.SetupRoutes(router)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	// Readiness endpoint backed by dependency checks
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("repositories", func(ctx context.Context) (bool, error) {
		if err := repoFactory.HealthCheck(ctx); err != nil {
			return false, err
		}
		return true, nil
	}, 30*time.Second, 2*time.Second)

	checksCtx, checksCancel := context.WithCancel(context.Background())
	defer checksCancel()
	healthChecker.StartBackgroundChecks(checksCtx)

	router.GET("/ready", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := 200
		if status.Status != "healthy" {
			code = 503
		}
		c.JSON(code, status)
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting OurScreen API server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down OurScreen API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Errorw("Error shutting down tracer", "error", err)
		}
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("OurScreen API server stopped")
}
