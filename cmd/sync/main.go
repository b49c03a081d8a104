package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ourscreen/internal/core/ports"
	"ourscreen/internal/core/services"
	eventbus "ourscreen/internal/infrastructure/distributed"
	"ourscreen/internal/infrastructure/monitoring"
	repositories "ourscreen/internal/infrastructure/repositories"
	syncgw "ourscreen/internal/infrastructure/sync"
	"ourscreen/pkg/config"
	"ourscreen/pkg/logger"
	"ourscreen/pkg/retry"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
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

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	roomRepo := repoFactory.CreateRoomRepository()
	participantRepo := repoFactory.CreateParticipantRepository()
	messageRepo := repoFactory.CreateMessageRepository(cfg.Rooms.MessageHistoryLimit)
	mediaRepo := repoFactory.CreateMediaStateRepository()

	// Event bus: the gateway both publishes (chat.send, media.set write
	// through RoomService) and subscribes (fan-out to connections). Without
	// Redis the gateway only sees its own mutations.
	var events ports.EventPublisher
	var subscriber syncgw.EventSubscriber
	if client := repoFactory.RedisClient(); client != nil {
		bus := eventbus.NewEventBus(client, uuid.New().String(), log)
		events = bus
		subscriber = bus
	} else {
		bus := eventbus.NewLocalEventBus()
		events = bus
		subscriber = bus
		log.Warn("running without Redis: events from other instances will not be delivered")
	}

	prometheusCollector := monitoring.NewPrometheusCollector()

	tokenService := services.NewTokenService(cfg, log)

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
		},
		log,
	)

	// Initialize WebSocket gateway
	wsServer := syncgw.NewWebSocketServer(roomService, tokenService, subscriber, prometheusCollector, log)
	wsServer.SetPingInterval(cfg.Sync.PingInterval)
	wsServer.SetPongTimeout(cfg.Sync.PongTimeout)
	wsServer.SetRetryConfig(retry.Config{
		Enabled:      true,
		MaxAttempts:  cfg.Reconnect.MaxAttempts,
		InitialDelay: cfg.Reconnect.InitialDelay,
		MaxDelay:     cfg.Reconnect.MaxDelay,
		Multiplier:   cfg.Reconnect.Multiplier,
	})

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	busErr := make(chan error, 1)
	go func() {
		if err := wsServer.Run(runCtx); err != nil {
			busErr <- err
		}
	}()

	// Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWebSocket)
	mux.HandleFunc("/health", wsServer.HealthCheck)
	if cfg.Monitoring.PrometheusEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:    cfg.Sync.Address,
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting OurScreen sync gateway on %s", cfg.Sync.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Sync gateway failed", "error", err)
	case err := <-busErr:
		log.Fatalw("Event bus subscription failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down OurScreen sync gateway...")
	runCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Sync.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during gateway shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing gateway", "error", closeErr)
		}
	} else {
		log.Info("Gateway shutdown gracefully")
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("OurScreen sync gateway stopped")
}
