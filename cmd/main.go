package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hotel-backoffice/internal/catalog"
	"hotel-backoffice/internal/clients"
	"hotel-backoffice/internal/config"
	"hotel-backoffice/internal/database"
	"hotel-backoffice/internal/fulfillment"
	"hotel-backoffice/internal/journal"
	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/messaging"
	"hotel-backoffice/internal/models"
	"hotel-backoffice/internal/pricing"
	"hotel-backoffice/internal/services/console"
	"hotel-backoffice/internal/services/notification"
)

func main() {
	var (
		mode     = flag.String("mode", "", "Service mode (console-service, notification-subscriber)")
		port     = flag.Int("port", 3000, "HTTP port")
		prefetch = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	// Optional .env file for local development (API token etc).
	godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": *port,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	switch *mode {
	case "console-service":
		if err := runConsoleService(ctx, cfg, log, *port); err != nil {
			log.Error("service_failed", "Console service failed", requestID, err, nil)
			os.Exit(1)
		}
	case "notification-subscriber":
		if err := runNotificationSubscriber(ctx, cfg, log, *prefetch); err != nil {
			log.Error("service_failed", "Notification subscriber failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runConsoleService runs the staff-facing console API.
func runConsoleService(ctx context.Context, cfg *config.Config, log *logger.Logger, port int) error {
	requestID := logger.GenerateRequestID()

	rates, err := pricing.RatesFromConfig(cfg.Pricing)
	if err != nil {
		return fmt.Errorf("invalid pricing configuration: %w", err)
	}

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)

	publisher := messaging.NewPublisher(conn, log)

	inventory := clients.NewInventoryClient(cfg.Backend, log)
	orders := clients.NewOrdersClient(cfg.Backend, log)

	index := catalog.NewIndex(inventory, log)
	if err := index.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to load initial catalog snapshot: %w", err)
	}

	log.Info("catalog_loaded", "Initial catalog snapshot loaded", requestID, map[string]interface{}{
		"item_count": index.Len(),
	})

	router := fulfillment.Router{
		models.CategoryRestaurant: &clients.RestaurantDestination{Orders: orders},
		models.CategoryLaundry:    &clients.LaundryDestination{Orders: orders},
	}

	jrnl := journal.New(db, log)
	orchestrator := fulfillment.NewOrchestrator(inventory, router, jrnl, publisher, index, rates, log)

	service := console.NewService(index, orchestrator, orders, jrnl, publisher, rates, log)
	handler := console.NewHandler(service, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler.Routes(),
	}

	go func() {
		log.Info("service_started", fmt.Sprintf("Console service started on port %d", port), requestID, map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// runNotificationSubscriber runs the status update display loop.
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	subscriber := notification.NewSubscriber(consumer, log)

	return subscriber.Start(ctx)
}
