package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/canteen/internal/adapter/firestore"
	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/adapter/postgres"
	"github.com/YelzhanWeb/canteen/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/canteen/internal/adapter/redis"
	"github.com/YelzhanWeb/canteen/internal/app/pipeline"
	"github.com/YelzhanWeb/canteen/internal/app/queue"
	"github.com/YelzhanWeb/canteen/internal/app/tracking"
	"github.com/YelzhanWeb/canteen/internal/config"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
	"github.com/YelzhanWeb/canteen/internal/report"
	"github.com/YelzhanWeb/canteen/internal/scheduler"

	amqpAdapter "github.com/YelzhanWeb/canteen/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/canteen/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Service mode: queue-service, scheduler-worker, notification-subscriber, rank")
	configPath := flag.String("config", "config.yaml", "Path to config.yaml")
	port := flag.Int("port", 3000, "HTTP port")
	prefetch := flag.Int("prefetch", 10, "RabbitMQ prefetch count")
	ordersFile := flag.String("orders", "", "JSON orders export (for rank)")
	strategy := flag.String("strategy", "", "Override scheduler.strategy: basic or enhanced")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *strategy != "" {
		cfg.Scheduler.Strategy = *strategy
	}
	strat, err := scheduler.ParseStrategy(cfg.Scheduler.Strategy)
	if err != nil {
		log.Fatalf("Invalid strategy: %v", err)
	}

	// rank needs no infrastructure
	if *mode == "rank" {
		if err := runRank(*ordersFile, cfg.Scheduler.Weights, strat); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize logger
	lgr := logger.New(*mode)

	// Connect to RabbitMQ
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ, *mode)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	if *mode == "notification-subscriber" {
		runNotificationSubscriber(ctx, mqConn, lgr)
		return
	}

	orderRepo, closeStore, err := openStore(ctx, cfg, lgr)
	if err != nil {
		log.Fatalf("Failed to open order store: %v", err)
	}
	defer closeStore()

	var cache interfaces.QueueCache
	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			// Без кэша очередь просто пересчитывается на каждый запрос
			lgr.Warn("redis_unavailable", "Running without queue cache", "startup", map[string]interface{}{
				"addr":  cfg.Redis.Addr,
				"error": err.Error(),
			})
		} else {
			defer client.Close()
			cache = redis.NewQueueCache(client, cfg.Redis.TTL())
		}
	}

	publisher := rabbitmq.NewPublisher(mqConn)
	queueService, err := queue.NewService(orderRepo, cache, publisher, lgr, cfg.Scheduler.Weights, strat)
	if err != nil {
		log.Fatalf("Failed to create queue service: %v", err)
	}

	// Route to appropriate service
	switch *mode {
	case "queue-service":
		runQueueService(ctx, orderRepo, queueService, publisher, lgr, cfg, *port)

	case "scheduler-worker":
		runSchedulerWorker(ctx, mqConn, queueService, lgr, cfg, *prefetch)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func openStore(ctx context.Context, cfg *config.Config, lgr logger.Logger) (interfaces.OrderRepository, func(), error) {
	switch cfg.Store {
	case config.StoreFirestore:
		client, err := firestore.Connect(ctx, cfg.Firebase)
		if err != nil {
			return nil, nil, err
		}
		lgr.Info("firestore_connected", "Connected to Firestore", "startup", map[string]interface{}{
			"project_id": cfg.Firebase.ProjectID,
			"collection": cfg.Firebase.Collection,
		})
		return firestore.NewOrderRepository(client, cfg.Firebase.Collection), func() { _ = client.Close() }, nil

	default:
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})
		return postgres.NewOrderRepository(db), db.Close, nil
	}
}

func runQueueService(
	ctx context.Context,
	orderRepo interfaces.OrderRepository,
	queueService *queue.Service,
	publisher interfaces.MessagePublisher,
	lgr logger.Logger,
	cfg *config.Config,
	port int,
) {
	pipelineService := pipeline.NewService(orderRepo, queueService, publisher, lgr, cfg.Scheduler.Weights)
	trackingService := tracking.NewService(orderRepo, queueService, lgr, cfg.Scheduler.Weights)

	handler := httpAdapter.NewRouter(
		httpAdapter.NewQueueHandler(queueService, lgr),
		httpAdapter.NewOrderHandler(pipelineService, lgr),
		httpAdapter.NewTrackingHandler(trackingService, lgr),
		lgr,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Queue Service started on port %d", port), "startup", map[string]interface{}{
		"port":     port,
		"strategy": cfg.Scheduler.Strategy,
	})

	// Graceful shutdown
	go func() {
		<-ctx.Done()

		lgr.Info("shutdown_initiated", "Shutting down Queue Service", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runSchedulerWorker(
	ctx context.Context,
	mqConn rabbitmq.Connection,
	queueService *queue.Service,
	lgr logger.Logger,
	cfg *config.Config,
	prefetch int,
) {
	consumer := rabbitmq.NewConsumer(mqConn, prefetch, lgr)
	eventHandler := amqpAdapter.NewOrderEventHandler(queueService, lgr)

	lgr.Info("service_started", "Scheduler Worker started", "startup", map[string]interface{}{
		"prefetch":         prefetch,
		"refresh_interval": cfg.Scheduler.RefreshInterval().String(),
	})

	// Periodic refresh keeps wait-based fields current between events
	go queueService.RunRefresher(ctx, cfg.Scheduler.RefreshInterval())

	if err := consumer.ConsumeOrderEvents(ctx, eventHandler.HandleOrderEvent); err != nil && ctx.Err() == nil {
		lgr.Error("consumer_error", "Error consuming order events", "runtime", nil, err)
	}

	lgr.Info("graceful_shutdown", "Shutting down Scheduler Worker", "shutdown", nil)
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger) {
	consumer := rabbitmq.NewConsumer(mqConn, 1, lgr)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	go func() {
		if err := consumer.ConsumeFanout(ctx, rabbitmq.QueueUpdatesExchange, notificationHandler.HandleQueueUpdate); err != nil && ctx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming queue updates", "runtime", nil, err)
		}
	}()

	if err := consumer.ConsumeFanout(ctx, rabbitmq.NotificationsExchange, notificationHandler.HandleStatusUpdate); err != nil && ctx.Err() == nil {
		lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
	}

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}

func runRank(path string, weights scheduler.Weights, strategy scheduler.Strategy) error {
	if path == "" {
		return fmt.Errorf("--orders is required for rank mode")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open orders: %w", err)
	}
	defer f.Close()

	orders, err := report.LoadOrders(f)
	if err != nil {
		return err
	}

	s, err := scheduler.New(orders, weights, strategy)
	if err != nil {
		return err
	}
	return report.Render(os.Stdout, s.OptimalSequence(), weights)
}
