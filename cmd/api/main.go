package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/roomstay/booking-orders/internal/adapters/crdb"
	mongoadapter "github.com/roomstay/booking-orders/internal/adapters/mongo"
	"github.com/roomstay/booking-orders/internal/adapters/rabbit"
	redisadapter "github.com/roomstay/booking-orders/internal/adapters/redis"
	"github.com/roomstay/booking-orders/internal/booking"
	"github.com/roomstay/booking-orders/internal/client"
	"github.com/roomstay/booking-orders/internal/config"
	httphandler "github.com/roomstay/booking-orders/internal/http"
	"github.com/roomstay/booking-orders/internal/idempotency"
	"github.com/roomstay/booking-orders/internal/observability"
	"github.com/roomstay/booking-orders/internal/outbox"
	"github.com/roomstay/booking-orders/internal/rateLimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	audit := mongoadapter.NewAuditTrail(mongoClient.Database("booking"), logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, cfg.IdempotencyTTL)
	rl := rateLimit.NewRateLimiter(redisCache)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer rabbitConn.Close()
	rabbitPub, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	roomClient := client.NewRoomClient(
		client.ServiceConfig{BaseURL: cfg.RoomServiceURL, Timeout: cfg.RoomTimeout},
		client.BreakerConfig{
			FailureRatio: cfg.BreakerFailureRatio,
			Interval:     cfg.BreakerInterval,
			Cooldown:     cfg.BreakerCooldown,
			Probes:       cfg.BreakerProbes,
		},
		redisCache, cfg.RoomCacheTTL, logger,
	)
	paymentClient := client.NewPaymentClient(client.ServiceConfig{BaseURL: cfg.PaymentServiceURL, Timeout: cfg.PaymentTimeout}, logger)
	userClient := client.NewUserClient(client.ServiceConfig{BaseURL: cfg.UserServiceURL, Timeout: cfg.UserTimeout}, logger)

	coordinator := booking.NewCoordinator(repo, paymentClient, audit, logger, cfg.DefaultCurrency)
	aggregator := booking.NewAggregator(roomClient, userClient, logger)

	// Outbox relay runs in-process alongside the API; cmd/outbox-publisher
	// exists for running it separately.
	relayCtx, relayCancel := context.WithCancel(context.Background())
	defer relayCancel()
	go outbox.NewPublisher(repo, rabbitPub, logger).Run(relayCtx, 5*time.Second, 10)

	handlers := httphandler.NewHandlers(cfg, coordinator, aggregator, idemp, logger)
	r := httphandler.SetupRouter(handlers, logger, rl)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
