package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roomstay/booking-orders/internal/adapters/crdb"
	"github.com/roomstay/booking-orders/internal/config"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/roomstay/booking-orders/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	worker := NewCompletionWorker(repo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx, time.Hour)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown completion worker")
}

// CompletionWorker closes out stays: a CONFIRMED order whose check-out date
// has passed becomes COMPLETED, freeing the room's interval for new bookings
// and emitting order.completed through the outbox.
type CompletionWorker struct {
	repo   *crdb.Repository
	logger observability.Logger
}

func NewCompletionWorker(repo *crdb.Repository, logger observability.Logger) *CompletionWorker {
	return &CompletionWorker{repo: repo, logger: logger}
}

func (w *CompletionWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			orders, err := w.repo.ListOverdueConfirmed(ctx, now.UTC())
			if err != nil {
				w.logger.WithError(err).Error("failed to list overdue confirmed orders")
				continue
			}
			for _, order := range orders {
				if err := w.completeWithRetry(ctx, order); err != nil {
					w.logger.WithField("order_id", order.ID).WithError(err).Error("failed to complete order after retries")
				}
			}
		}
	}
}

func (w *CompletionWorker) completeWithRetry(ctx context.Context, order domain.Order) error {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		if err := order.Complete(); err != nil {
			// Cancelled or overridden since the listing; nothing to do.
			if errors.Is(err, domain.ErrInvalidState) {
				return nil
			}
			return err
		}

		err := w.repo.UpdateOrder(ctx, order, domain.NewEvent(domain.EventOrderCompleted, order))
		if err == nil {
			w.logger.WithField("order_id", order.ID).Info("order completed")
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) && !errors.Is(err, domain.ErrSerializationFailure) {
			return err
		}

		backoff := time.Duration(1<<i) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		reloaded, err := w.repo.GetOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		order = reloaded
	}
	return fmt.Errorf("failed after %d retries", maxRetries)
}
