package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/roomstay/booking-orders/internal/adapters/crdb"
	"github.com/roomstay/booking-orders/internal/adapters/rabbit"
	"github.com/roomstay/booking-orders/internal/observability"
)

// Publisher relays committed outbox records to the events exchange. At least
// once: a record is only marked published after the broker accepted it, so a
// crash in between re-delivers and consumers dedupe on the message id.
type Publisher struct {
	repo      *crdb.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewPublisher(repo *crdb.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, logger: logger}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration, batch int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishBatch(ctx, batch)
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, batch int) {
	records, err := p.repo.GetUnpublishedOutbox(ctx, batch)
	if err != nil {
		p.logger.WithError(err).Error("failed to fetch outbox records")
		return
	}
	if len(records) > 0 {
		observability.OutboxLag.Set(time.Since(records[0].CreatedAt).Seconds())
	} else {
		observability.OutboxLag.Set(0)
	}

	for _, rec := range records {
		msg := amqp.Publishing{
			MessageId:   rec.DedupeKey,
			ContentType: "application/json",
			Body:        rec.Payload,
		}
		if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
			p.logger.WithField("event_type", rec.EventType).WithError(err).Error("failed to publish outbox record")
			observability.RabbitPublishRetries.Inc()
			continue
		}
		if err := p.repo.MarkPublished(ctx, rec.ID, time.Now().UTC()); err != nil {
			p.logger.WithField("outbox_id", rec.ID).WithError(err).Error("failed to mark outbox record published")
		}
	}
}
