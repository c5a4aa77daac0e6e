package outbox

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/travel-agency/internal/adapters/postgres"
	"github.com/robertarktes/travel-agency/internal/observability"
)

// Store is the outbox side of the Postgres repository.
type Store interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	ClaimOutbox(ctx context.Context, tx pgx.Tx, limit int) ([]postgres.OutboxRecord, error)
	MarkPublished(ctx context.Context, tx pgx.Tx, id uuid.UUID, publishedAt time.Time) error
}

type Broker interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

// Publisher relays outbox records to the broker. Delivery is at least once:
// a record is marked only after Broker.Publish returned nil, which for the
// rabbit adapter means a publisher confirm ack. The message id is the
// record's dedupe key so consumers can drop repeats.
type Publisher struct {
	repo      Store
	rabbitPub Broker
	logger    observability.Logger
	interval  time.Duration
	batch     int
}

func NewPublisher(repo Store, rabbitPub Broker, logger observability.Logger, interval time.Duration, batch int) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, logger: logger, interval: interval, batch: batch}
}

func (p *Publisher) Run(ctx context.Context) {
	p.logger.WithField("interval", p.interval.String()).Info("outbox publisher started")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.RunOnce(ctx)
			if err != nil {
				p.logger.WithError(err).Error("outbox relay failed")
				continue
			}
			if n > 0 {
				p.logger.WithField("published", n).Debug("outbox batch relayed")
			}
		}
	}
}

// RunOnce publishes one batch and returns how many records were marked published.
// Publishing stops at the first broker error so per-aggregate order is kept.
func (p *Publisher) RunOnce(ctx context.Context) (int, error) {
	published := 0
	err := p.repo.WithTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.ClaimOutbox(ctx, tx, p.batch)
		if err != nil {
			return err
		}
		if len(records) > 0 {
			observability.OutboxLag.Set(time.Since(records[0].CreatedAt).Seconds())
		}
		for _, rec := range records {
			msg := amqp.Publishing{
				MessageId:    rec.DedupeKey,
				Type:         rec.EventType,
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    rec.CreatedAt,
				Body:         rec.Payload,
			}
			if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
				observability.RabbitPublishFailures.Inc()
				p.logger.WithError(err).WithField("outbox_id", rec.ID.String()).Warn("publish failed, will retry")
				break
			}
			if err := p.repo.MarkPublished(ctx, tx, rec.ID, time.Now().UTC()); err != nil {
				return err
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "relay outbox batch")
	}
	return published, nil
}
