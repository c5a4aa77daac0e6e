package audit

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/travel-agency/internal/domain"
	"github.com/robertarktes/travel-agency/internal/observability"
)

// Sink persists booking events. Writes must be idempotent on id.
type Sink interface {
	LogBooking(ctx context.Context, id, action string, ev domain.BookingEvent) error
}

// Worker drains booking events from the broker into the audit trail.
type Worker struct {
	sink   Sink
	logger observability.Logger
}

func NewWorker(sink Sink, logger observability.Logger) *Worker {
	return &Worker{sink: sink, logger: logger}
}

// Run handles deliveries until ctx is done or the channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("audit worker started")
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Warn("delivery channel closed")
				return
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle acks a stored event, drops a malformed one and requeues on storage failure.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	eventType := d.Type
	if eventType == "" {
		eventType = d.RoutingKey
	}
	log := w.logger.WithField("message_id", d.MessageId).WithField("event_type", eventType)

	var ev domain.BookingEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.WithError(err).Error("malformed booking event, dropping")
		observability.AuditEventsTotal.WithLabelValues(eventType, "malformed").Inc()
		if err := d.Nack(false, false); err != nil {
			log.WithError(err).Warn("nack failed")
		}
		return
	}

	if err := w.sink.LogBooking(ctx, d.MessageId, eventType, ev); err != nil {
		log.WithError(errors.Wrap(err, "store audit log")).Error("requeueing booking event")
		observability.AuditEventsTotal.WithLabelValues(eventType, "error").Inc()
		if err := d.Nack(false, true); err != nil {
			log.WithError(err).Warn("nack failed")
		}
		return
	}

	observability.AuditEventsTotal.WithLabelValues(eventType, "ok").Inc()
	if err := d.Ack(false); err != nil {
		log.WithError(err).Warn("ack failed")
	}
}
