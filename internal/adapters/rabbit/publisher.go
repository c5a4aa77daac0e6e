package rabbit

import (
	"context"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNacked is returned when the broker refuses to take responsibility for a message.
var ErrNacked = errors.New("broker nacked message")

type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewPublisher declares the durable topic exchange booking events are routed
// through and puts the channel in confirm mode.
func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, errors.Wrap(err, "enable publisher confirms")
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

// Publish returns nil only once the broker has acked msg.
func (p *Publisher) Publish(ctx context.Context, key string, msg amqp.Publishing) error {
	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, key, false, false, msg)
	if err != nil {
		return errors.Wrap(err, "publish")
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return errors.Wrap(err, "wait for confirm")
	}
	if !acked {
		return errors.Wrapf(ErrNacked, "message %s", msg.MessageId)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
