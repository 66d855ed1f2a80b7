package events

import (
	"context"
	"errors"

	"money-matters-dashboard/internal/logger"

	"github.com/rabbitmq/amqp091-go"
)

// ErrClosed is returned by Consume when the delivery channel closes.
var ErrClosed = errors.New("delivery channel closed")

// Consume hands each decoded change to handle until ctx is cancelled.
// Undecodable messages are dropped; handler failures are requeued.
func Consume(ctx context.Context, deliveries <-chan amqp091.Delivery, handle func(context.Context, Change) error) error {
	log := logger.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrClosed
			}

			change, err := ChangeFromJSON(d.Body)
			if err != nil {
				log.Error().Err(err).Msg("failed to decode change")
				_ = d.Nack(false, false)
				continue
			}

			if err := handle(ctx, change); err != nil {
				log.Error().Err(err).
					Str("op", string(change.Op)).
					Str("transaction_id", change.TransactionID).
					Msg("failed to handle change")
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
