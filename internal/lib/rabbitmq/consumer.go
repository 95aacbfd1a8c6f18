package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/cropyield/internal/lib/sl"
)

// ConsumeMessages читает очередь до отмены ctx или закрытия канала.
// Сообщение подтверждается, если handler вернул nil, иначе возвращается в очередь.
func ConsumeMessages(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func(amqp.Delivery) error) error {
	const op = "rabbitmq.ConsumeMessages"
	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := handler(d); err != nil {
				log.Error("handler failed, requeueing", slog.String("queue", queueName), sl.Err(err))
				if nackErr := d.Nack(false, true); nackErr != nil {
					log.Error("failed to nack message", sl.Err(nackErr))
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				log.Error("failed to ack message", sl.Err(ackErr))
			}
		case <-ctx.Done():
			return nil
		}
	}
}
