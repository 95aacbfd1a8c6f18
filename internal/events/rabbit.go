package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/cropyield/internal/lib/rabbitmq"
)

// RabbitPublisher публикует события в direct exchange.
// amqp.Channel не безопасен для параллельной публикации, поэтому вызовы сериализуются.
type RabbitPublisher struct {
	mu       sync.Mutex
	ch       rabbitmq.Channel
	exchange string
	conn     *amqp.Connection
}

// NewRabbitPublisher использует уже настроенный канал.
func NewRabbitPublisher(ch rabbitmq.Channel, exchange string) *RabbitPublisher {
	return &RabbitPublisher{ch: ch, exchange: exchange}
}

// DialRabbitPublisher подключается к брокеру, объявляет exchange и очереди аудита.
func DialRabbitPublisher(ctx context.Context, url, exchange string, retries int, delay time.Duration) (*RabbitPublisher, error) {
	const op = "events.DialRabbitPublisher"
	conn, err := rabbitmq.Connect(ctx, url, retries, delay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, exchange, rabbitmq.GetAuditQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RabbitPublisher{ch: ch, exchange: exchange, conn: conn}, nil
}

// Publish отправляет событие с его ключом маршрутизации.
func (p *RabbitPublisher) Publish(ctx context.Context, event Event) error {
	const op = "events.Publish"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := rabbitmq.PublishMessage(p.ch, p.exchange, event.RoutingKey(), event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает соединение, если оно было открыто DialRabbitPublisher.
func (p *RabbitPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
