// Package events публикует доменные события сервиса в RabbitMQ.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/cropyield/internal/lib/rabbitmq"
)

// Event — событие, которое знает свой ключ маршрутизации.
type Event interface {
	RoutingKey() string
}

// Publisher отправляет события потребителям.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// UserRegistered публикуется после успешной регистрации.
type UserRegistered struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RoutingKey реализует Event.
func (UserRegistered) RoutingKey() string { return rabbitmq.RoutingUserRegistered }

// NewUserRegistered создаёт событие с новым идентификатором.
func NewUserRegistered(username, email string) UserRegistered {
	return UserRegistered{
		ID:         uuid.New(),
		Username:   username,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
}

// YieldPredicted публикуется после каждого прогноза.
type YieldPredicted struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Crop           string    `json:"crop"`
	PredictedYield float64   `json:"predicted_yield"`
	Band           string    `json:"band"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// RoutingKey реализует Event.
func (YieldPredicted) RoutingKey() string { return rabbitmq.RoutingYieldPredicted }

// NewYieldPredicted создаёт событие с новым идентификатором.
func NewYieldPredicted(username, crop string, predictedYield float64, band string) YieldPredicted {
	return YieldPredicted{
		ID:             uuid.New(),
		Username:       username,
		Crop:           crop,
		PredictedYield: predictedYield,
		Band:           band,
		OccurredAt:     time.Now().UTC(),
	}
}

// Noop отбрасывает события. Используется, когда брокер не сконфигурирован.
type Noop struct{}

// Publish ничего не делает.
func (Noop) Publish(context.Context, Event) error { return nil }
