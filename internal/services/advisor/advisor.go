// Package advisor ведёт пользовательский сценарий: прогноз урожайности,
// сохранение последнего прогноза в сессии и выдача рекомендаций по нему.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/cropyield/internal/estimator"
	"github.com/magabrotheeeer/cropyield/internal/events"
	"github.com/magabrotheeeer/cropyield/internal/lib/sl"
	"github.com/magabrotheeeer/cropyield/internal/metrics"
	"github.com/magabrotheeeer/cropyield/internal/models"
	"github.com/magabrotheeeer/cropyield/internal/services/recommendation"
)

// ErrNoPrediction — у пользователя ещё нет прогноза в сессии.
var ErrNoPrediction = errors.New("no predictions available")

// SessionStore хранит последний прогноз каждого пользователя.
type SessionStore interface {
	SavePrediction(ctx context.Context, username string, p models.Prediction) error
	LastPrediction(ctx context.Context, username string) (models.Prediction, bool, error)
	Clear(ctx context.Context, username string) error
}

// Service объединяет модель урожайности, сессии и движок рекомендаций.
type Service struct {
	log       *slog.Logger
	estimator estimator.Estimator
	sessions  SessionStore
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New создаёт Service.
func New(log *slog.Logger, est estimator.Estimator, sessions SessionStore, publisher events.Publisher, m *metrics.Metrics) *Service {
	return &Service{
		log:       log,
		estimator: est,
		sessions:  sessions,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

// Predict вызывает модель и запоминает результат как последний прогноз пользователя.
func (s *Service) Predict(ctx context.Context, username, crop string, features models.FeatureVector) (models.Prediction, error) {
	const op = "advisor.Predict"

	predictedYield, err := s.estimator.Estimate(ctx, features)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%s: %w", op, err)
	}

	p := models.Prediction{
		Crop:           crop,
		PredictedYield: predictedYield,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.sessions.SavePrediction(ctx, username, p); err != nil {
		return models.Prediction{}, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.Predictions.Inc()
	s.metrics.PredictedYield.Observe(predictedYield)

	band := string(recommendation.BandFor(predictedYield))
	if err := s.publisher.Publish(ctx, events.NewYieldPredicted(username, crop, predictedYield, band)); err != nil {
		s.log.Warn("failed to publish event", slog.String("op", op), sl.Err(err))
	}
	return p, nil
}

// Recommend выдаёт рекомендации по последнему прогнозу пользователя.
func (s *Service) Recommend(ctx context.Context, username string) (models.Advice, error) {
	const op = "advisor.Recommend"

	p, found, err := s.sessions.LastPrediction(ctx, username)
	if err != nil {
		return models.Advice{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.Advice{}, ErrNoPrediction
	}
	return s.RecommendFor(p.PredictedYield), nil
}

// RecommendFor выдаёт рекомендации для произвольного прогноза без обращения к сессии.
func (s *Service) RecommendFor(predictedYield float64) models.Advice {
	advice := recommendation.Advise(predictedYield)
	s.metrics.Recommendations.WithLabelValues(advice.Band).Inc()
	return advice
}

// Logout забывает последний прогноз пользователя.
func (s *Service) Logout(ctx context.Context, username string) error {
	const op = "advisor.Logout"
	if err := s.sessions.Clear(ctx, username); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
