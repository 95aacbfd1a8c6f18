// Package estimator описывает контракт модели урожайности и содержит
// реализацию на основе ансамбля деревьев, выгруженного из XGBoost.
//
// Модель — чистая функция от вектора из семи признаков к прогнозу в кг/га.
// Реализации должны допускать параллельные вызовы в любом порядке.
package estimator

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/cropyield/internal/models"
)

// ErrModelUnavailable возвращается, когда модель не сконфигурирована.
var ErrModelUnavailable = errors.New("yield model is not configured")

// Estimator прогнозирует урожайность по вектору признаков.
type Estimator interface {
	Estimate(ctx context.Context, features models.FeatureVector) (float64, error)
}

// Func позволяет использовать обычную функцию как Estimator.
type Func func(ctx context.Context, features models.FeatureVector) (float64, error)

// Estimate вызывает f.
func (f Func) Estimate(ctx context.Context, features models.FeatureVector) (float64, error) {
	return f(ctx, features)
}

// Unavailable — заглушка на случай, когда путь к модели не задан.
type Unavailable struct{}

// Estimate всегда возвращает ErrModelUnavailable.
func (Unavailable) Estimate(context.Context, models.FeatureVector) (float64, error) {
	return 0, ErrModelUnavailable
}
