// Package metrics объявляет метрики prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Значения метки result.
const (
	ResultCreated   = "created"
	ResultDuplicate = "duplicate"
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultError     = "error"
)

// Metrics хранит счётчики и гистограммы сервиса.
type Metrics struct {
	Registrations   *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	Predictions     prometheus.Counter
	Recommendations *prometheus.CounterVec
	PredictedYield  prometheus.Histogram
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropyield",
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"result"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropyield",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"result"}),
		Predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cropyield",
			Name:      "predictions_total",
			Help:      "Yield predictions served.",
		}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropyield",
			Name:      "recommendations_total",
			Help:      "Recommendation bundles derived, by yield band.",
		}, []string{"band"}),
		PredictedYield: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cropyield",
			Name:      "prediction_yield",
			Help:      "Predicted yield in kg/ha.",
			Buckets:   []float64{500, 1000, 2000, 3000, 4000, 5000, 7500, 10000},
		}),
	}
	reg.MustRegister(m.Registrations, m.Logins, m.Predictions, m.Recommendations, m.PredictedYield)
	return m
}

// NewNoop создаёт метрики, которые нигде не зарегистрированы.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}
