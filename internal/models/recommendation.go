package models

import "time"

// Recommendation — неизменяемый набор агрономических рекомендаций.
type Recommendation struct {
	CropAdvice       string `json:"crop_advice"`
	FertilizerAdvice string `json:"fertilizer_advice"`
	PesticideAdvice  string `json:"pesticide_advice"`
}

// Prediction — результат обращения к модели урожайности.
type Prediction struct {
	Crop           string    `json:"crop"`
	PredictedYield float64   `json:"predicted_yield"` // кг/га
	CreatedAt      time.Time `json:"created_at"`
}

// Advice объединяет прогноз, диапазон урожайности и рекомендации.
type Advice struct {
	PredictedYield float64        `json:"predicted_yield"`
	Band           string         `json:"band"`
	Recommendation Recommendation `json:"recommendation"`
}
