// Package recommendation переводит прогноз урожайности в набор агрономических
// рекомендаций. Функция чистая и определена для любого float64.
package recommendation

import (
	"math"

	"github.com/magabrotheeeer/cropyield/internal/models"
)

// Band — диапазон урожайности.
type Band string

const (
	// BandLow — урожайность ниже 2000 кг/га.
	BandLow Band = "low"
	// BandModerate — от 2000 включительно до 5000 кг/га.
	BandModerate Band = "moderate"
	// BandHigh — 5000 кг/га и выше.
	BandHigh Band = "high"
)

// tier — строка таблицы: нижняя граница включительно и рекомендации.
type tier struct {
	lower  float64
	band   Band
	advice models.Recommendation
}

// tiers упорядочена по убыванию нижней границы; выигрывает первая подходящая строка.
var tiers = []tier{
	{
		lower: 5000,
		band:  BandHigh,
		advice: models.Recommendation{
			CropAdvice:       "High yield expected, excellent for market value.",
			FertilizerAdvice: "Use 60 kg/ha of Nitrogen and 30 kg/ha of Phosphorus.",
			PesticideAdvice:  "Use 2 L/ha of targeted pesticide.",
		},
	},
	{
		lower: 2000,
		band:  BandModerate,
		advice: models.Recommendation{
			CropAdvice:       "Moderate yield expected, optimal for medium crops.",
			FertilizerAdvice: "Use 80 kg/ha of Nitrogen and 40 kg/ha of Phosphorus.",
			PesticideAdvice:  "Use 3 L/ha of integrated pest management.",
		},
	},
	{
		lower: math.Inf(-1),
		band:  BandLow,
		advice: models.Recommendation{
			CropAdvice:       "Low yield expected, consider increasing fertilizer and irrigation.",
			FertilizerAdvice: "Use 100 kg/ha of Nitrogen and 50 kg/ha of Phosphorus.",
			PesticideAdvice:  "Use 5 L/ha of organic pesticide.",
		},
	},
}

func lookup(predictedYield float64) tier {
	for _, t := range tiers {
		if predictedYield >= t.lower {
			return t
		}
	}
	// NaN не проходит ни одно сравнение
	return tiers[len(tiers)-1]
}

// Derive возвращает рекомендации для прогноза урожайности.
func Derive(predictedYield float64) models.Recommendation {
	return lookup(predictedYield).advice
}

// BandFor возвращает диапазон, в который попадает прогноз.
func BandFor(predictedYield float64) Band {
	return lookup(predictedYield).band
}

// Advise собирает прогноз, диапазон и рекомендации в одну структуру.
func Advise(predictedYield float64) models.Advice {
	t := lookup(predictedYield)
	return models.Advice{
		PredictedYield: predictedYield,
		Band:           string(t.band),
		Recommendation: t.advice,
	}
}
