package models

// FeatureCount — размерность вектора признаков модели урожайности.
const FeatureCount = 7

// FeatureNames перечисляет признаки в том порядке, в котором их ждёт модель.
var FeatureNames = [FeatureCount]string{
	"temperature",
	"rainfall",
	"soil_ph",
	"soil_moisture",
	"previous_yield",
	"fertilizer_usage",
	"pesticide_usage",
}

// FeatureVector — агрономические измерения одного участка.
type FeatureVector struct {
	Temperature     float64 // °C
	Rainfall        float64 // мм
	SoilPH          float64
	SoilMoisture    float64 // %
	PreviousYield   float64 // кг
	FertilizerUsage float64 // кг/га
	PesticideUsage  float64 // л/га
}

// Slice возвращает значения признаков в порядке FeatureNames.
func (f FeatureVector) Slice() [FeatureCount]float64 {
	return [FeatureCount]float64{
		f.Temperature,
		f.Rainfall,
		f.SoilPH,
		f.SoilMoisture,
		f.PreviousYield,
		f.FertilizerUsage,
		f.PesticideUsage,
	}
}

// Crops — культуры, которые можно выбрать при прогнозе.
var Crops = []string{"Wheat", "Rice", "Barley", "Maize", "Millet", "Sorghum", "Oats", "Rye"}
