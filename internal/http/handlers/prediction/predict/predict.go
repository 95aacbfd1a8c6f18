// Package predict реализует HTTP-обработчик прогноза урожайности.
//
// Диапазоны признаков проверяются здесь, на входе. Модель и движок
// рекомендаций принимают любые значения.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/cropyield/internal/estimator"
	"github.com/magabrotheeeer/cropyield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/cropyield/internal/http/response"
	"github.com/magabrotheeeer/cropyield/internal/lib/sl"
	"github.com/magabrotheeeer/cropyield/internal/models"
)

// Request — культура и измерения участка.
type Request struct {
	Crop            string   `json:"crop" validate:"required,oneof=Wheat Rice Barley Maize Millet Sorghum Oats Rye" example:"Wheat"`
	Temperature     *float64 `json:"temperature" validate:"required,gte=0,lte=50" example:"25"`
	Rainfall        *float64 `json:"rainfall" validate:"required,gte=0,lte=500" example:"120"`
	SoilPH          *float64 `json:"soil_ph" validate:"required,gte=3,lte=10" example:"6.5"`
	SoilMoisture    *float64 `json:"soil_moisture" validate:"required,gte=0,lte=100" example:"30"`
	PreviousYield   *float64 `json:"previous_yield" validate:"required,gte=0,lte=10000" example:"3000"`
	FertilizerUsage *float64 `json:"fertilizer_usage" validate:"required,gte=0,lte=1000" example:"100"`
	PesticideUsage  *float64 `json:"pesticide_usage" validate:"required,gte=0,lte=100" example:"10"`
}

// Features переводит запрос в вектор признаков модели.
func (r Request) Features() models.FeatureVector {
	return models.FeatureVector{
		Temperature:     *r.Temperature,
		Rainfall:        *r.Rainfall,
		SoilPH:          *r.SoilPH,
		SoilMoisture:    *r.SoilMoisture,
		PreviousYield:   *r.PreviousYield,
		FertilizerUsage: *r.FertilizerUsage,
		PesticideUsage:  *r.PesticideUsage,
	}
}

// Service делает прогноз для пользователя.
type Service interface {
	Predict(ctx context.Context, username, crop string, features models.FeatureVector) (models.Prediction, error)
}

// Handler обрабатывает POST /predictions.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Прогноз урожайности
// @Description Прогноз сохраняется в сессии и используется для рекомендаций.
// @Tags Predictions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Измерения участка"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse "Модель не настроена"
// @Router /predictions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.prediction.predict"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := middlewarectx.UsernameFrom(r.Context())
	if !ok {
		log.Error("username missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			log.Error("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request"))
			return
		}
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	p, err := h.service.Predict(r.Context(), username, req.Crop, req.Features())
	if err != nil {
		log.Error("prediction failed", sl.Err(err))
		if errors.Is(err, estimator.ErrModelUnavailable) {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("prediction model unavailable"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to predict yield"))
		return
	}

	log.Info("yield predicted",
		slog.String("username", username),
		slog.String("crop", p.Crop),
		slog.Float64("predicted_yield", p.PredictedYield),
	)
	render.JSON(w, r, response.OKWithData(p))
}
