// Package latest выдаёт рекомендации по последнему прогнозу пользователя.
package latest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/cropyield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/cropyield/internal/http/response"
	"github.com/magabrotheeeer/cropyield/internal/lib/sl"
	"github.com/magabrotheeeer/cropyield/internal/models"
	"github.com/magabrotheeeer/cropyield/internal/services/advisor"
)

// Service выдаёт рекомендации по сессии.
type Service interface {
	Recommend(ctx context.Context, username string) (models.Advice, error)
}

// Handler обрабатывает GET /recommendations.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Рекомендации по последнему прогнозу
// @Tags Recommendations
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Прогнозов ещё не было"
// @Failure 500 {object} response.ErrorResponse
// @Router /recommendations [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recommendation.latest"

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

	advice, err := h.service.Recommend(r.Context(), username)
	if errors.Is(err, advisor.ErrNoPrediction) {
		log.Info("no prediction in session", slog.String("username", username))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("no predictions available"))
		return
	}
	if err != nil {
		log.Error("failed to load session", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get recommendations"))
		return
	}

	render.JSON(w, r, response.OKWithData(advice))
}
