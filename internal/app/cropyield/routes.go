// Package cropyield собирает HTTP-приложение сервиса прогноза урожайности.
package cropyield

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	// регистрирует OpenAPI-документ для /docs
	_ "github.com/magabrotheeeer/cropyield/internal/docs"
	"github.com/magabrotheeeer/cropyield/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/cropyield/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/cropyield/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/cropyield/internal/http/handlers/health"
	"github.com/magabrotheeeer/cropyield/internal/http/handlers/prediction/predict"
	"github.com/magabrotheeeer/cropyield/internal/http/handlers/recommendation/derive"
	"github.com/magabrotheeeer/cropyield/internal/http/handlers/recommendation/latest"
	"github.com/magabrotheeeer/cropyield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/cropyield/internal/services/advisor"
	"github.com/magabrotheeeer/cropyield/internal/services/auth"
)

// Deps — зависимости, которые нужны маршрутам.
type Deps struct {
	Auth         *auth.AuthService
	Advisor      *advisor.Service
	DB           health.Pinger
	Gatherer     prometheus.Gatherer
	LoginLimiter *rate.Limiter
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, deps.Auth).ServeHTTP)
		r.With(middlewarectx.RateLimitMiddleware(logger, deps.LoginLimiter)).
			Post("/login", login.New(logger, deps.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Auth, logger))
			r.Post("/predictions", predict.New(logger, deps.Advisor).ServeHTTP)
			r.Get("/recommendations", latest.New(logger, deps.Advisor).ServeHTTP)
			r.Post("/recommendations", derive.New(logger, deps.Advisor).ServeHTTP)
			r.Post("/logout", logout.New(logger, deps.Advisor).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, deps.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

// NewRouter создаёт chi-роутер со всеми маршрутами.
func NewRouter(logger *slog.Logger, deps Deps) http.Handler {
	router := chi.NewRouter()
	RegisterRoutes(router, logger, deps)
	return router
}
