package cropyield

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/cropyield/internal/cache"
	"github.com/magabrotheeeer/cropyield/internal/config"
	"github.com/magabrotheeeer/cropyield/internal/estimator"
	"github.com/magabrotheeeer/cropyield/internal/events"
	"github.com/magabrotheeeer/cropyield/internal/lib/jwt"
	"github.com/magabrotheeeer/cropyield/internal/lib/password"
	"github.com/magabrotheeeer/cropyield/internal/lib/sl"
	"github.com/magabrotheeeer/cropyield/internal/metrics"
	"github.com/magabrotheeeer/cropyield/internal/services/advisor"
	"github.com/magabrotheeeer/cropyield/internal/services/auth"
	"github.com/magabrotheeeer/cropyield/internal/services/credentials"
	"github.com/magabrotheeeer/cropyield/internal/storage"
)

// ErrNoJWTSecret — в конфиге не задан секрет для подписи токенов.
var ErrNoJWTSecret = errors.New("jwt secret key is not set")

// App — HTTP-сервер со всеми зависимостями.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []func() error
}

// New поднимает хранилище, сессии, модель и брокер по конфигу и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.cropyield.New"
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoJWTSecret)
	}

	app := &App{logger: logger}
	fail := func(err error) (*App, error) {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := storage.New(ctx, cfg.Storage.Driver, cfg.Storage.ConnectionString)
	if err != nil {
		return fail(err)
	}
	app.closers = append(app.closers, db.Close)

	hasher, err := password.New(cfg.Password.Hasher)
	if err != nil {
		return fail(err)
	}
	store, err := credentials.New(db, hasher)
	if err != nil {
		return fail(err)
	}
	if err := store.Init(ctx); err != nil {
		return fail(err)
	}

	var sessions advisor.SessionStore
	if cfg.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return fail(err)
		}
		app.closers = append(app.closers, redisCache.Close)
		sessions = cache.NewRedisSessions(redisCache, cfg.SessionTTL)
	} else {
		logger.Warn("redis address is empty, sessions are kept in memory")
		sessions = cache.NewMemorySessions(cfg.SessionTTL)
	}

	var est estimator.Estimator = estimator.Unavailable{}
	if cfg.Model.Path != "" {
		ens, err := estimator.LoadTreeEnsemble(cfg.Model.Path, cfg.Model.BaseScore)
		if err != nil {
			return fail(err)
		}
		logger.Info("yield model loaded", slog.String("path", cfg.Model.Path), slog.Int("trees", ens.Trees()))
		est = ens
	} else {
		logger.Warn("model path is empty, predictions are disabled")
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQ.URL != "" {
		rp, err := events.DialRabbitPublisher(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			return fail(err)
		}
		app.closers = append(app.closers, rp.Close)
		publisher = rp
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL, cfg.Issuer)
	authService := auth.NewAuthService(logger, store, jwtMaker, publisher, m)
	advisorService := advisor.New(logger, est, sessions, publisher, m)

	router := NewRouter(logger, Deps{
		Auth:         authService,
		Advisor:      advisorService,
		DB:           db,
		Gatherer:     reg,
		LoginLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

// close освобождает ресурсы в обратном порядке.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
