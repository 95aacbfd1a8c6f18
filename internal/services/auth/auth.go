// Package auth связывает хранилище учётных данных с выдачей JWT сессий.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/cropyield/internal/events"
	"github.com/magabrotheeeer/cropyield/internal/lib/jwt"
	"github.com/magabrotheeeer/cropyield/internal/lib/sl"
	"github.com/magabrotheeeer/cropyield/internal/metrics"
)

var (
	// ErrUserExists — имя пользователя уже занято.
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidCredentials — неизвестное имя или неверный пароль.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// CredentialStore описывает контракт хранилища учётных данных.
type CredentialStore interface {
	Register(ctx context.Context, username, rawPassword, email string) (bool, error)
	Authenticate(ctx context.Context, username, rawPassword string) (bool, error)
}

// AuthService отвечает за регистрацию, вход и проверку токенов.
type AuthService struct {
	log       *slog.Logger
	creds     CredentialStore
	jwtMaker  jwt.Maker
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(log *slog.Logger, creds CredentialStore, jwtMaker jwt.Maker, publisher events.Publisher, m *metrics.Metrics) *AuthService {
	return &AuthService{
		log:       log,
		creds:     creds,
		jwtMaker:  jwtMaker,
		publisher: publisher,
		metrics:   m,
	}
}

// Register создает пользователя. Занятое имя возвращает ErrUserExists.
func (s *AuthService) Register(ctx context.Context, username, rawPassword, email string) error {
	const op = "auth.Register"

	created, err := s.creds.Register(ctx, username, rawPassword, email)
	if err != nil {
		s.metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		s.metrics.Registrations.WithLabelValues(metrics.ResultDuplicate).Inc()
		return ErrUserExists
	}
	s.metrics.Registrations.WithLabelValues(metrics.ResultCreated).Inc()

	if err := s.publisher.Publish(ctx, events.NewUserRegistered(username, email)); err != nil {
		s.log.Warn("failed to publish event", slog.String("op", op), sl.Err(err))
	}
	return nil
}

// Login проверяет пароль и выпускает JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "auth.Login"

	ok, err := s.creds.Authenticate(ctx, username, rawPassword)
	if err != nil {
		s.metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		s.metrics.Logins.WithLabelValues(metrics.ResultFailure).Inc()
		return "", ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(username)
	if err != nil {
		s.metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.Logins.WithLabelValues(metrics.ResultSuccess).Inc()
	return token, nil
}

// ValidateToken проверяет JWT и возвращает имя пользователя.
func (s *AuthService) ValidateToken(_ context.Context, token string) (string, error) {
	const op = "auth.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return claims.Username, nil
}
