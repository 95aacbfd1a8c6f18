// Package credentials реализует хранилище учётных данных: регистрацию
// пользователей и проверку логина. Открытый пароль не сохраняется
// и не сравнивается напрямую, в базе лежит только его хеш.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/cropyield/internal/lib/password"
	"github.com/magabrotheeeer/cropyield/internal/models"
	"github.com/magabrotheeeer/cropyield/internal/storage"
)

// ErrStorageUnavailable оборачивает любые сбои слоя хранения.
// Дубликат имени и неверный пароль сюда не относятся.
var ErrStorageUnavailable = errors.New("credential storage unavailable")

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	// CreateUsersTable идемпотентно создаёт таблицу пользователей.
	CreateUsersTable(ctx context.Context) error
	// InsertUser сохраняет пользователя или возвращает storage.ErrUserExists.
	InsertUser(ctx context.Context, user models.User) error
	// GetPasswordHash возвращает хеш пароля или storage.ErrUserNotFound.
	GetPasswordHash(ctx context.Context, username string) (string, error)
}

// Store регистрирует и аутентифицирует пользователей.
type Store struct {
	users  UserRepository
	hasher password.Hasher
	// dummyHash сравнивается с паролем, когда пользователя нет,
	// чтобы время ответа не выдавало существование имени.
	dummyHash string
}

// New создаёт Store поверх репозитория и выбранного хешера.
func New(users UserRepository, hasher password.Hasher) (*Store, error) {
	const op = "credentials.New"
	dummy, err := hasher.Hash("cropyield-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{
		users:     users,
		hasher:    hasher,
		dummyHash: dummy,
	}, nil
}

// Init готовит таблицу пользователей. Безопасен при повторных вызовах.
func (s *Store) Init(ctx context.Context) error {
	const op = "credentials.Init"
	if err := s.users.CreateUsersTable(ctx); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return nil
}

// Register сохраняет пользователя с хешем пароля.
//
// Возвращает true, если запись создана, и false без ошибки, если имя уже занято.
// Существующая запись при этом не меняется. Сбой хранилища возвращается
// ошибкой, совместимой с ErrStorageUnavailable.
func (s *Store) Register(ctx context.Context, username, rawPassword, email string) (bool, error) {
	const op = "credentials.Register"

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	err = s.users.InsertUser(ctx, models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return true, nil
}

// Authenticate проверяет пару имя/пароль.
//
// Отсутствующий пользователь и неверный пароль неразличимы: оба дают false
// без ошибки.
func (s *Store) Authenticate(ctx context.Context, username, rawPassword string) (bool, error) {
	const op = "credentials.Authenticate"

	hash, err := s.users.GetPasswordHash(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.hasher.Compare(s.dummyHash, rawPassword)
			return false, nil
		}
		return false, fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return s.hasher.Compare(hash, rawPassword), nil
}
