package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/cropyield/internal/models"
)

// CreateUsersTable создаёт таблицу users, если её ещё нет.
// Вызов идемпотентен и не трогает существующие строки.
func (s *Storage) CreateUsersTable(ctx context.Context) error {
	const op = "storage.CreateUsersTable"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx, s.dialect.createUsers); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// InsertUser сохраняет пользователя одним INSERT. Повторное имя отклоняется
// ограничением первичного ключа и возвращается как ErrUserExists.
func (s *Storage) InsertUser(ctx context.Context, user models.User) error {
	const op = "storage.InsertUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx, s.dialect.insertUser, user.Username, user.PasswordHash, user.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPasswordHash возвращает сохранённый хеш пароля пользователя.
func (s *Storage) GetPasswordHash(ctx context.Context, username string) (string, error) {
	const op = "storage.GetPasswordHash"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var hash string
	err := s.DB.QueryRowContext(ctx, s.dialect.selectHash, username).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hash, nil
}
