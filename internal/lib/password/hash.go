// Package password реализует хеширование и проверку паролей.
//
// По умолчанию используется несолёный SHA-256 в виде hex-строки в нижнем
// регистре: это формат уже существующих записей в таблице users.
// Bcrypt включается через конфиг (password.hasher: bcrypt) и хранит соль
// внутри самой строки хеша, поэтому схема таблицы не меняется.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// SHA256 — имя хешера с несолёным SHA-256.
	SHA256 = "sha256"
	// Bcrypt — имя хешера на bcrypt.
	Bcrypt = "bcrypt"
)

// ErrUnknownHasher возвращается, если в конфиге указан неизвестный алгоритм.
var ErrUnknownHasher = errors.New("unknown password hasher")

// Hasher описывает алгоритм хеширования паролей.
type Hasher interface {
	// Hash возвращает хеш пароля для хранения в базе.
	Hash(password string) (string, error)
	// Compare проверяет, что пароль соответствует сохранённому хешу.
	Compare(hash, password string) bool
}

// Digest возвращает SHA-256 от UTF-8 байтов пароля в виде hex-строки.
// Результат детерминирован: одинаковый пароль даёт одинаковый digest
// в любом процессе.
func Digest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// SHA256Hasher — несолёный SHA-256.
type SHA256Hasher struct{}

// Hash возвращает Digest(password).
func (SHA256Hasher) Hash(password string) (string, error) {
	return Digest(password), nil
}

// Compare сравнивает digest за постоянное время.
func (SHA256Hasher) Compare(hash, password string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(Digest(password))) == 1
}

// BcryptHasher — bcrypt с заданной стоимостью.
type BcryptHasher struct {
	Cost int
}

// Hash создаёт bcrypt-хеш пароля.
func (h BcryptHasher) Hash(password string) (string, error) {
	const op = "password.BcryptHasher.Hash"
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Compare сверяет пароль с bcrypt-хешем.
func (BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// New возвращает хешер по имени из конфига. Пустое имя означает SHA256.
func New(name string) (Hasher, error) {
	switch name {
	case "", SHA256:
		return SHA256Hasher{}, nil
	case Bcrypt:
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
	}
}
