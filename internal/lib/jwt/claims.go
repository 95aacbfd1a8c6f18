// Package jwt реализует выпуск и проверку JWT токенов сессии пользователя.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для выпуска и разбора токенов.
type Maker interface {
	GenerateToken(username string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HS256 общим секретом.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	issuer    string
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа, TTL и издателя.
func NewJWTMaker(secretKey string, ttl time.Duration, issuer string) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		issuer:    issuer,
	}
}
