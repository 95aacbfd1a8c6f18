// Package models содержит доменные модели сервиса: пользователя,
// вектор агрономических признаков, прогноз урожайности и набор рекомендаций.
package models

// User представляет зарегистрированного пользователя.
type User struct {
	Username     string // Уникальное имя пользователя, первичный ключ
	PasswordHash string // Хеш пароля; открытый пароль не хранится
	Email        string // Электронная почта, без ограничения уникальности
}
