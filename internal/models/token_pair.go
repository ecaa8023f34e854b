package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenPair — пара токенов, выдаваемая при аутентификации/регистрации.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — случайный секрет, который клиент хранит и предъявляет
//     для выпуска нового access-токена; на сервере хранится только его хэш;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}

// AccessToken — одиночный access-токен (результат обмена refresh-токена).
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenClaims — данные, извлечённые из валидного access-токена.
// Ровно то, что кладётся в claims при выпуске: идентификатор,
// отображаемое имя, email и роль владельца.
type TokenClaims struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   string
}
