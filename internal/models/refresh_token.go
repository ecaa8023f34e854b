package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — данные refresh-токена для управления сессиями
// (MongoDB, коллекция refresh_tokens).
// Важно:
//   - TokenHash — SHA-256 от открытого значения; сам токен хранит только клиент;
//   - несколько живых токенов на пользователя допустимы (мульти-девайс);
//   - Revoked выставляется при logout-all и смене пароля одним bulk-обновлением.
type RefreshToken struct {
	TokenHash string    `bson:"token_hash"`
	UserID    uuid.UUID `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
	Revoked   bool      `bson:"revoked"`
}

// Active сообщает, пригоден ли токен к обмену на access-токен в момент now.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
