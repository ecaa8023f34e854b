// Package models содержит доменные сущности taskly-api.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей. Новые учётные записи получают RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Ключи счётчиков в User.Stats.
const (
	StatCompleted = "completed"
	StatPending   = "pending"
)

// User — модель пользователя в системе (MongoDB, коллекция users).
// Важно:
//   - ID — UUID, задаётся сервисом при регистрации (не ObjectID);
//   - Email уникален на уровне индекса коллекции;
//   - PasswordHash — bcrypt-хэш, открытый пароль нигде не хранится;
//   - Stats — счётчики задач пользователя (completed/pending), поддерживаются
//     атомарными $inc при изменении статусов задач;
//   - Пользователи не удаляются физически.
type User struct {
	ID           uuid.UUID        `bson:"_id"`
	Name         string           `bson:"name"`
	Email        string           `bson:"email"`
	PasswordHash string           `bson:"password_hash"`
	Role         string           `bson:"role"`
	JoinedAt     time.Time        `bson:"joined_at"`
	LastActive   time.Time        `bson:"last_active"`
	Stats        map[string]int64 `bson:"stats"`
}

// UserStats — снимок статистики пользователя для выдачи наружу.
type UserStats struct {
	Completed  int64
	Pending    int64
	LastActive time.Time
	JoinedDays int64
}
