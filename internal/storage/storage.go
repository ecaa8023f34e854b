// Package storage задаёт контракт работы с БД для taskly-api.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Kris-gadara/Taskly/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/токен/задача).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/refresh-token).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	// При конфликте по email — ErrAlreadyExists.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UpdateProfile меняет имя/email и обновляет last_active одним $set.
	// Возвращает обновлённого пользователя. При конфликте email — ErrAlreadyExists.
	UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*models.User, error)
	// UpdatePassword заменяет bcrypt-хэш пароля и обновляет last_active.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// TouchLastActive обновляет отметку присутствия пользователя.
	TouchLastActive(ctx context.Context, id uuid.UUID) error
	// BumpStats атомарно инкрементирует счётчики stats ($inc); дельты могут
	// быть отрицательными.
	BumpStats(ctx context.Context, id uuid.UUID, deltas map[string]int64) error
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-токен.
	// При коллизии хэша — ErrAlreadyExists.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByHash находит refresh-токен по его хэшу.
	RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	// RevokeAllByUser отзывает все живые токены пользователя одним bulk-обновлением.
	// Возвращает количество отозванных токенов.
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// DeleteExpiredTokens удаляет все просроченные токены.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// TaskStorage выполняет операции над задачами.
// Выборка по id намеренно не фильтрует по владельцу: сервисный слой сам
// различает «нет такой задачи» и «чужая задача».
type TaskStorage interface {
	// SaveTask создаёт задачу и возвращает её с заполненным ID.
	SaveTask(ctx context.Context, task *models.Task) (*models.Task, error)
	// TaskByID возвращает задачу по идентификатору. Если записи нет — ErrNotFound.
	TaskByID(ctx context.Context, id string) (*models.Task, error)
	// TasksByOwner возвращает задачи пользователя, новые первыми.
	TasksByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error)
	// UpdateTask применяет точечный $set по ненулевым полям TaskUpdate
	// и возвращает обновлённую задачу. Если записи нет — ErrNotFound.
	UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*models.Task, error)
	// DeleteTask удаляет задачу. Если записи нет — ErrNotFound.
	DeleteTask(ctx context.Context, id string) error
}

// ActivityStorage выполняет операции над журналом активности.
type ActivityStorage interface {
	// SaveActivity добавляет запись журнала.
	SaveActivity(ctx context.Context, log *models.ActivityLog) error
	// ActivityByUser возвращает записи пользователя, новые первыми.
	ActivityByUser(ctx context.Context, userID uuid.UUID) ([]models.ActivityLog, error)
	// ActivityByTask возвращает записи по задаче, новые первыми.
	ActivityByTask(ctx context.Context, taskID string) ([]models.ActivityLog, error)
}

// TaskUpdate — частичное обновление задачи; nil-поле означает «не трогать».
// ClearCompletedAt удаляет отметку завершения из документа ($unset) при
// возврате задачи из completed; несовместим с ненулевым CompletedAt.
type TaskUpdate struct {
	Title            *string
	Description      *string
	Status           *string
	Priority         *string
	DueDate          *time.Time
	Progress         *int32
	Tags             []string
	IsCompleted      *bool
	CompletedAt      *time.Time
	ClearCompletedAt bool
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	TaskStorage
	ActivityStorage
	Close(ctx context.Context) error
}
