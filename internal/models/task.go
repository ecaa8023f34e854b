package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы задач.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in-progress"
	TaskStatusCompleted  = "completed"
)

// Приоритеты задач.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Task — внутренняя доменная модель задачи (MongoDB, коллекция tasks).
// Важно:
//   - ID — ObjectID MongoDB. Наружу/вовнутрь конвертируется в string;
//   - UserID — UUID владельца; каждая операция над задачей сверяет его
//     с аутентифицированным пользователем из контекста запроса;
//   - Progress — процент выполнения в диапазоне [0..100];
//   - CompletedAt заполняется один раз при переходе в completed.
type Task struct {
	ID          string     `bson:"-"`
	UserID      uuid.UUID  `bson:"user_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Status      string     `bson:"status"`
	Priority    string     `bson:"priority"`
	DueDate     time.Time  `bson:"due_date"`
	Progress    int32      `bson:"progress"`
	Tags        []string   `bson:"tags"`
	IsCompleted bool       `bson:"is_completed"`
	CompletedAt *time.Time `bson:"completed_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

// ValidTaskStatus проверяет, что строка — один из известных статусов.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// ValidTaskPriority проверяет, что строка — один из известных приоритетов.
func ValidTaskPriority(p string) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}
