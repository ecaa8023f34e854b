package models

import (
	"time"

	"github.com/google/uuid"
)

// Действия, фиксируемые в журнале активности.
const (
	ActivityTaskCreated   = "task_created"
	ActivityTaskUpdated   = "task_updated"
	ActivityTaskCompleted = "task_completed"
	ActivityTaskDeleted   = "task_deleted"
)

// ActivityLog — запись журнала действий над задачами
// (MongoDB, коллекция activity_logs).
//   - ID — ObjectID MongoDB, наружу конвертируется в string;
//   - Changes — карта «поле -> новое значение» для операций обновления.
type ActivityLog struct {
	ID        string         `bson:"-"`
	UserID    uuid.UUID      `bson:"user_id"`
	TaskID    string         `bson:"task_id"`
	Action    string         `bson:"action"`
	Details   string         `bson:"details"`
	Changes   map[string]any `bson:"changes,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}
