package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kris-gadara/Taskly/internal/models"
)

// activityDoc — представление записи журнала в коллекции.
type activityDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    uuid.UUID          `bson:"user_id"`
	TaskID    string             `bson:"task_id"`
	Action    string             `bson:"action"`
	Details   string             `bson:"details"`
	Changes   map[string]any     `bson:"changes,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *activityDoc) toModel() models.ActivityLog {
	return models.ActivityLog{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		TaskID:    d.TaskID,
		Action:    d.Action,
		Details:   d.Details,
		Changes:   d.Changes,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// SaveActivity добавляет запись журнала.
func (m *Mongo) SaveActivity(ctx context.Context, log *models.ActivityLog) error {
	const op = "storage/mongo/SaveActivity"

	doc := activityDoc{
		UserID:    log.UserID,
		TaskID:    log.TaskID,
		Action:    log.Action,
		Details:   log.Details,
		Changes:   log.Changes,
		CreatedAt: toMS(time.Now()),
	}

	res, err := m.activity.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("%s: insert: %w", op, err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		log.ID = oid.Hex()
		log.CreatedAt = doc.CreatedAt
	}

	return nil
}

// ActivityByUser возвращает записи журнала пользователя, новые первыми.
func (m *Mongo) ActivityByUser(ctx context.Context, userID uuid.UUID) ([]models.ActivityLog, error) {
	const op = "storage/mongo/ActivityByUser"

	return m.findActivity(ctx, op, bson.D{{Key: "user_id", Value: userID}})
}

// ActivityByTask возвращает записи журнала по задаче, новые первыми.
func (m *Mongo) ActivityByTask(ctx context.Context, taskID string) ([]models.ActivityLog, error) {
	const op = "storage/mongo/ActivityByTask"

	return m.findActivity(ctx, op, bson.D{{Key: "task_id", Value: taskID}})
}

func (m *Mongo) findActivity(ctx context.Context, op string, filter bson.D) ([]models.ActivityLog, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := m.activity.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.ActivityLog
	for cur.Next(ctx) {
		var doc activityDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, doc.toModel())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}
