package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kris-gadara/Taskly/internal/models"
	"github.com/Kris-gadara/Taskly/internal/storage"
)

// taskDoc — представление задачи в коллекции: _id живёт как ObjectID,
// наружу отдаётся hex-строкой в models.Task.ID.
type taskDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      uuid.UUID          `bson:"user_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	DueDate     time.Time          `bson:"due_date"`
	Progress    int32              `bson:"progress"`
	Tags        []string           `bson:"tags"`
	IsCompleted bool               `bson:"is_completed"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *taskDoc) toModel() *models.Task {
	t := &models.Task{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
		DueDate:     d.DueDate.UTC(),
		Progress:    d.Progress,
		Tags:        d.Tags,
		IsCompleted: d.IsCompleted,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}

	if d.CompletedAt != nil {
		ca := d.CompletedAt.UTC()
		t.CompletedAt = &ca
	}

	return t
}

// SaveTask создаёт задачу и возвращает её с заполненным ID.
func (m *Mongo) SaveTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	const op = "storage/mongo/SaveTask"

	now := toMS(time.Now())

	doc := taskDoc{
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     toMS(task.DueDate),
		Progress:    task.Progress,
		Tags:        task.Tags,
		IsCompleted: task.IsCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := m.tasks.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	doc.ID = oid
	return doc.toModel(), nil
}

// TaskByID возвращает задачу по идентификатору.
// Некорректный формат id трактуется как «нет такой записи».
func (m *Mongo) TaskByID(ctx context.Context, id string) (*models.Task, error) {
	const op = "storage/mongo/TaskByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc taskDoc
	if err := m.tasks.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// TasksByOwner возвращает задачи пользователя, новые первыми.
func (m *Mongo) TasksByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error) {
	const op = "storage/mongo/TasksByOwner"

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := m.tasks.Find(ctx, bson.D{{Key: "user_id", Value: ownerID}}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Task
	for cur.Next(ctx) {
		var doc taskDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, *doc.toModel())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// UpdateTask применяет точечный $set по заполненным полям TaskUpdate
// и возвращает обновлённую задачу.
func (m *Mongo) UpdateTask(ctx context.Context, id string, upd storage.TaskUpdate) (*models.Task, error) {
	const op = "storage/mongo/UpdateTask"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	set := bson.D{{Key: "updated_at", Value: toMS(time.Now())}}

	if upd.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *upd.Title})
	}
	if upd.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *upd.Description})
	}
	if upd.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *upd.Status})
	}
	if upd.Priority != nil {
		set = append(set, bson.E{Key: "priority", Value: *upd.Priority})
	}
	if upd.DueDate != nil {
		set = append(set, bson.E{Key: "due_date", Value: toMS(*upd.DueDate)})
	}
	if upd.Progress != nil {
		set = append(set, bson.E{Key: "progress", Value: *upd.Progress})
	}
	if upd.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: upd.Tags})
	}
	if upd.IsCompleted != nil {
		set = append(set, bson.E{Key: "is_completed", Value: *upd.IsCompleted})
	}
	if upd.CompletedAt != nil {
		set = append(set, bson.E{Key: "completed_at", Value: toMS(*upd.CompletedAt)})
	}

	update := bson.D{{Key: "$set", Value: set}}
	if upd.ClearCompletedAt {
		update = append(update, bson.E{
			Key:   "$unset",
			Value: bson.D{{Key: "completed_at", Value: ""}},
		})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDoc
	err = m.tasks.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}},
		update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// DeleteTask удаляет задачу. Если записи нет — storage.ErrNotFound.
func (m *Mongo) DeleteTask(ctx context.Context, id string) error {
	const op = "storage/mongo/DeleteTask"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := m.tasks.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
