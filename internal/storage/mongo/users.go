package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kris-gadara/Taskly/internal/models"
	"github.com/Kris-gadara/Taskly/internal/storage"
)

// SaveUser создаёт пользователя. Конфликт по уникальному индексу email
// транслируется в storage.ErrAlreadyExists.
func (m *Mongo) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage/mongo/SaveUser"

	doc := *user
	doc.JoinedAt = toMS(doc.JoinedAt)
	doc.LastActive = toMS(doc.LastActive)
	if doc.Stats == nil {
		doc.Stats = map[string]int64{
			models.StatCompleted: 0,
			models.StatPending:   0,
		}
	}

	if _, err := m.users.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

// UserByEmail возвращает пользователя по email. Если записи нет — storage.ErrNotFound.
func (m *Mongo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage/mongo/UserByEmail"

	return m.findUser(ctx, op, bson.D{{Key: "email", Value: email}})
}

// UserByID возвращает пользователя по идентификатору. Если записи нет — storage.ErrNotFound.
func (m *Mongo) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage/mongo/UserByID"

	return m.findUser(ctx, op, bson.D{{Key: "_id", Value: id}})
}

func (m *Mongo) findUser(ctx context.Context, op string, filter bson.D) (*models.User, error) {
	var out models.User
	if err := m.users.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Нормализация временных полей.
	out.JoinedAt = out.JoinedAt.UTC()
	out.LastActive = out.LastActive.UTC()

	return &out, nil
}

// UpdateProfile меняет имя/email одним $set и возвращает обновлённого пользователя.
// Конфликт email по уникальному индексу — storage.ErrAlreadyExists.
func (m *Mongo) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*models.User, error) {
	const op = "storage/mongo/UpdateProfile"

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: name},
		{Key: "email", Value: email},
		{Key: "last_active", Value: toMS(time.Now())},
	}}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.User
	err := m.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out.JoinedAt = out.JoinedAt.UTC()
	out.LastActive = out.LastActive.UTC()

	return &out, nil
}

// UpdatePassword заменяет bcrypt-хэш и обновляет last_active.
func (m *Mongo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const op = "storage/mongo/UpdatePassword"

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "last_active", Value: toMS(time.Now())},
	}}}

	res, err := m.users.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// TouchLastActive обновляет отметку присутствия пользователя.
func (m *Mongo) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	const op = "storage/mongo/TouchLastActive"

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "last_active", Value: toMS(time.Now())},
	}}}

	res, err := m.users.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// BumpStats атомарно меняет счётчики stats одним $inc — никакого
// read-then-write, чтобы не терять обновления под конкуренцией.
func (m *Mongo) BumpStats(ctx context.Context, id uuid.UUID, deltas map[string]int64) error {
	const op = "storage/mongo/BumpStats"

	if len(deltas) == 0 {
		return nil
	}

	inc := bson.D{}
	for k, v := range deltas {
		inc = append(inc, bson.E{Key: "stats." + k, Value: v})
	}

	res, err := m.users.UpdateByID(ctx, id, bson.D{{Key: "$inc", Value: inc}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
