package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/Kris-gadara/Taskly/internal/models"
	"github.com/Kris-gadara/Taskly/internal/storage"
)

// SaveRefreshToken сохраняет новый refresh-токен.
// Коллизия хэша по уникальному индексу — storage.ErrAlreadyExists.
func (m *Mongo) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage/mongo/SaveRefreshToken"

	doc := *token
	doc.CreatedAt = toMS(doc.CreatedAt)
	doc.ExpiresAt = toMS(doc.ExpiresAt)

	if _, err := m.tokens.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

// RefreshTokenByHash возвращает refresh-токен по его хэшу.
// Если записи нет — storage.ErrNotFound.
func (m *Mongo) RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	const op = "storage/mongo/RefreshTokenByHash"

	var out models.RefreshToken
	if err := m.tokens.FindOne(ctx, bson.D{{Key: "token_hash", Value: hash}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out.CreatedAt = out.CreatedAt.UTC()
	out.ExpiresAt = out.ExpiresAt.UTC()

	return &out, nil
}

// RevokeAllByUser отзывает все живые токены пользователя одним условным
// UpdateMany — одна атомарная точка сериализации вместо read-then-write цикла.
func (m *Mongo) RevokeAllByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "storage/mongo/RevokeAllByUser"

	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "revoked", Value: false},
	}

	update := bson.D{{Key: "$set", Value: bson.D{{Key: "revoked", Value: true}}}}

	res, err := m.tokens.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return res.ModifiedCount, nil
}

// DeleteExpiredTokens удаляет просроченные токены (фоновая чистка).
func (m *Mongo) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	const op = "storage/mongo/DeleteExpiredTokens"

	filter := bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: toMS(now)}}}}

	if _, err := m.tokens.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
