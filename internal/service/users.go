package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kris-gadara/Taskly/internal/models"
	"github.com/Kris-gadara/Taskly/internal/pkg/log"
	"github.com/Kris-gadara/Taskly/internal/pkg/redact"
	"github.com/Kris-gadara/Taskly/internal/storage"
)

// UserByID возвращает пользователя по идентификатору (для /auth/me).
func (s *Service) UserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const op = "service/users/UserByID"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateProfile меняет имя/email пользователя и обновляет last_active.
// Коллизия email с другим пользователем — ErrEmailTaken.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, name, email string) (*models.User, error) {
	const op = "service/users/UpdateProfile"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	user, err := s.storage.UpdateProfile(ctx, userID, name, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("profile_updated",
		slog.String("user_id", userID.String()),
		slog.String("email", redact.Email(normEmail)),
	)

	return user, nil
}

// UserStats возвращает снимок статистики пользователя.
// Побочный эффект: обновляет last_active — чтение статистики фиксирует присутствие.
func (s *Service) UserStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	const op = "service/users/UserStats"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	// В ответе — только реально сохранённая отметка присутствия.
	lastActive := user.LastActive
	if err := s.storage.TouchLastActive(ctx, userID); err != nil {
		// Потеря отметки присутствия не должна ломать выдачу статистики.
		log.From(ctx).Warn("touch_last_active_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	} else {
		lastActive = now
	}

	return &models.UserStats{
		Completed:  user.Stats[models.StatCompleted],
		Pending:    user.Stats[models.StatPending],
		LastActive: lastActive,
		JoinedDays: int64(now.Sub(user.JoinedAt).Hours() / 24),
	}, nil
}
