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
	"github.com/Kris-gadara/Taskly/internal/storage"
)

// Входные структуры сервисного слоя задач.

// CreateTaskInput — создание задачи. Владелец задаётся сервисом из
// аутентифицированного пользователя и не принимается от клиента.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     time.Time
	Tags        []string
}

// UpdateTaskInput — частичное обновление; nil-поле означает «не трогать».
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	Progress    *int32
	Tags        []string
}

// CreateTask создаёт задачу пользователя со статусом pending и фиксирует её
// в журнале активности и счётчиках stats.
func (s *Service) CreateTask(ctx context.Context, ownerID uuid.UUID, in CreateTaskInput) (*models.Task, error) {
	const op = "service/tasks/CreateTask"

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.Priority == "" {
		in.Priority = models.TaskPriorityMedium
	}
	if !models.ValidTaskPriority(in.Priority) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	task := &models.Task{
		UserID:      ownerID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Status:      models.TaskStatusPending,
		Priority:    in.Priority,
		DueDate:     in.DueDate.UTC(),
		Progress:    0,
		Tags:        in.Tags,
		IsCompleted: false,
	}

	created, err := s.storage.SaveTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.bumpStats(ctx, ownerID, map[string]int64{models.StatPending: 1})
	s.logActivity(ctx, ownerID, created.ID, models.ActivityTaskCreated, created.Title, nil)

	return created, nil
}

// TaskByID возвращает задачу владельца.
// Чужая задача — ErrOwnershipDenied (не ErrNotFound: ресурс существует).
func (s *Service) TaskByID(ctx context.Context, ownerID uuid.UUID, id string) (*models.Task, error) {
	const op = "service/tasks/TaskByID"

	task, err := s.ownedTask(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return task, nil
}

// ListTasks возвращает задачи пользователя, новые первыми.
func (s *Service) ListTasks(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error) {
	const op = "service/tasks/ListTasks"

	items, err := s.storage.TasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// UpdateTask применяет частичное обновление к задаче владельца.
// Переход в completed выставляет is_completed/completed_at и переносит
// счётчики stats; обратный переход снимает completed_at, сбрасывает прогресс
// и возвращает задачу в pending-счётчик.
func (s *Service) UpdateTask(ctx context.Context, ownerID uuid.UUID, id string, in UpdateTaskInput) (*models.Task, error) {
	const op = "service/tasks/UpdateTask"

	current, err := s.ownedTask(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	upd := storage.TaskUpdate{
		DueDate: in.DueDate,
		Tags:    in.Tags,
	}
	changes := map[string]any{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		upd.Title = &title
		changes["title"] = title
	}

	if in.Description != nil {
		upd.Description = in.Description
		changes["description"] = *in.Description
	}

	if in.Priority != nil {
		if !models.ValidTaskPriority(*in.Priority) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		upd.Priority = in.Priority
		changes["priority"] = *in.Priority
	}

	if in.Progress != nil {
		if *in.Progress < 0 || *in.Progress > 100 {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		upd.Progress = in.Progress
		changes["progress"] = *in.Progress
	}

	if in.DueDate != nil {
		changes["due_date"] = in.DueDate.UTC()
	}

	if in.Tags != nil {
		changes["tags"] = in.Tags
	}

	if in.Status != nil {
		if !models.ValidTaskStatus(*in.Status) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		upd.Status = in.Status
		changes["status"] = *in.Status

		completed := *in.Status == models.TaskStatusCompleted
		upd.IsCompleted = &completed

		switch {
		case completed && !current.IsCompleted:
			now := time.Now().UTC()
			upd.CompletedAt = &now
			full := int32(100)
			upd.Progress = &full
		case !completed && current.IsCompleted:
			// Возврат из completed: отметка завершения снимается, прогресс
			// сбрасывается, если клиент не прислал своё значение.
			upd.ClearCompletedAt = true
			if in.Progress == nil {
				zero := int32(0)
				upd.Progress = &zero
			}
		}
	}

	task, err := s.storage.UpdateTask(ctx, id, upd)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if deltas := statDeltas(current.IsCompleted, task.IsCompleted); deltas != nil {
		s.bumpStats(ctx, ownerID, deltas)
	}

	s.logActivity(ctx, ownerID, task.ID, models.ActivityTaskUpdated, task.Title, changes)

	return task, nil
}

// CompleteTask переводит задачу владельца в completed.
func (s *Service) CompleteTask(ctx context.Context, ownerID uuid.UUID, id string) (*models.Task, error) {
	const op = "service/tasks/CompleteTask"

	current, err := s.ownedTask(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if current.IsCompleted {
		return current, nil
	}

	now := time.Now().UTC()
	status := models.TaskStatusCompleted
	completed := true
	full := int32(100)

	task, err := s.storage.UpdateTask(ctx, id, storage.TaskUpdate{
		Status:      &status,
		IsCompleted: &completed,
		CompletedAt: &now,
		Progress:    &full,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.bumpStats(ctx, ownerID, map[string]int64{
		models.StatPending:   -1,
		models.StatCompleted: 1,
	})
	s.logActivity(ctx, ownerID, task.ID, models.ActivityTaskCompleted, task.Title, nil)

	return task, nil
}

// DeleteTask удаляет задачу владельца.
func (s *Service) DeleteTask(ctx context.Context, ownerID uuid.UUID, id string) error {
	const op = "service/tasks/DeleteTask"

	current, err := s.ownedTask(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if current.IsCompleted {
		s.bumpStats(ctx, ownerID, map[string]int64{models.StatCompleted: -1})
	} else {
		s.bumpStats(ctx, ownerID, map[string]int64{models.StatPending: -1})
	}

	s.logActivity(ctx, ownerID, id, models.ActivityTaskDeleted, current.Title, nil)

	return nil
}

// UserActivity возвращает журнал действий пользователя, новые первыми.
func (s *Service) UserActivity(ctx context.Context, userID uuid.UUID) ([]models.ActivityLog, error) {
	const op = "service/tasks/UserActivity"

	items, err := s.storage.ActivityByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// TaskActivity возвращает журнал действий по задаче владельца.
func (s *Service) TaskActivity(ctx context.Context, ownerID uuid.UUID, taskID string) ([]models.ActivityLog, error) {
	const op = "service/tasks/TaskActivity"

	if _, err := s.ownedTask(ctx, ownerID, taskID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := s.storage.ActivityByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// ownedTask достаёт задачу и сверяет владельца с аутентифицированным
// пользователем: «нет записи» и «чужая запись» — разные исходы.
func (s *Service) ownedTask(ctx context.Context, ownerID uuid.UUID, id string) (*models.Task, error) {
	task, err := s.storage.TaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	if task.UserID != ownerID {
		log.From(ctx).Warn("ownership_denied",
			slog.String("task_id", id),
			slog.String("user_id", ownerID.String()),
		)
		return nil, ErrOwnershipDenied
	}

	return task, nil
}

// statDeltas — перенос счётчиков при смене признака завершённости.
func statDeltas(was, now bool) map[string]int64 {
	switch {
	case !was && now:
		return map[string]int64{models.StatPending: -1, models.StatCompleted: 1}
	case was && !now:
		return map[string]int64{models.StatPending: 1, models.StatCompleted: -1}
	default:
		return nil
	}
}

// bumpStats — обновление счётчиков stats; сбой не фатален для операции.
func (s *Service) bumpStats(ctx context.Context, userID uuid.UUID, deltas map[string]int64) {
	if err := s.storage.BumpStats(ctx, userID, deltas); err != nil {
		log.From(ctx).Warn("bump_stats_failed",
			slog.String("user_id", userID.String()),
			slog.String("err", err.Error()),
		)
	}
}

// logActivity — запись в журнал активности; сбой не фатален для операции.
func (s *Service) logActivity(ctx context.Context, userID uuid.UUID, taskID, action, details string, changes map[string]any) {
	entry := &models.ActivityLog{
		UserID:  userID,
		TaskID:  taskID,
		Action:  action,
		Details: details,
		Changes: changes,
	}

	if err := s.storage.SaveActivity(ctx, entry); err != nil {
		log.From(ctx).Warn("activity_log_failed",
			slog.String("task_id", taskID),
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
	}
}
