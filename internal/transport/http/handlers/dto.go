package handlers

import (
	"time"

	"github.com/Kris-gadara/Taskly/internal/models"
)

// DTO внешнего контракта. Имена полей — camelCase, как их ждёт SPA-клиент.

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	JoinedDate time.Time `json:"joinedDate"`
}

type authResponse struct {
	User         userResponse `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type statsResponse struct {
	TasksCompleted int64     `json:"tasksCompleted"`
	TasksPending   int64     `json:"tasksPending"`
	LastActive     time.Time `json:"lastActive"`
	JoinedDays     int64     `json:"joinedDays"`
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Progress    *int32     `json:"progress"`
	Tags        []string   `json:"tags"`
}

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     time.Time  `json:"dueDate"`
	Progress    int32      `json:"progress"`
	Tags        []string   `json:"tags"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type activityResponse struct {
	ID        string         `json:"id"`
	TaskID    string         `json:"taskId"`
	Action    string         `json:"action"`
	Details   string         `json:"details"`
	Changes   map[string]any `json:"changes,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func userFromModel(u *models.User) userResponse {
	return userResponse{
		ID:         u.ID.String(),
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		JoinedDate: u.JoinedAt,
	}
}

func taskFromModel(t *models.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Progress:    t.Progress,
		Tags:        t.Tags,
		IsCompleted: t.IsCompleted,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func activityFromModel(a *models.ActivityLog) activityResponse {
	return activityResponse{
		ID:        a.ID,
		TaskID:    a.TaskID,
		Action:    a.Action,
		Details:   a.Details,
		Changes:   a.Changes,
		Timestamp: a.CreatedAt,
	}
}
