package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Kris-gadara/Taskly/internal/errors"
	"github.com/Kris-gadara/Taskly/internal/models"
	"github.com/Kris-gadara/Taskly/internal/service"
	"github.com/Kris-gadara/Taskly/internal/transport/http/middleware"
)

// CreateTask — POST /tasks. Владелец берётся из токена, не из тела.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in createTaskRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	due := time.Time{}
	if in.DueDate != nil {
		due = *in.DueDate
	}

	task, err := h.Service.CreateTask(r.Context(), claims.UserID, service.CreateTaskInput{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     due,
		Tags:        in.Tags,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, taskFromModel(task))
}

// ListTasks — GET /tasks. Только задачи аутентифицированного пользователя.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	items, err := h.Service.ListTasks(r.Context(), claims.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]taskResponse, 0, len(items))
	for i := range items {
		out = append(out, taskFromModel(&items[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

// GetTask — GET /tasks/{id}.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	task, err := h.Service.TaskByID(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, taskFromModel(task))
}

// UpdateTask — PUT /tasks/{id}.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in updateTaskRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	task, err := h.Service.UpdateTask(r.Context(), claims.UserID, chi.URLParam(r, "id"), service.UpdateTaskInput{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Progress:    in.Progress,
		Tags:        in.Tags,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, taskFromModel(task))
}

// CompleteTask — POST /tasks/{id}/complete.
func (h *Handlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	task, err := h.Service.CompleteTask(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, taskFromModel(task))
}

// DeleteTask — DELETE /tasks/{id}.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.Service.DeleteTask(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TaskActivity — GET /tasks/{id}/activity.
func (h *Handlers) TaskActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	items, err := h.Service.TaskActivity(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, activityListFromModels(items))
}

// UserActivity — GET /activity.
func (h *Handlers) UserActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	items, err := h.Service.UserActivity(r.Context(), claims.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, activityListFromModels(items))
}

func activityListFromModels(items []models.ActivityLog) []activityResponse {
	out := make([]activityResponse, 0, len(items))
	for i := range items {
		out = append(out, activityFromModel(&items[i]))
	}
	return out
}
