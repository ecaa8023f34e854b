// Package http собирает REST-роутер taskly-api.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kris-gadara/Taskly/internal/service"
	"github.com/Kris-gadara/Taskly/internal/transport/http/handlers"
	"github.com/Kris-gadara/Taskly/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),            // prometheus-счётчики запросов
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Зависимости хендлеров.
	h := handlers.New(svc)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc *service.Service) {
	// auth: публичные роуты.
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)

	// Всё остальное — только с валидным access-токеном.
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.Authn(svc))

		pr.Get("/auth/me", h.Me)
		pr.Put("/auth/profile", h.UpdateProfile)
		pr.Put("/auth/password", h.ChangePassword)
		pr.Post("/auth/logout", h.Logout)
		pr.Get("/auth/stats", h.Stats)

		pr.Get("/tasks", h.ListTasks)
		pr.Post("/tasks", h.CreateTask)
		pr.Get("/tasks/{id}", h.GetTask)
		pr.Put("/tasks/{id}", h.UpdateTask)
		pr.Delete("/tasks/{id}", h.DeleteTask)
		pr.Post("/tasks/{id}/complete", h.CompleteTask)
		pr.Get("/tasks/{id}/activity", h.TaskActivity)

		pr.Get("/activity", h.UserActivity)
	})
}
