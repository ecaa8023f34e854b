// Package service содержит бизнес-логику taskly-api: регистрацию и
// аутентификацию пользователей, выпуск/проверку токенов, профиль и
// операции над задачами с проверкой владения. Работа с хранилищем идёт
// через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования из разных горутин при условии, что
//     переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются сентинелами ниже и далее маппятся HTTP-слоем
//     на коды ответов (см. internal/errors).
package service

import (
	"errors"

	"github.com/Kris-gadara/Taskly/internal/config"
	"github.com/Kris-gadara/Taskly/internal/storage"
)

var (
	// ErrInvalidCredentials — пара email/пароль неверна или пользователь не найден.
	// Единый сентинел для обоих случаев, чтобы не давать перебирать email (HTTP 401).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи,
	// отсутствует в хранилище, отозван или просрочен (HTTP 401).
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmailTaken — e-mail уже занят другим пользователем (HTTP 409).
	ErrEmailTaken = errors.New("email already taken")

	// ErrNotFound — сущность отсутствует (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrOwnershipDenied — аутентифицированный пользователь обращается к чужой
	// задаче; намеренно отличим от ErrNotFound (HTTP 403, не 404).
	ErrOwnershipDenied = errors.New("ownership denied")

	// ErrInvalidEmail — e-mail имеет некорректный формат (HTTP 400).
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль короче минимально допустимого (HTTP 400).
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой (HTTP 400).
	ErrEmptyPassword = errors.New("password is empty")

	// ErrInvalidArgument — неверные входные параметры запроса (HTTP 400).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRefreshTokenCollision — исчерпаны попытки сгенерировать уникальный
	// refresh-токен (HTTP 500).
	ErrRefreshTokenCollision = errors.New("refresh token collision")
)

// Service описывает бизнес-логику taskly-api.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}
