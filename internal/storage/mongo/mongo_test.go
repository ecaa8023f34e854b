package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Kris-gadara/Taskly/internal/config"
	"github.com/Kris-gadara/Taskly/internal/models"
	"github.com/Kris-gadara/Taskly/internal/storage"
)

// testTimeout — общий дедлайн на операции с БД в тестах.
const testTimeout = 10 * time.Second

// TestMain запускает MongoDB в контейнере один раз на весь пакет тестов.
// Адрес контейнера прокидывается в ENV DATABASE_URL, а каждая спецификация
// создаёт свою БД с уникальным именем (см. newTestConfig).
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	}

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	_ = os.Setenv("DATABASE_URL", uri)

	code := m.Run()

	// Гасим контейнер *после* выполнения пакета тестов.
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// skipUnlessIntegration — интеграционные спецификации идут только с контейнером.
func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("set GO_TEST_INTEGRATION=1 to run MongoDB integration tests")
	}
}

// newTestConfig создаёт конфиг с отдельной тестовой БД.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	baseURL := os.Getenv("DATABASE_URL")
	if baseURL == "" {
		baseURL = "mongodb://localhost:27017"
	}

	dbName := "taskly_test_" + uuid.New().String()
	if baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL + dbName
	} else {
		baseURL = baseURL + "/" + dbName
	}

	return &config.Config{
		DB: config.DBConfig{
			URL: baseURL,
		},
	}
}

// mustNewMongo создаёт подключение к тестовой БД и регистрирует очистку по завершении теста.
func mustNewMongo(t *testing.T, cfg *config.Config) *Mongo {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	m, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("cannot connect to MongoDB in container: %v (DATABASE_URL=%s)", err, cfg.DB.URL)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = m.db.Drop(ctx)
		_ = m.Close(ctx)
	})

	return m
}

func newUser() *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Name:         "Alice",
		Email:        "alice-" + uuid.NewString() + "@example.com",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		Role:         models.RoleUser,
		JoinedAt:     now,
		LastActive:   now,
	}
}

// TestDatabaseFromURI — имя БД берём из пути URI, иначе дефолт.
func TestDatabaseFromURI(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"with db name", "mongodb://localhost:27017/taskly_prod", "taskly_prod"},
		{"no db name", "mongodb://localhost:27017", defaultDBName},
		{"trailing slash", "mongodb://localhost:27017/", defaultDBName},
		{"with query", "mongodb://u:p@host:27017/mydb?authSource=admin", "mydb"},
		{"unparsable", "::::", defaultDBName},
	}

	for _, tt := range tests {
		if got := databaseFromURI(tt.uri); got != tt.want {
			t.Errorf("%s: want %q, got %q", tt.name, tt.want, got)
		}
	}
}

// TestToMS — время нормализуется к UTC с миллисекундной точностью.
func TestToMS(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	in := time.Date(2025, 6, 1, 15, 4, 5, 123_456_789, loc)

	got := toMS(in)
	if got.Location() != time.UTC {
		t.Fatalf("want UTC, got %v", got.Location())
	}
	if got.Nanosecond() != 123_000_000 {
		t.Fatalf("want ms precision, got %d ns", got.Nanosecond())
	}
}

// TestSaveUser_And_Lookup — создание и выборка по email/ID, конфликт email.
func TestSaveUser_And_Lookup(t *testing.T) {
	skipUnlessIntegration(t)

	m := mustNewMongo(t, newTestConfig(t))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := newUser()
	if err := m.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser error: %v", err)
	}

	byEmail, err := m.UserByEmail(ctx, u.Email)
	if err != nil {
		t.Fatalf("UserByEmail error: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Fatalf("UserByEmail ID = %s, want %s", byEmail.ID, u.ID)
	}

	// stats инициализируются нулями при вставке.
	if byEmail.Stats[models.StatCompleted] != 0 || byEmail.Stats[models.StatPending] != 0 {
		t.Fatalf("fresh user stats must be zero, got %v", byEmail.Stats)
	}

	byID, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID error: %v", err)
	}
	if byID.Email != u.Email {
		t.Fatalf("UserByID email = %s, want %s", byID.Email, u.Email)
	}

	// Дубликат email -> ErrAlreadyExists (уникальный индекс).
	dup := newUser()
	dup.Email = u.Email
	if err := m.SaveUser(ctx, dup); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate email, got %v", err)
	}

	// Несуществующий email -> ErrNotFound.
	if _, err := m.UserByEmail(ctx, "ghost@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// TestUpdateProfile — смена имени/email, конфликт с чужим email, отсутствие записи.
func TestUpdateProfile(t *testing.T) {
	skipUnlessIntegration(t)

	m := mustNewMongo(t, newTestConfig(t))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := newUser()
	if err := m.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser error: %v", err)
	}

	updated, err := m.UpdateProfile(ctx, u.ID, "Alice Cooper", "cooper-"+uuid.NewString()+"@example.com")
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if updated.Name != "Alice Cooper" {
		t.Fatalf("name = %q, want %q", updated.Name, "Alice Cooper")
	}
	if !updated.LastActive.After(u.LastActive.Add(-time.Second)) {
		t.Fatalf("last_active not touched: %v", updated.LastActive)
	}

	// Конфликт email с другим пользователем.
	other := newUser()
	if err := m.SaveUser(ctx, other); err != nil {
		t.Fatalf("SaveUser(other) error: %v", err)
	}
	if _, err := m.UpdateProfile(ctx, u.ID, "Alice", other.Email); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on email conflict, got %v", err)
	}

	// Нет такой записи.
	if _, err := m.UpdateProfile(ctx, uuid.New(), "Nobody", "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// TestUpdatePassword_And_TouchLastActive — замена хэша и отметка присутствия.
func TestUpdatePassword_And_TouchLastActive(t *testing.T) {
	skipUnlessIntegration(t)

	m := mustNewMongo(t, newTestConfig(t))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := newUser()
	if err := m.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser error: %v", err)
	}

	if err := m.UpdatePassword(ctx, u.ID, "$2a$10$newhashnewhashnewhash"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}

	got, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID error: %v", err)
	}
	if got.PasswordHash != "$2a$10$newhashnewhashnewhash" {
		t.Fatalf("password hash not replaced")
	}

	if err := m.TouchLastActive(ctx, u.ID); err != nil {
		t.Fatalf("TouchLastActive error: %v", err)
	}

	if err := m.UpdatePassword(ctx, uuid.New(), "h"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing user, got %v", err)
	}
	if err := m.TouchLastActive(ctx, uuid.New()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing user, got %v", err)
	}
}

// TestBumpStats — атомарные инкременты, включая отрицательные дельты.
func TestBumpStats(t *testing.T) {
	skipUnlessIntegration(t)

	m := mustNewMongo(t, newTestConfig(t))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := newUser()
	if err := m.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser error: %v", err)
	}

	if err := m.BumpStats(ctx, u.ID, map[string]int64{models.StatPending: 2}); err != nil {
		t.Fatalf("BumpStats error: %v", err)
	}
	if err := m.BumpStats(ctx, u.ID, map[string]int64{
		models.StatPending:   -1,
		models.StatCompleted: 1,
	}); err != nil {
		t.Fatalf("BumpStats(move) error: %v", err)
	}

	got, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID error: %v", err)
	}
	if got.Stats[models.StatPending] != 1 || got.Stats[models.StatCompleted] != 1 {
		t.Fatalf("stats = %v, want pending=1 completed=1", got.Stats)
	}

	// Пустые дельты — no-op без похода в БД.
	if err := m.BumpStats(ctx, u.ID, nil); err != nil {
		t.Fatalf("BumpStats(nil) error: %v", err)
	}
}

// TestRefreshTokens_Lifecycle — сохранение, выборка по хэшу, дубликат, bulk-отзыв, чистка.
func TestRefreshTokens_Lifecycle(t *testing.T) {
	skipUnlessIntegration(t)

	m := mustNewMongo(t, newTestConfig(t))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	userID := uuid.New()
	now := time.Now().UTC()

	mk := func(hash string, expires time.Time) *models.RefreshToken {
		return &models.RefreshToken{
			TokenHash: hash,
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: expires,
		}
	}

	if err := m.SaveRefreshToken(ctx, mk("hash-1", now.Add(time.Hour))); err != nil {
		t.Fatalf("SaveRefreshToken(1) error: %v", err)
	}
	if err := m.SaveRefreshToken(ctx, mk("hash-2", now.Add(time.Hour))); err != nil {
		t.Fatalf("SaveRefreshToken(2) error: %v", err)
	}

	// Дубликат хэша -> ErrAlreadyExists.
	if err := m.SaveRefreshToken(ctx, mk("hash-1", now.Add(time.Hour))); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate hash, got %v", err)
	}

	got, err := m.RefreshTokenByHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("RefreshTokenByHash error: %v", err)
	}
	if got.UserID != userID || got.Revoked {
		t.Fatalf("unexpected token state: %+v", got)
	}

	// Отзыв всех живых токенов пользователя одним обновлением.
	revoked, err := m.RevokeAllByUser(ctx, userID)
	if err != nil {
		t.Fatalf("RevokeAllByUser error: %v", err)
	}
	if revoked != 2 {
		t.Fatalf("revoked = %d, want 2", revoked)
	}

	// Повторный отзыв ничего не находит.
	revoked, err = m.RevokeAllByUser(ctx, userID)
	if err != nil {
		t.Fatalf("RevokeAllByUser(repeat) error: %v", err)
	}
	if revoked != 0 {
		t.Fatalf("repeat revoked = %d, want 0", revoked)
	}

	got, err = m.RefreshTokenByHash(ctx, "hash-2")
	if err != nil {
		t.Fatalf("RefreshTokenByHash(2) error: %v", err)
	}
	if !got.Revoked {
		t.Fatalf("token must be revoked after RevokeAllByUser")
	}

	// Чистка просроченных: добавим истёкший и удалим его.
	if err := m.SaveRefreshToken(ctx, mk("hash-expired", now.Add(-time.Minute))); err != nil {
		t.Fatalf("SaveRefreshToken(expired) error: %v", err)
	}
	if err := m.DeleteExpiredTokens(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredTokens error: %v", err)
	}
	if _, err := m.RefreshTokenByHash(ctx, "hash-expired"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expired token must be deleted, got %v", err)
	}
	// Живые (пусть и отозванные) остаются до истечения срока.
	if _, err := m.RefreshTokenByHash(ctx, "hash-1"); err != nil {
		t.Fatalf("live token must survive cleanup: %v", err)
	}
}

// TestTasks_CRUD — создание, выборка, порядок списка, частичное обновление, удаление.
func TestTasks_CRUD(t *testing.T) {
	skipUnlessIntegration(t)

	m := mustNewMongo(t, newTestConfig(t))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	owner := uuid.New()

	created, err := m.SaveTask(ctx, &models.Task{
		UserID:   owner,
		Title:    "first",
		Status:   models.TaskStatusPending,
		Priority: models.TaskPriorityMedium,
	})
	if err != nil {
		t.Fatalf("SaveTask error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps must be set on insert")
	}

	time.Sleep(10 * time.Millisecond)
	second, err := m.SaveTask(ctx, &models.Task{
		UserID:   owner,
		Title:    "second",
		Status:   models.TaskStatusPending,
		Priority: models.TaskPriorityHigh,
	})
	if err != nil {
		t.Fatalf("SaveTask(second) error: %v", err)
	}

	// Чужая задача не попадает в выборку владельца.
	if _, err := m.SaveTask(ctx, &models.Task{
		UserID: uuid.New(),
		Title:  "foreign",
		Status: models.TaskStatusPending,
	}); err != nil {
		t.Fatalf("SaveTask(foreign) error: %v", err)
	}

	items, err := m.TasksByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("TasksByOwner error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	// Новые первыми.
	if items[0].ID != second.ID {
		t.Fatalf("order violated: first item = %s, want %s", items[0].ID, second.ID)
	}

	// Частичное обновление: только статус и признак завершённости.
	status := models.TaskStatusCompleted
	completed := true
	doneAt := time.Now().UTC()
	updated, err := m.UpdateTask(ctx, created.ID, storage.TaskUpdate{
		Status:      &status,
		IsCompleted: &completed,
		CompletedAt: &doneAt,
	})
	if err != nil {
		t.Fatalf("UpdateTask error: %v", err)
	}
	if !updated.IsCompleted || updated.Status != models.TaskStatusCompleted {
		t.Fatalf("completion not applied: %+v", updated)
	}
	if updated.Title != "first" {
		t.Fatalf("untouched field changed: title = %q", updated.Title)
	}
	if updated.CompletedAt == nil {
		t.Fatalf("completed_at must be set")
	}

	// Удаление и повторное удаление.
	if err := m.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask error: %v", err)
	}
	if err := m.DeleteTask(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound on repeat delete, got %v", err)
	}
}

// TestUpdateTask_ClearCompletedAt — снятие отметки завершения удаляет
// completed_at из документа, а не оставляет устаревшее значение.
func TestUpdateTask_ClearCompletedAt(t *testing.T) {
	skipUnlessIntegration(t)

	m := mustNewMongo(t, newTestConfig(t))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	created, err := m.SaveTask(ctx, &models.Task{
		UserID:   uuid.New(),
		Title:    "revertable",
		Status:   models.TaskStatusPending,
		Priority: models.TaskPriorityMedium,
	})
	if err != nil {
		t.Fatalf("SaveTask error: %v", err)
	}

	status := models.TaskStatusCompleted
	completed := true
	doneAt := time.Now().UTC()
	full := int32(100)
	if _, err := m.UpdateTask(ctx, created.ID, storage.TaskUpdate{
		Status:      &status,
		IsCompleted: &completed,
		CompletedAt: &doneAt,
		Progress:    &full,
	}); err != nil {
		t.Fatalf("UpdateTask(complete) error: %v", err)
	}

	back := models.TaskStatusPending
	notCompleted := false
	zero := int32(0)
	reverted, err := m.UpdateTask(ctx, created.ID, storage.TaskUpdate{
		Status:           &back,
		IsCompleted:      &notCompleted,
		ClearCompletedAt: true,
		Progress:         &zero,
	})
	if err != nil {
		t.Fatalf("UpdateTask(revert) error: %v", err)
	}
	if reverted.IsCompleted {
		t.Fatalf("task must not be completed after revert")
	}
	if reverted.CompletedAt != nil {
		t.Fatalf("completed_at must be cleared, got %v", reverted.CompletedAt)
	}
	if reverted.Progress != 0 {
		t.Fatalf("progress = %d, want 0", reverted.Progress)
	}
}

// TestTaskByID_NotFoundOnBadID — невалидный формат id трактуем как отсутствие записи.
func TestTaskByID_NotFoundOnBadID(t *testing.T) {
	skipUnlessIntegration(t)

	m := mustNewMongo(t, newTestConfig(t))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	if _, err := m.TaskByID(ctx, "deadbeef"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for bad id format, got %v", err)
	}
	if _, err := m.TaskByID(ctx, "65e0a0c9fd2f000000000000"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing id, got %v", err)
	}
}

// TestActivity_SaveAndQuery — журналы по пользователю и по задаче, новые первыми.
func TestActivity_SaveAndQuery(t *testing.T) {
	skipUnlessIntegration(t)

	m := mustNewMongo(t, newTestConfig(t))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	userID := uuid.New()
	taskID := "64f000000000000000000001"

	first := &models.ActivityLog{
		UserID:  userID,
		TaskID:  taskID,
		Action:  models.ActivityTaskCreated,
		Details: "first",
	}
	if err := m.SaveActivity(ctx, first); err != nil {
		t.Fatalf("SaveActivity(1) error: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("expected generated activity ID")
	}

	time.Sleep(10 * time.Millisecond)
	second := &models.ActivityLog{
		UserID:  userID,
		TaskID:  taskID,
		Action:  models.ActivityTaskCompleted,
		Details: "second",
		Changes: map[string]any{"status": "completed"},
	}
	if err := m.SaveActivity(ctx, second); err != nil {
		t.Fatalf("SaveActivity(2) error: %v", err)
	}

	byUser, err := m.ActivityByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ActivityByUser error: %v", err)
	}
	if len(byUser) != 2 {
		t.Fatalf("byUser len = %d, want 2", len(byUser))
	}
	if byUser[0].Action != models.ActivityTaskCompleted {
		t.Fatalf("order violated: first action = %s", byUser[0].Action)
	}

	byTask, err := m.ActivityByTask(ctx, taskID)
	if err != nil {
		t.Fatalf("ActivityByTask error: %v", err)
	}
	if len(byTask) != 2 {
		t.Fatalf("byTask len = %d, want 2", len(byTask))
	}

	// Чужой журнал пуст.
	other, err := m.ActivityByUser(ctx, uuid.New())
	if err != nil {
		t.Fatalf("ActivityByUser(other) error: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("other user activity must be empty, got %d", len(other))
	}
}

// TestEnsureIndexes_Created — индексы, создаваемые ensureIndexes, существуют.
func TestEnsureIndexes_Created(t *testing.T) {
	skipUnlessIntegration(t)

	m := mustNewMongo(t, newTestConfig(t))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	wantNames := map[string][]string{
		usersCollection:    {"uniq_email"},
		tokensCollection:   {"uniq_token_hash", "user_revoked", "expires_at"},
		tasksCollection:    {"owner_created_desc"},
		activityCollection: {"activity_user_created_desc", "activity_task_created_desc"},
	}

	for coll, names := range wantNames {
		cur, err := m.db.Collection(coll).Indexes().List(ctx)
		if err != nil {
			t.Fatalf("%s: Indexes().List error: %v", coll, err)
		}

		have := map[string]bool{}
		for cur.Next(ctx) {
			var idx map[string]any
			if err := cur.Decode(&idx); err != nil {
				t.Fatalf("%s: decode index: %v", coll, err)
			}
			if name, _ := idx["name"].(string); name != "" {
				have[name] = true
			}
		}
		if err := cur.Err(); err != nil {
			t.Fatalf("%s: cursor err: %v", coll, err)
		}
		_ = cur.Close(ctx)

		for _, name := range names {
			if !have[name] {
				t.Errorf("%s: index %q not found; have %v", coll, name, have)
			}
		}
	}
}
