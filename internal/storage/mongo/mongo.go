// Package mongo — реализация storage.Storage поверх MongoDB.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Kris-gadara/Taskly/internal/config"
)

const (
	usersCollection    = "users"
	tokensCollection   = "refresh_tokens"
	tasksCollection    = "tasks"
	activityCollection = "activity_logs"

	defaultDBName = "taskly"
)

// Mongo - тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	cfg      *config.Config
	client   *mongodriver.Client
	db       *mongodriver.Database
	users    *mongodriver.Collection
	tokens   *mongodriver.Collection
	tasks    *mongodriver.Collection
	activity *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение, подготавливает коллекции
// и обеспечивает индексацию.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.DB.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := databaseFromURI(cfg.DB.URL)
	db := cli.Database(dbName)

	m := &Mongo{
		cfg:      cfg,
		client:   cli,
		db:       db,
		users:    db.Collection(usersCollection),
		tokens:   db.Collection(tokensCollection),
		tasks:    db.Collection(tasksCollection),
		activity: db.Collection(activityCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// Close разрывает соединение с кластером.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создаёт индексы, необходимые сервису:
//   - users: уникальность email;
//   - refresh_tokens: уникальность хэша, выборка по user_id, чистка по expires_at;
//   - tasks: выборка задач владельца в порядке создания;
//   - activity_logs: выборки журналов по пользователю и по задаче.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	userModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
	}

	if _, err := m.users.Indexes().CreateMany(ctx, userModels); err != nil {
		return fmt.Errorf("mongo ensure users indexes: %w", err)
	}

	tokenModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetName("uniq_token_hash").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "revoked", Value: 1}},
			Options: options.Index().SetName("user_revoked"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("expires_at"),
		},
	}

	if _, err := m.tokens.Indexes().CreateMany(ctx, tokenModels); err != nil {
		return fmt.Errorf("mongo ensure tokens indexes: %w", err)
	}

	taskModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("owner_created_desc"),
		},
	}

	if _, err := m.tasks.Indexes().CreateMany(ctx, taskModels); err != nil {
		return fmt.Errorf("mongo ensure tasks indexes: %w", err)
	}

	activityModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("activity_user_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("activity_task_created_desc"),
		},
	}

	if _, err := m.activity.Indexes().CreateMany(ctx, activityModels); err != nil {
		return fmt.Errorf("mongo ensure activity indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддаётся расшифровке, возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}

// toMS приводит время к UTC и миллисекундам: MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }
