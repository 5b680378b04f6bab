package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/deskbot/internal/classifier"
	"github.com/xaenox/deskbot/internal/reminders"
	"github.com/xaenox/deskbot/internal/storage"
	"github.com/xaenox/deskbot/pkg/config"
)

// OpenStorage connects the backend named by the database driver setting.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil

	case config.DriverPostgres:
		logger.Info("Using PostgreSQL storage")
		return storage.NewPostgresStorage(ctx, storage.DatabaseConfig{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			DBName:       cfg.Database.DBName,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
		}, logger)

	case config.DriverRedis:
		logger.Info("Using Redis storage")
		client, err := storage.NewRedisClient(ctx, storage.RedisConfig{
			URL:      cfg.Redis.URL,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewRedisStorage(client, cfg.Redis.KeyPrefix, logger), nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// Services bundles the classifier and reminder service sharing one clock.
type Services struct {
	Location   *time.Location
	Classifier *classifier.RuleClassifier
	Reminders  *reminders.Service
}

// NewServices builds the core services on top of store. The clock reports
// wall time in the configured reminder timezone so relative dates resolve
// against the user's calendar day.
func NewServices(cfg *config.Config, store storage.Storage, logger *zap.Logger) (*Services, error) {
	loc, err := cfg.Reminders.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}
	clock := func() time.Time { return time.Now().In(loc) }

	clf := classifier.NewRuleClassifier(classifier.WithClock(clock))
	svc := reminders.NewService(store, clf, logger,
		reminders.WithClock(clock),
		reminders.WithLocation(loc),
		reminders.WithDefaultNotifyBefore(cfg.Reminders.DefaultNotifyBefore),
	)

	return &Services{Location: loc, Classifier: clf, Reminders: svc}, nil
}
