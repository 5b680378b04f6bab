package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/deskbot/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStorage connects, verifies the connection and applies the
// embedded schema.
func NewPostgresStorage(ctx context.Context, config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(config.MaxOpenConns / 2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := NewPostgresStorageFromDB(db, logger)
	if err := storage.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))
	return storage, nil
}

// NewPostgresStorageFromDB wraps an existing handle without touching the
// schema.
func NewPostgresStorageFromDB(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

func (s *PostgresStorage) Migrate(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

const reminderColumns = `id, user_id, title, description, due_date, priority, completed, notify_before, notified, tags, created_at`

func scanReminder(row rowScanner) (*models.Reminder, error) {
	r := &models.Reminder{}
	var tags pq.StringArray
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.Description,
		&r.DueDate,
		&r.Priority,
		&r.Completed,
		&r.NotifyBefore,
		&r.Notified,
		&tags,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Tags = []string(tags)
	return r, nil
}

func (s *PostgresStorage) SaveReminder(ctx context.Context, r *models.Reminder) error {
	query := `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			due_date = EXCLUDED.due_date,
			priority = EXCLUDED.priority,
			completed = EXCLUDED.completed,
			notify_before = EXCLUDED.notify_before,
			notified = EXCLUDED.notified,
			tags = EXCLUDED.tags`

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.UserID,
		r.Title,
		r.Description,
		r.DueDate,
		string(r.Priority),
		r.Completed,
		r.NotifyBefore,
		r.Notified,
		pq.Array(r.Tags),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving reminder: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetReminder(ctx context.Context, userID int64, id string) (*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id = $1 AND id = $2`

	r, err := scanReminder(s.db.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying reminder: %w", err)
	}
	return r, nil
}

func (s *PostgresStorage) ListReminders(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id = $1 ORDER BY due_date ASC, created_at ASC`
	return s.queryReminders(ctx, query, userID)
}

func (s *PostgresStorage) DueReminders(ctx context.Context, t time.Time) ([]*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
		WHERE NOT completed AND NOT notified
			AND due_date - make_interval(mins => notify_before) <= $1
		ORDER BY due_date ASC`
	return s.queryReminders(ctx, query, t)
}

func (s *PostgresStorage) queryReminders(ctx context.Context, query string, args ...any) ([]*models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}
	return reminders, nil
}

func (s *PostgresStorage) DeleteReminder(ctx context.Context, userID int64, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("error deleting reminder: %w", err)
	}
	return expectAffected(result)
}

func (s *PostgresStorage) SaveAlert(ctx context.Context, a *models.Alert) error {
	query := `
		INSERT INTO alerts (id, user_id, type, title, message, created_at, read, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			title = EXCLUDED.title,
			message = EXCLUDED.message,
			read = EXCLUDED.read,
			source = EXCLUDED.source`

	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		string(a.Type),
		a.Title,
		a.Message,
		a.Timestamp,
		a.Read,
		a.Source,
	)
	if err != nil {
		return fmt.Errorf("error saving alert: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListAlerts(ctx context.Context, userID int64) ([]*models.Alert, error) {
	query := `
		SELECT id, user_id, type, title, message, created_at, read, source
		FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		a := &models.Alert{}
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Type,
			&a.Title,
			&a.Message,
			&a.Timestamp,
			&a.Read,
			&a.Source,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return alerts, nil
}

func (s *PostgresStorage) DeleteAlert(ctx context.Context, userID int64, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("error deleting alert: %w", err)
	}
	return expectAffected(result)
}

func (s *PostgresStorage) ClearAlerts(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("error clearing alerts: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
