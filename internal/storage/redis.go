package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xaenox/deskbot/internal/models"
)

type RedisConfig struct {
	URL       string
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisClient builds a client from a redis:// URL when one is set,
// otherwise from the discrete settings, and pings it.
func NewRedisClient(ctx context.Context, config RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	}
	if config.URL != "" {
		parsed, err := redis.ParseURL(config.URL)
		if err != nil {
			return nil, fmt.Errorf("error parsing redis url: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	return client, nil
}

// RedisStorage keeps each user's reminders and alerts as JSON values in two
// hashes keyed by ID. A sorted set indexes pending reminders by notify time
// (unix seconds) so the notifier does not scan every user.
//
//	{prefix}:reminders:{user}  hash  id -> reminder JSON
//	{prefix}:alerts:{user}     hash  id -> alert JSON
//	{prefix}:schedule          zset  "{user}:{id}" scored by notify time
type RedisStorage struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisStorage(client *redis.Client, prefix string, logger *zap.Logger) *RedisStorage {
	if prefix == "" {
		prefix = "deskbot"
	}
	return &RedisStorage{client: client, prefix: prefix, logger: logger}
}

func (s *RedisStorage) remindersKey(userID int64) string {
	return fmt.Sprintf("%s:reminders:%d", s.prefix, userID)
}

func (s *RedisStorage) alertsKey(userID int64) string {
	return fmt.Sprintf("%s:alerts:%d", s.prefix, userID)
}

func (s *RedisStorage) scheduleKey() string {
	return s.prefix + ":schedule"
}

func scheduleMember(userID int64, id string) string {
	return strconv.FormatInt(userID, 10) + ":" + id
}

func parseScheduleMember(member string) (int64, string, bool) {
	user, id, ok := strings.Cut(member, ":")
	if !ok {
		return 0, "", false
	}
	userID, err := strconv.ParseInt(user, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return userID, id, true
}

func (s *RedisStorage) SaveReminder(ctx context.Context, r *models.Reminder) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("error encoding reminder: %w", err)
	}

	member := scheduleMember(r.UserID, r.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.remindersKey(r.UserID), r.ID, data)
		if r.Completed || r.Notified {
			pipe.ZRem(ctx, s.scheduleKey(), member)
		} else {
			pipe.ZAdd(ctx, s.scheduleKey(), redis.Z{
				Score:  float64(r.NotifyAt().Unix()),
				Member: member,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error saving reminder: %w", err)
	}
	return nil
}

func (s *RedisStorage) GetReminder(ctx context.Context, userID int64, id string) (*models.Reminder, error) {
	data, err := s.client.HGet(ctx, s.remindersKey(userID), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading reminder: %w", err)
	}

	r := &models.Reminder{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("error decoding reminder %s: %w", id, err)
	}
	return r, nil
}

func (s *RedisStorage) ListReminders(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	values, err := s.client.HVals(ctx, s.remindersKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("error listing reminders: %w", err)
	}

	reminders := make([]*models.Reminder, 0, len(values))
	for _, v := range values {
		r := &models.Reminder{}
		if err := json.Unmarshal([]byte(v), r); err != nil {
			return nil, fmt.Errorf("error decoding reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	sortReminders(reminders)
	return reminders, nil
}

func (s *RedisStorage) DeleteReminder(ctx context.Context, userID int64, id string) error {
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.HDel(ctx, s.remindersKey(userID), id)
		pipe.ZRem(ctx, s.scheduleKey(), scheduleMember(userID, id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("error deleting reminder: %w", err)
	}
	if deleted.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStorage) DueReminders(ctx context.Context, t time.Time) ([]*models.Reminder, error) {
	members, err := s.client.ZRangeByScore(ctx, s.scheduleKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(t.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading schedule: %w", err)
	}

	var due []*models.Reminder
	for _, member := range members {
		userID, id, ok := parseScheduleMember(member)
		if !ok {
			s.logger.Warn("Dropping malformed schedule entry", zap.String("member", member))
			s.client.ZRem(ctx, s.scheduleKey(), member)
			continue
		}

		r, err := s.GetReminder(ctx, userID, id)
		if errors.Is(err, ErrNotFound) {
			s.client.ZRem(ctx, s.scheduleKey(), member)
			continue
		}
		if err != nil {
			return nil, err
		}
		if isDue(r, t) {
			due = append(due, r)
		}
	}
	sortReminders(due)
	return due, nil
}

func (s *RedisStorage) SaveAlert(ctx context.Context, a *models.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("error encoding alert: %w", err)
	}
	if err := s.client.HSet(ctx, s.alertsKey(a.UserID), a.ID, data).Err(); err != nil {
		return fmt.Errorf("error saving alert: %w", err)
	}
	return nil
}

func (s *RedisStorage) ListAlerts(ctx context.Context, userID int64) ([]*models.Alert, error) {
	values, err := s.client.HVals(ctx, s.alertsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}

	alerts := make([]*models.Alert, 0, len(values))
	for _, v := range values {
		a := &models.Alert{}
		if err := json.Unmarshal([]byte(v), a); err != nil {
			return nil, fmt.Errorf("error decoding alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	sortAlerts(alerts)
	return alerts, nil
}

func (s *RedisStorage) DeleteAlert(ctx context.Context, userID int64, id string) error {
	n, err := s.client.HDel(ctx, s.alertsKey(userID), id).Result()
	if err != nil {
		return fmt.Errorf("error deleting alert: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStorage) ClearAlerts(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.alertsKey(userID)).Err(); err != nil {
		return fmt.Errorf("error clearing alerts: %w", err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
