package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/xaenox/deskbot/internal/models"
)

// ErrNotFound is returned when a reminder or alert does not exist for the
// given user.
var ErrNotFound = errors.New("not found")

type Storage interface {
	ReminderStorage
	AlertStorage
	Close() error
}

// ReminderStorage persists reminders. Save is an upsert keyed by ID.
type ReminderStorage interface {
	SaveReminder(ctx context.Context, r *models.Reminder) error
	GetReminder(ctx context.Context, userID int64, id string) (*models.Reminder, error)
	// ListReminders returns the user's reminders ordered by due date.
	ListReminders(ctx context.Context, userID int64) ([]*models.Reminder, error)
	DeleteReminder(ctx context.Context, userID int64, id string) error
	// DueReminders returns reminders of all users that are neither completed
	// nor notified and whose notify time is at or before t.
	DueReminders(ctx context.Context, t time.Time) ([]*models.Reminder, error)
}

// AlertStorage persists alerts. Save is an upsert keyed by ID.
type AlertStorage interface {
	SaveAlert(ctx context.Context, a *models.Alert) error
	// ListAlerts returns the user's alerts, newest first.
	ListAlerts(ctx context.Context, userID int64) ([]*models.Alert, error)
	DeleteAlert(ctx context.Context, userID int64, id string) error
	ClearAlerts(ctx context.Context, userID int64) error
}

func sortReminders(rs []*models.Reminder) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].DueDate.Equal(rs[j].DueDate) {
			return rs[i].DueDate.Before(rs[j].DueDate)
		}
		return rs[i].CreatedAt.Before(rs[j].CreatedAt)
	})
}

func sortAlerts(as []*models.Alert) {
	sort.SliceStable(as, func(i, j int) bool {
		return as[i].Timestamp.After(as[j].Timestamp)
	})
}

func isDue(r *models.Reminder, t time.Time) bool {
	return !r.Completed && !r.Notified && !r.NotifyAt().After(t)
}

func cloneReminder(r *models.Reminder) *models.Reminder {
	c := *r
	c.Tags = append([]string(nil), r.Tags...)
	return &c
}

func cloneAlert(a *models.Alert) *models.Alert {
	c := *a
	return &c
}
