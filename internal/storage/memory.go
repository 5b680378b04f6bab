package storage

import (
	"context"
	"sync"
	"time"

	"github.com/xaenox/deskbot/internal/models"
)

// MemoryStorage keeps everything in process memory. Values are copied on
// the way in and out so callers never share state with the store.
type MemoryStorage struct {
	mu        sync.RWMutex
	reminders map[int64]map[string]*models.Reminder
	alerts    map[int64]map[string]*models.Alert
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		reminders: make(map[int64]map[string]*models.Reminder),
		alerts:    make(map[int64]map[string]*models.Alert),
	}
}

// Reminder methods
func (s *MemoryStorage) SaveReminder(ctx context.Context, r *models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userReminders, exists := s.reminders[r.UserID]
	if !exists {
		userReminders = make(map[string]*models.Reminder)
		s.reminders[r.UserID] = userReminders
	}
	userReminders[r.ID] = cloneReminder(r)
	return nil
}

func (s *MemoryStorage) GetReminder(ctx context.Context, userID int64, id string) (*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, exists := s.reminders[userID][id]; exists {
		return cloneReminder(r), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) ListReminders(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Reminder, 0, len(s.reminders[userID]))
	for _, r := range s.reminders[userID] {
		out = append(out, cloneReminder(r))
	}
	sortReminders(out)
	return out, nil
}

func (s *MemoryStorage) DeleteReminder(ctx context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reminders[userID][id]; !exists {
		return ErrNotFound
	}
	delete(s.reminders[userID], id)
	return nil
}

func (s *MemoryStorage) DueReminders(ctx context.Context, t time.Time) ([]*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Reminder
	for _, userReminders := range s.reminders {
		for _, r := range userReminders {
			if isDue(r, t) {
				out = append(out, cloneReminder(r))
			}
		}
	}
	sortReminders(out)
	return out, nil
}

// Alert methods
func (s *MemoryStorage) SaveAlert(ctx context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userAlerts, exists := s.alerts[a.UserID]
	if !exists {
		userAlerts = make(map[string]*models.Alert)
		s.alerts[a.UserID] = userAlerts
	}
	userAlerts[a.ID] = cloneAlert(a)
	return nil
}

func (s *MemoryStorage) ListAlerts(ctx context.Context, userID int64) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Alert, 0, len(s.alerts[userID]))
	for _, a := range s.alerts[userID] {
		out = append(out, cloneAlert(a))
	}
	sortAlerts(out)
	return out, nil
}

func (s *MemoryStorage) DeleteAlert(ctx context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.alerts[userID][id]; !exists {
		return ErrNotFound
	}
	delete(s.alerts[userID], id)
	return nil
}

func (s *MemoryStorage) ClearAlerts(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.alerts, userID)
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
