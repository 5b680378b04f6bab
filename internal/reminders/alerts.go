package reminders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/xaenox/deskbot/internal/models"
	"github.com/xaenox/deskbot/internal/storage"
)

// Alerts returns the user's alerts, newest first.
func (s *Service) Alerts(ctx context.Context, userID int64) ([]*models.Alert, error) {
	alerts, err := s.store.ListAlerts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

func (s *Service) UnreadAlerts(ctx context.Context, userID int64) ([]*models.Alert, error) {
	alerts, err := s.Alerts(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread := make([]*models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if !a.Read {
			unread = append(unread, a)
		}
	}
	return unread, nil
}

func (s *Service) UnreadAlertCount(ctx context.Context, userID int64) (int, error) {
	unread, err := s.UnreadAlerts(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

func (s *Service) CreateAlert(ctx context.Context, userID int64, typ models.AlertType, title, message, source string) (*models.Alert, error) {
	a := &models.Alert{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Timestamp: s.now(),
		Source:    source,
	}
	if err := s.store.SaveAlert(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return a, nil
}

func (s *Service) MarkAlertRead(ctx context.Context, userID int64, id string) error {
	alerts, err := s.Alerts(ctx, userID)
	if err != nil {
		return err
	}
	for _, a := range alerts {
		if a.ID != id {
			continue
		}
		if a.Read {
			return nil
		}
		a.Read = true
		if err := s.store.SaveAlert(ctx, a); err != nil {
			return fmt.Errorf("failed to mark alert %s read: %w", id, err)
		}
		return nil
	}
	return fmt.Errorf("alert %s: %w", id, storage.ErrNotFound)
}

// MarkAllAlertsRead returns how many alerts changed.
func (s *Service) MarkAllAlertsRead(ctx context.Context, userID int64) (int, error) {
	unread, err := s.UnreadAlerts(ctx, userID)
	if err != nil {
		return 0, err
	}
	for i, a := range unread {
		a.Read = true
		if err := s.store.SaveAlert(ctx, a); err != nil {
			return i, fmt.Errorf("failed to mark alert %s read: %w", a.ID, err)
		}
	}
	return len(unread), nil
}

func (s *Service) DeleteAlert(ctx context.Context, userID int64, id string) error {
	if err := s.store.DeleteAlert(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete alert %s: %w", id, err)
	}
	return nil
}

func (s *Service) ClearAlerts(ctx context.Context, userID int64) error {
	if err := s.store.ClearAlerts(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear alerts: %w", err)
	}
	return nil
}
