package reminders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/deskbot/internal/metrics"
	"github.com/xaenox/deskbot/internal/models"
)

// DeliverFunc pushes a due reminder to its owner.
type DeliverFunc func(ctx context.Context, r *models.Reminder) error

const alertSource = "reminders"

// Notifier periodically fires reminders whose notify time has come. Each
// reminder is marked notified before delivery, so a failing transport
// drops the message rather than repeating it every tick.
type Notifier struct {
	svc      *Service
	deliver  DeliverFunc
	interval time.Duration
	logger   *zap.Logger
}

func NewNotifier(svc *Service, interval time.Duration, deliver DeliverFunc, logger *zap.Logger) *Notifier {
	return &Notifier{
		svc:      svc,
		deliver:  deliver,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		if _, err := n.Tick(ctx); err != nil && ctx.Err() == nil {
			n.logger.Error("Reminder sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick processes every reminder due at the current time and reports how
// many were fired.
func (n *Notifier) Tick(ctx context.Context) (int, error) {
	due, err := n.svc.store.DueReminders(ctx, n.svc.now())
	if err != nil {
		return 0, fmt.Errorf("failed to load due reminders: %w", err)
	}

	fired := 0
	for _, r := range due {
		if err := ctx.Err(); err != nil {
			return fired, err
		}

		r.Notified = true
		if err := n.svc.store.SaveReminder(ctx, r); err != nil {
			n.logger.Error("Failed to mark reminder notified",
				zap.Error(err),
				zap.String("reminder_id", r.ID),
				zap.Int64("user_id", r.UserID))
			metrics.RemindersNotified.WithLabelValues("store_failed").Inc()
			continue
		}
		fired++

		message := fmt.Sprintf("%s is due %s", r.Title, r.DueDate.In(n.svc.loc).Format("Mon Jan 2 15:04"))
		if _, err := n.svc.CreateAlert(ctx, r.UserID, models.AlertInfo, "Reminder", message, alertSource); err != nil {
			n.logger.Warn("Failed to record reminder alert",
				zap.Error(err),
				zap.String("reminder_id", r.ID))
		}

		if n.deliver == nil {
			metrics.RemindersNotified.WithLabelValues("recorded").Inc()
			continue
		}
		if err := n.deliver(ctx, r); err != nil {
			n.logger.Error("Failed to deliver reminder",
				zap.Error(err),
				zap.String("reminder_id", r.ID),
				zap.Int64("user_id", r.UserID))
			metrics.RemindersNotified.WithLabelValues("delivery_failed").Inc()
			continue
		}
		metrics.RemindersNotified.WithLabelValues("delivered").Inc()
	}
	return fired, nil
}
