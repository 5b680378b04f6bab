package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xaenox/deskbot/internal/models"
)

func TestNotifier_Tick(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	soon, err := svc.Create(ctx, 1, Draft{Title: "call John", DueDate: fixedNow.Add(10 * time.Minute)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, Draft{Title: "later", DueDate: fixedNow.Add(2 * time.Hour)})
	require.NoError(t, err)
	done, err := svc.Create(ctx, 2, Draft{Title: "done", DueDate: fixedNow.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = svc.Complete(ctx, 2, done.ID)
	require.NoError(t, err)

	var delivered []*models.Reminder
	n := NewNotifier(svc, time.Minute, func(_ context.Context, r *models.Reminder) error {
		delivered = append(delivered, r)
		return nil
	}, zaptest.NewLogger(t))

	fired, err := n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, delivered, 1)
	assert.Equal(t, soon.ID, delivered[0].ID)

	stored, err := store.GetReminder(ctx, 1, soon.ID)
	require.NoError(t, err)
	assert.True(t, stored.Notified)

	alerts, err := svc.Alerts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Reminder", alerts[0].Title)
	assert.Equal(t, "call John is due Mon Oct 12 09:40", alerts[0].Message)
	assert.Equal(t, "reminders", alerts[0].Source)
	assert.Equal(t, models.AlertInfo, alerts[0].Type)

	fired, err = n.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, fired)
	assert.Len(t, delivered, 1)
}

func TestNotifier_DeliveryFailureNotRetried(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, Draft{Title: "x", DueDate: fixedNow})
	require.NoError(t, err)

	attempts := 0
	n := NewNotifier(svc, time.Minute, func(context.Context, *models.Reminder) error {
		attempts++
		return errors.New("telegram down")
	}, zaptest.NewLogger(t))

	fired, err := n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	_, err = n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestNotifier_RescheduleRearms(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, 1, Draft{Title: "x", DueDate: fixedNow})
	require.NoError(t, err)

	n := NewNotifier(svc, time.Minute, nil, zaptest.NewLogger(t))
	fired, err := n.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, fired)

	lead := 30
	_, err = svc.Update(ctx, 1, r.ID, Patch{NotifyBefore: &lead})
	require.NoError(t, err)

	fired, err = n.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}

func TestNotifier_RunStopsOnCancel(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := svc.Create(ctx, 1, Draft{Title: "x", DueDate: fixedNow})
	require.NoError(t, err)

	delivered := make(chan string, 1)
	n := NewNotifier(svc, 10*time.Millisecond, func(_ context.Context, r *models.Reminder) error {
		delivered <- r.Title
		return nil
	}, zaptest.NewLogger(t))

	stopped := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(stopped)
	}()

	select {
	case title := <-delivered:
		assert.Equal(t, "x", title)
	case <-time.After(2 * time.Second):
		t.Fatal("reminder was not delivered")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier did not stop")
	}
}
