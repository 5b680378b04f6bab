package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xaenox/deskbot/internal/classifier"
	"github.com/xaenox/deskbot/internal/models"
	"github.com/xaenox/deskbot/internal/storage"
)

// Monday
var fixedNow = time.Date(2026, 10, 12, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *storage.MemoryStorage) {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	store := storage.NewMemoryStorage()
	svc := NewService(store,
		classifier.NewRuleClassifier(classifier.WithClock(clock)),
		zaptest.NewLogger(t),
		WithClock(clock),
		WithLocation(time.UTC),
		WithDefaultNotifyBefore(15),
	)
	return svc, store
}

func intPtr(v int) *int { return &v }

// ============================================================================
// CreateFromText
// ============================================================================

func TestCreateFromText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		title    string
		due      time.Time
		priority models.Priority
	}{
		{
			name:     "date and time",
			input:    "Remind me to call John at 3pm tomorrow",
			title:    "call John",
			due:      time.Date(2026, 10, 13, 15, 0, 0, 0, time.UTC),
			priority: models.PriorityMedium,
		},
		{
			name:     "weekday without time defaults to nine",
			input:    "remind me to submit report on friday, high priority",
			title:    "submit report",
			due:      time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
			priority: models.PriorityHigh,
		},
		{
			name:     "time later today",
			input:    "remind me to stretch at 5pm",
			title:    "stretch",
			due:      time.Date(2026, 10, 12, 17, 0, 0, 0, time.UTC),
			priority: models.PriorityMedium,
		},
		{
			name:     "passed time rolls to tomorrow",
			input:    "remind me to stretch at 8am",
			title:    "stretch",
			due:      time.Date(2026, 10, 13, 8, 0, 0, 0, time.UTC),
			priority: models.PriorityMedium,
		},
		{
			name:     "bare task text",
			input:    "buy milk tomorrow at 5pm",
			title:    "buy milk",
			due:      time.Date(2026, 10, 13, 17, 0, 0, 0, time.UTC),
			priority: models.PriorityMedium,
		},
		{
			name:     "priority is case-insensitive",
			input:    "remind me about the invoice in 3 days, URGENT priority",
			title:    "the invoice",
			due:      time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
			priority: models.PriorityUrgent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			ctx := context.Background()

			r, err := svc.CreateFromText(ctx, 42, tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.title, r.Title)
			assert.True(t, tt.due.Equal(r.DueDate), "due %s, want %s", r.DueDate, tt.due)
			assert.Equal(t, tt.priority, r.Priority)
			assert.Equal(t, 15, r.NotifyBefore)
			assert.Equal(t, int64(42), r.UserID)
			assert.Equal(t, fixedNow, r.CreatedAt)
			assert.NotEmpty(t, r.ID)

			stored, err := store.GetReminder(ctx, 42, r.ID)
			require.NoError(t, err)
			assert.Equal(t, r.Title, stored.Title)
		})
	}
}

func TestCreateFromText_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"reminder phrase without task", "set a reminder for tomorrow", ErrMissingTask},
		{"only a date", "tomorrow", ErrMissingTask},
		{"no date or time", "remind me to call mom", ErrMissingDue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)

			_, err := svc.CreateFromText(context.Background(), 1, tt.input)
			assert.ErrorIs(t, err, tt.want)

			all, err := store.ListReminders(context.Background(), 1)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

// ============================================================================
// Reminder operations
// ============================================================================

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, Draft{DueDate: fixedNow})
	assert.ErrorIs(t, err, ErrMissingTask)

	_, err = svc.Create(ctx, 1, Draft{Title: "x"})
	assert.ErrorIs(t, err, ErrMissingDue)

	r, err := svc.Create(ctx, 1, Draft{Title: "  x  ", DueDate: fixedNow, NotifyBefore: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, "x", r.Title)
	assert.Equal(t, models.PriorityMedium, r.Priority)
	assert.Equal(t, 0, r.NotifyBefore)
}

func TestViews(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mk := func(title string, due time.Time) *models.Reminder {
		r, err := svc.Create(ctx, 1, Draft{Title: title, DueDate: due})
		require.NoError(t, err)
		return r
	}

	overdue := mk("overdue", fixedNow.Add(-time.Hour))
	laterToday := mk("later today", fixedNow.Add(2*time.Hour))
	mk("next week", fixedNow.AddDate(0, 0, 7))
	done := mk("done", fixedNow.Add(time.Hour))
	_, err := svc.Complete(ctx, 1, done.ID)
	require.NoError(t, err)

	titles := func(rs []*models.Reminder, err error) []string {
		require.NoError(t, err)
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.Title
		}
		return out
	}

	assert.Equal(t, []string{"overdue", "done", "later today", "next week"}, titles(svc.List(ctx, 1)))
	assert.Equal(t, []string{"overdue", "later today", "next week"}, titles(svc.Pending(ctx, 1)))
	assert.Equal(t, []string{"done"}, titles(svc.Completed(ctx, 1)))
	assert.Equal(t, []string{overdue.Title, laterToday.Title}, titles(svc.Today(ctx, 1)))
	assert.Equal(t, []string{"overdue"}, titles(svc.Overdue(ctx, 1)))
	assert.Empty(t, titles(svc.List(ctx, 2)))
}

func TestUpdate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, 1, Draft{Title: "draft", DueDate: fixedNow})
	require.NoError(t, err)
	r.Notified = true
	require.NoError(t, store.SaveReminder(ctx, r))

	title := "final"
	priority := models.PriorityHigh
	later := fixedNow.Add(24 * time.Hour)
	updated, err := svc.Update(ctx, 1, r.ID, Patch{Title: &title, Priority: &priority, DueDate: &later, Tags: []string{"x"}})
	require.NoError(t, err)

	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.True(t, updated.DueDate.Equal(later))
	assert.False(t, updated.Notified)
	assert.Equal(t, []string{"x"}, updated.Tags)

	empty := " "
	_, err = svc.Update(ctx, 1, r.ID, Patch{Title: &empty})
	assert.ErrorIs(t, err, ErrMissingTask)

	_, err = svc.Update(ctx, 1, "missing", Patch{Title: &title})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCompleteAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, 1, Draft{Title: "x", DueDate: fixedNow})
	require.NoError(t, err)

	done, err := svc.Complete(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	_, err = svc.Complete(ctx, 2, r.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, 1, r.ID))
	assert.ErrorIs(t, svc.Delete(ctx, 1, r.ID), storage.ErrNotFound)
}

func TestLookup(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"abcd1111", "abcd2222", "ffff0000"} {
		require.NoError(t, store.SaveReminder(ctx, &models.Reminder{ID: id, UserID: 1, Title: id, DueDate: fixedNow}))
	}

	tests := []struct {
		ref     string
		want    string
		wantErr error
	}{
		{ref: "abcd1111", want: "abcd1111"},
		{ref: "ffff", want: "ffff0000"},
		{ref: " abcd2 ", want: "abcd2222"},
		{ref: "abcd", wantErr: ErrAmbiguousRef},
		{ref: "ff", wantErr: storage.ErrNotFound},
		{ref: "9999", wantErr: storage.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			r, err := svc.Lookup(ctx, 1, tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.ID)
		})
	}
}

// ============================================================================
// Alerts
// ============================================================================

func TestAlerts(t *testing.T) {
	now := fixedNow
	svc, _ := newTestService(t)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := svc.CreateAlert(ctx, 1, models.AlertInfo, "one", "first", "test")
	require.NoError(t, err)
	now = now.Add(time.Minute)
	second, err := svc.CreateAlert(ctx, 1, models.AlertWarning, "two", "second", "test")
	require.NoError(t, err)

	alerts, err := svc.Alerts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, second.ID, alerts[0].ID)

	count, err := svc.UnreadAlertCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, svc.MarkAlertRead(ctx, 1, first.ID))
	require.NoError(t, svc.MarkAlertRead(ctx, 1, first.ID))
	assert.ErrorIs(t, svc.MarkAlertRead(ctx, 1, "missing"), storage.ErrNotFound)

	unread, err := svc.UnreadAlerts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	changed, err := svc.MarkAllAlertsRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	count, err = svc.UnreadAlertCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, svc.DeleteAlert(ctx, 1, first.ID))
	assert.ErrorIs(t, svc.DeleteAlert(ctx, 1, first.ID), storage.ErrNotFound)

	require.NoError(t, svc.ClearAlerts(ctx, 1))
	alerts, err = svc.Alerts(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
