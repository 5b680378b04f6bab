package reminders

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/deskbot/internal/classifier"
	"github.com/xaenox/deskbot/internal/metrics"
	"github.com/xaenox/deskbot/internal/models"
	"github.com/xaenox/deskbot/internal/storage"
)

var (
	ErrMissingTask  = errors.New("reminder has no task")
	ErrMissingDue   = errors.New("reminder has no due date or time")
	ErrAmbiguousRef = errors.New("reference matches more than one item")
)

// Hour used when a reminder names a day but no time.
const defaultDueHour = 9

// minRefLen is the shortest ID prefix Lookup accepts.
const minRefLen = 4

// Parser is the subset of the rule classifier the service relies on.
type Parser interface {
	Classify(text string) models.IntentResult
	ParseDate(text string) (time.Time, bool)
	ParseTime(text string) (classifier.TimeOfDay, bool)
}

// Draft holds the caller-supplied fields of a new reminder.
type Draft struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    models.Priority
	// NotifyBefore in minutes; nil selects the service default.
	NotifyBefore *int
	Tags         []string
}

// Patch lists reminder fields to change; nil fields are left alone.
type Patch struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	Priority     *models.Priority
	NotifyBefore *int
	Tags         []string
}

type Service struct {
	store        storage.Storage
	parser       Parser
	now          func() time.Time
	loc          *time.Location
	notifyBefore int
	logger       *zap.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the zone used for calendar-day arithmetic.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.loc = loc
	}
}

// WithDefaultNotifyBefore sets the lead time, in minutes, for reminders
// created without one.
func WithDefaultNotifyBefore(minutes int) Option {
	return func(s *Service) {
		s.notifyBefore = minutes
	}
}

func NewService(store storage.Storage, parser Parser, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		parser: parser,
		now:    time.Now,
		loc:    time.UTC,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	trailingFiller = regexp.MustCompile(`(?i)[\s,.;:-]+(?:(?:on|at|by|for)[\s,.;:-]*)*$`)
	spaces         = regexp.MustCompile(`\s+`)
)

// CreateFromText builds a reminder from a natural-language request such as
// "remind me to call John at 3pm tomorrow". A time without a date lands on
// the next occurrence of that time; a date without a time lands at 09:00.
func (s *Service) CreateFromText(ctx context.Context, userID int64, text string) (*models.Reminder, error) {
	res := s.parser.Classify(text)

	title, err := s.title(res)
	if err != nil {
		return nil, err
	}

	due, err := s.due(res)
	if err != nil {
		return nil, err
	}

	draft := Draft{Title: title, DueDate: due, Priority: models.PriorityMedium}
	if e, ok := res.First(models.EntityPriority); ok {
		if p, ok := models.ParsePriority(strings.ToLower(e.Value)); ok {
			draft.Priority = p
		}
	}

	return s.Create(ctx, userID, draft)
}

func (s *Service) title(res models.IntentResult) (string, error) {
	cleaned := stripEntities(res.OriginalText, res.Entities,
		models.EntityDate, models.EntityTime, models.EntityPriority)

	if task, ok := classifier.ExtractTask(cleaned); ok {
		return tidy(task), nil
	}
	// "set a reminder" and friends carry no task of their own
	if res.Intent == models.IntentCreateReminder {
		return "", ErrMissingTask
	}
	if title := tidy(cleaned); title != "" {
		return title, nil
	}
	return "", ErrMissingTask
}

func (s *Service) due(res models.IntentResult) (time.Time, error) {
	now := s.now().In(s.loc)

	var (
		day     time.Time
		hasDay  bool
		clock   classifier.TimeOfDay
		hasTime bool
	)
	if e, ok := res.First(models.EntityDate); ok {
		day, hasDay = s.parser.ParseDate(e.Value)
	}
	if e, ok := res.First(models.EntityTime); ok {
		clock, hasTime = s.parser.ParseTime(e.Value)
		hasTime = hasTime && clock.Hours < 24 && clock.Minutes < 60
	}

	switch {
	case hasDay && hasTime:
		return at(day, clock, s.loc), nil
	case hasDay:
		return at(day, classifier.TimeOfDay{Hours: defaultDueHour}, s.loc), nil
	case hasTime:
		due := at(now, clock, s.loc)
		if !due.After(now) {
			due = due.AddDate(0, 0, 1)
		}
		return due, nil
	default:
		return time.Time{}, ErrMissingDue
	}
}

func at(day time.Time, clock classifier.TimeOfDay, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hours, clock.Minutes, 0, 0, loc)
}

// stripEntities removes the spans of the given entity types from text.
func stripEntities(text string, entities []models.Entity, types ...models.EntityType) string {
	runes := []rune(text)
	drop := make([]bool, len(runes))
	for _, e := range entities {
		for _, t := range types {
			if e.Type != t {
				continue
			}
			for i := e.StartIndex; i < e.EndIndex && i < len(runes); i++ {
				drop[i] = true
			}
		}
	}

	var b strings.Builder
	for i, r := range runes {
		if drop[i] {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func tidy(s string) string {
	s = spaces.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.TrimSpace(trailingFiller.ReplaceAllString(s, ""))
}

// Create stores a new reminder for the user.
func (s *Service) Create(ctx context.Context, userID int64, d Draft) (*models.Reminder, error) {
	if strings.TrimSpace(d.Title) == "" {
		return nil, ErrMissingTask
	}
	if d.DueDate.IsZero() {
		return nil, ErrMissingDue
	}

	priority := d.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	notifyBefore := s.notifyBefore
	if d.NotifyBefore != nil {
		notifyBefore = *d.NotifyBefore
	}

	r := &models.Reminder{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        strings.TrimSpace(d.Title),
		Description:  d.Description,
		DueDate:      d.DueDate,
		Priority:     priority,
		NotifyBefore: notifyBefore,
		Tags:         d.Tags,
		CreatedAt:    s.now(),
	}
	if err := s.store.SaveReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	metrics.RemindersCreated.Inc()
	s.logger.Info("Reminder created",
		zap.Int64("user_id", userID),
		zap.String("reminder_id", r.ID),
		zap.Time("due", r.DueDate))
	return r, nil
}

// List returns all of the user's reminders ordered by due date.
func (s *Service) List(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	reminders, err := s.store.ListReminders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

func (s *Service) Pending(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	return s.filter(ctx, userID, func(r *models.Reminder) bool { return !r.Completed })
}

func (s *Service) Completed(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	return s.filter(ctx, userID, func(r *models.Reminder) bool { return r.Completed })
}

// Today returns pending reminders due on the current calendar day.
func (s *Service) Today(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	y, m, d := s.now().In(s.loc).Date()
	return s.filter(ctx, userID, func(r *models.Reminder) bool {
		ry, rm, rd := r.DueDate.In(s.loc).Date()
		return !r.Completed && ry == y && rm == m && rd == d
	})
}

// Overdue returns pending reminders whose due date has passed.
func (s *Service) Overdue(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	now := s.now()
	return s.filter(ctx, userID, func(r *models.Reminder) bool {
		return !r.Completed && r.DueDate.Before(now)
	})
}

func (s *Service) filter(ctx context.Context, userID int64, keep func(*models.Reminder) bool) ([]*models.Reminder, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Reminder, 0, len(all))
	for _, r := range all {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID int64, id string) (*models.Reminder, error) {
	r, err := s.store.GetReminder(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder %s: %w", id, err)
	}
	return r, nil
}

// Lookup resolves a full reminder ID or a unique prefix of at least four
// characters.
func (s *Service) Lookup(ctx context.Context, userID int64, ref string) (*models.Reminder, error) {
	ref = strings.TrimSpace(ref)
	if r, err := s.store.GetReminder(ctx, userID, ref); err == nil {
		return r, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to get reminder %s: %w", ref, err)
	}

	if len(ref) < minRefLen {
		return nil, fmt.Errorf("reminder %q: %w", ref, storage.ErrNotFound)
	}

	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	var match *models.Reminder
	for _, r := range all {
		if !strings.HasPrefix(r.ID, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("reminder %q: %w", ref, ErrAmbiguousRef)
		}
		match = r
	}
	if match == nil {
		return nil, fmt.Errorf("reminder %q: %w", ref, storage.ErrNotFound)
	}
	return match, nil
}

// Complete marks the reminder done.
func (s *Service) Complete(ctx context.Context, userID int64, id string) (*models.Reminder, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	r.Completed = true
	if err := s.store.SaveReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to complete reminder %s: %w", id, err)
	}
	return r, nil
}

// Update applies p. Moving the due date or lead time re-arms the
// notification.
func (s *Service) Update(ctx context.Context, userID int64, id string, p Patch) (*models.Reminder, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, ErrMissingTask
		}
		r.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.DueDate != nil {
		if p.DueDate.IsZero() {
			return nil, ErrMissingDue
		}
		r.DueDate = *p.DueDate
		r.Notified = false
	}
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
	if p.NotifyBefore != nil {
		r.NotifyBefore = *p.NotifyBefore
		r.Notified = false
	}
	if p.Tags != nil {
		r.Tags = p.Tags
	}

	if err := s.store.SaveReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update reminder %s: %w", id, err)
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	if err := s.store.DeleteReminder(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete reminder %s: %w", id, err)
	}
	return nil
}
