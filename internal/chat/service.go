package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/deskbot/internal/classifier"
	"github.com/xaenox/deskbot/internal/metrics"
	"github.com/xaenox/deskbot/internal/models"
)

const (
	// WelcomeMessage seeds every fresh conversation.
	WelcomeMessage = `👋 Hello! I'm your AI assistant. I can help you with:

📅 **Calendar** - Schedule meetings, view your calendar
⏰ **Reminders** - Create and manage reminders
📁 **SharePoint** - Search for documents
💾 **Dataverse** - Query your data

Type your request in natural language, or type "help" for more options.`

	// ErrorReply replaces any reply whose builder failed.
	ErrorReply = "Sorry, I encountered an error. Please try again."

	DefaultLowConfidenceThreshold = 0.5
)

// Observer is notified of every message appended to the history,
// including the loading placeholder.
type Observer func(msg models.ChatMessage)

// Service turns user utterances into assistant replies and keeps the
// conversation history. A Service is not safe for concurrent use; callers
// serialize ProcessUserMessage per conversation.
type Service struct {
	classifier classifier.Classifier
	responders map[models.Intent]ResponderFunc
	threshold  float64
	observer   Observer
	now        func() time.Time
	logger     *zap.Logger

	history []models.ChatMessage
}

type Option func(*Service)

// WithResponder overrides the reply builder for one intent.
func WithResponder(intent models.Intent, fn ResponderFunc) Option {
	return func(s *Service) {
		s.responders[intent] = fn
	}
}

// WithLowConfidenceThreshold sets the confidence below which a non-unknown
// intent gets a clarification question instead of a reply.
func WithLowConfidenceThreshold(threshold float64) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a conversation seeded with the welcome message.
func NewService(clf classifier.Classifier, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		classifier: clf,
		responders: DefaultResponders(),
		threshold:  DefaultLowConfidenceThreshold,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// ProcessUserMessage records the input, produces a reply and returns the
// assistant message appended to the history. It never fails: builder
// errors and panics resolve to ErrorReply.
func (s *Service) ProcessUserMessage(ctx context.Context, input string) models.ChatMessage {
	start := time.Now()

	s.append(s.newMessage(models.RoleUser, input, false))
	s.append(s.newMessage(models.RoleAssistant, "", true))

	res, content, outcome := s.respond(ctx, input)

	s.dropLoading()
	reply := s.newMessage(models.RoleAssistant, content, false)
	s.append(reply)

	metrics.ChatReplies.WithLabelValues(string(res.Intent), outcome).Inc()
	metrics.ReplyDuration.WithLabelValues(string(res.Intent)).Observe(time.Since(start).Seconds())

	return reply
}

func (s *Service) respond(ctx context.Context, input string) (res models.IntentResult, content, outcome string) {
	res = models.IntentResult{Intent: models.IntentUnknown, OriginalText: input}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("reply builder panicked: %v", r)
			}
		}()
		res = s.classifier.Classify(input)
		metrics.IntentsClassified.WithLabelValues(string(res.Intent)).Inc()

		if res.Intent != models.IntentUnknown && res.Confidence < s.threshold {
			content, outcome = clarificationReply(res), metrics.OutcomeClarify
			return
		}

		fn, ok := s.responders[res.Intent]
		if !ok {
			fn = s.responders[models.IntentUnknown]
		}
		content, err = fn(ctx, res)
		outcome = metrics.OutcomeAnswered
	}()

	if err != nil {
		s.logger.Error("Failed to build reply",
			zap.Error(err),
			zap.String("intent", string(res.Intent)))
		return res, ErrorReply, metrics.OutcomeError
	}
	return res, content, outcome
}

// History returns a copy of the conversation in chronological order.
func (s *Service) History() []models.ChatMessage {
	out := make([]models.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// Reset clears the conversation back to the single welcome message.
func (s *Service) Reset() {
	s.history = nil
	s.AddSystemMessage(WelcomeMessage)
}

// AddSystemMessage appends a system message, e.g. a reminder notification.
func (s *Service) AddSystemMessage(content string) models.ChatMessage {
	msg := s.newMessage(models.RoleSystem, content, false)
	s.append(msg)
	return msg
}

// Busy reports whether a reply is being produced.
func (s *Service) Busy() bool {
	for _, m := range s.history {
		if m.IsLoading {
			return true
		}
	}
	return false
}

func (s *Service) append(msg models.ChatMessage) {
	s.history = append(s.history, msg)
	if s.observer != nil {
		s.observer(msg)
	}
}

func (s *Service) dropLoading() {
	kept := s.history[:0]
	for _, m := range s.history {
		if !m.IsLoading {
			kept = append(kept, m)
		}
	}
	s.history = kept
}

func (s *Service) newMessage(role models.Role, content string, loading bool) models.ChatMessage {
	return models.ChatMessage{
		ID:        newMessageID(),
		Content:   content,
		Role:      role,
		Timestamp: s.now(),
		IsLoading: loading,
	}
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
