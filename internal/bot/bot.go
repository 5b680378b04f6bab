package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/deskbot/internal/chat"
	"github.com/xaenox/deskbot/internal/classifier"
	"github.com/xaenox/deskbot/internal/models"
	"github.com/xaenox/deskbot/internal/reminders"
)

// API is the subset of *tgbotapi.BotAPI the bot talks to.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot serves one conversation per Telegram chat. Messages of the same chat
// are handled one at a time in arrival order; different chats proceed in
// parallel.
// Reminders are owned by the chat they were created in.
type Bot struct {
	api       API
	clf       classifier.Classifier
	reminders *reminders.Service
	logger    *zap.Logger

	threshold    float64
	historyLimit int
	loc          *time.Location

	mu       sync.Mutex
	sessions map[int64]*session
}

type session struct {
	mu   sync.Mutex
	chat *chat.Service

	// inbox holds updates not yet handled, in arrival order.
	inboxMu  sync.Mutex
	inbox    []*tgbotapi.Message
	draining bool
}

type Option func(*Bot)

func WithLowConfidenceThreshold(threshold float64) Option {
	return func(b *Bot) {
		b.threshold = threshold
	}
}

// WithHistoryLimit caps how many messages /history shows.
func WithHistoryLimit(n int) Option {
	return func(b *Bot) {
		b.historyLimit = n
	}
}

// WithLocation sets the zone reminder times are displayed in.
func WithLocation(loc *time.Location) Option {
	return func(b *Bot) {
		b.loc = loc
	}
}

func New(token string, debug bool, clf classifier.Classifier, reminderSvc *reminders.Service, logger *zap.Logger, opts ...Option) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = debug

	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))
	return NewWithAPI(api, clf, reminderSvc, logger, opts...), nil
}

func NewWithAPI(api API, clf classifier.Classifier, reminderSvc *reminders.Service, logger *zap.Logger, opts ...Option) *Bot {
	b := &Bot{
		api:          api,
		clf:          clf,
		reminders:    reminderSvc,
		logger:       logger,
		threshold:    chat.DefaultLowConfidenceThreshold,
		historyLimit: 10,
		loc:          time.UTC,
		sessions:     make(map[int64]*session),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start consumes updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			b.enqueue(ctx, update.Message)
		}
	}
}

func (b *Bot) session(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, exists := b.sessions[chatID]; exists {
		return s
	}

	s := &session{}
	s.chat = chat.NewService(b.clf, b.logger.With(zap.Int64("chat_id", chatID)),
		chat.WithLowConfidenceThreshold(b.threshold),
		chat.WithObserver(func(m models.ChatMessage) {
			if m.IsLoading {
				b.sendTyping(chatID)
			}
		}),
	)
	b.sessions[chatID] = s
	return s
}

// enqueue hands message to its chat's worker, starting one if the chat is
// idle. Each chat is drained by at most one goroutine at a time.
func (b *Bot) enqueue(ctx context.Context, message *tgbotapi.Message) {
	s := b.session(message.Chat.ID)

	s.inboxMu.Lock()
	s.inbox = append(s.inbox, message)
	if s.draining {
		s.inboxMu.Unlock()
		return
	}
	s.draining = true
	s.inboxMu.Unlock()

	go b.drain(ctx, s)
}

func (b *Bot) drain(ctx context.Context, s *session) {
	for {
		s.inboxMu.Lock()
		if len(s.inbox) == 0 {
			s.draining = false
			s.inboxMu.Unlock()
			return
		}
		message := s.inbox[0]
		s.inbox = s.inbox[1:]
		s.inboxMu.Unlock()

		b.HandleMessage(ctx, message)
	}
}

// HandleMessage routes one incoming message.
func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if content == "" {
		b.sendMessage(message.Chat.ID, "Sorry, I can only read text messages.")
		return
	}

	s := b.session(message.Chat.ID)
	s.mu.Lock()
	reply := s.chat.ProcessUserMessage(ctx, content)
	s.mu.Unlock()

	b.sendMarkdown(message.Chat.ID, reply.Content, message.MessageID)
}

// DeliverReminder notifies the owning chat that a reminder is due.
func (b *Bot) DeliverReminder(ctx context.Context, r *models.Reminder) error {
	text := fmt.Sprintf("⏰ **Reminder:** %s\n**Due:** %s", r.Title, b.formatTime(r.DueDate))

	b.mu.Lock()
	s, exists := b.sessions[r.UserID]
	b.mu.Unlock()
	if exists {
		s.mu.Lock()
		s.chat.AddSystemMessage(text)
		s.mu.Unlock()
	}

	msg := tgbotapi.NewMessage(r.UserID, toMarkdownV2(text))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder %s: %w", r.ID, err)
	}
	return nil
}

func (b *Bot) formatTime(t time.Time) string {
	return t.In(b.loc).Format("Mon Jan 2 15:04")
}

func (b *Bot) sendTyping(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("Failed to send typing action",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

// sendMarkdown converts reply Markdown to MarkdownV2 and falls back to the
// raw text when Telegram rejects the entities.
func (b *Bot) sendMarkdown(chatID int64, text string, replyToID int) {
	msg := tgbotapi.NewMessage(chatID, toMarkdownV2(text))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = replyToID

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Failed to send formatted message, retrying as plain text",
			zap.Error(err),
			zap.Int64("chat_id", chatID))

		plain := tgbotapi.NewMessage(chatID, text)
		plain.ReplyToMessageID = replyToID
		if _, err := b.api.Send(plain); err != nil {
			b.logger.Error("Failed to send message",
				zap.Error(err),
				zap.Int64("chat_id", chatID))
		}
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
