package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/deskbot/internal/chat"
	"github.com/xaenox/deskbot/internal/classifier"
	"github.com/xaenox/deskbot/internal/models"
	"github.com/xaenox/deskbot/internal/reminders"
	"github.com/xaenox/deskbot/internal/storage"
)

const commandsHelp = `Available commands:
/start - Show the welcome message
/help - Show this help message
/reset - Clear the conversation
/history - Show recent messages
/remind <text> - Create a reminder, e.g. /remind call John tomorrow at 3pm
/reminders - List pending reminders
/done <id> - Mark a reminder as done
/delete <id> - Delete a reminder
/alerts - Show unread alerts
/readall - Mark all alerts as read`

const (
	shortIDLen     = 8
	historyPreview = 200
)

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "reset":
		b.handleReset(message)
	case "history":
		b.handleHistory(message)
	case "remind":
		b.handleRemind(ctx, message)
	case "reminders":
		b.handleReminders(ctx, message)
	case "done":
		b.handleDone(ctx, message)
	case "delete":
		b.handleDelete(ctx, message)
	case "alerts":
		b.handleAlerts(ctx, message)
	case "readall":
		b.handleReadAll(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	b.session(message.Chat.ID)
	b.sendMarkdown(message.Chat.ID, chat.WelcomeMessage, 0)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	b.sendMarkdown(message.Chat.ID, classifier.HelpText()+"\n\n"+commandsHelp, 0)
}

func (b *Bot) handleReset(message *tgbotapi.Message) {
	s := b.session(message.Chat.ID)
	s.mu.Lock()
	s.chat.Reset()
	s.mu.Unlock()

	b.sendMarkdown(message.Chat.ID, "🧹 Conversation cleared.\n\n"+chat.WelcomeMessage, 0)
}

func (b *Bot) handleHistory(message *tgbotapi.Message) {
	s := b.session(message.Chat.ID)
	s.mu.Lock()
	history := s.chat.History()
	s.mu.Unlock()

	// the welcome message is always first
	history = history[1:]
	if len(history) == 0 {
		b.sendMessage(message.Chat.ID, "You don't have any messages yet.")
		return
	}
	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}

	response := "*Your recent messages:*\n\n"
	for _, m := range history {
		response += fmt.Sprintf("*%s* %s\n", roleLabel(m.Role), escapeMarkdown(m.Timestamp.In(b.loc).Format("15:04")))
		response += escapeMarkdown(preview(m.Content)) + "\n\n"
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, response)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send history message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func roleLabel(r models.Role) string {
	switch r {
	case models.RoleUser:
		return "You"
	case models.RoleAssistant:
		return "Assistant"
	default:
		return "System"
	}
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= historyPreview {
		return s
	}
	return string([]rune(s)[:historyPreview]) + "…"
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func (b *Bot) handleRemind(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		b.sendMessage(chatID, "Usage: /remind call John tomorrow at 3pm")
		return
	}

	r, err := b.reminders.CreateFromText(ctx, chatID, text)
	switch {
	case errors.Is(err, reminders.ErrMissingTask):
		b.sendErrorMessage(chatID, "Sorry, I couldn't tell what to remind you about. Try /remind call John tomorrow at 3pm")
		return
	case errors.Is(err, reminders.ErrMissingDue):
		b.sendErrorMessage(chatID, "Sorry, I couldn't work out when. Add a date or time, e.g. tomorrow at 3pm.")
		return
	case err != nil:
		b.logger.Error("Failed to create reminder",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, "Sorry, I couldn't save your reminder. Please try again.")
		return
	}

	reply := fmt.Sprintf("⏰ Reminder saved: **%s**\n**Due:** %s\n**Priority:** %s\n**ID:** %s",
		r.Title, b.formatTime(r.DueDate), r.Priority, shortID(r.ID))
	b.sendMarkdown(chatID, reply, message.MessageID)
}

func (b *Bot) handleReminders(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	pending, err := b.reminders.Pending(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to list reminders",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, "Sorry, I couldn't retrieve your reminders.")
		return
	}

	if len(pending) == 0 {
		b.sendMessage(chatID, "You don't have any pending reminders.")
		return
	}

	var sb strings.Builder
	sb.WriteString("⏰ **Your Reminders**\n\n")
	for _, r := range pending {
		fmt.Fprintf(&sb, "• **%s** (%s)\n   due %s · id %s\n", r.Title, r.Priority, b.formatTime(r.DueDate), shortID(r.ID))
	}
	b.sendMarkdown(chatID, sb.String(), 0)
}

func (b *Bot) handleDone(ctx context.Context, message *tgbotapi.Message) {
	r, ok := b.lookupReminder(ctx, message)
	if !ok {
		return
	}
	if _, err := b.reminders.Complete(ctx, message.Chat.ID, r.ID); err != nil {
		b.logger.Error("Failed to complete reminder",
			zap.Error(err),
			zap.String("reminder_id", r.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't update that reminder.")
		return
	}
	b.sendMarkdown(message.Chat.ID, "✅ Done: **"+r.Title+"**", 0)
}

func (b *Bot) handleDelete(ctx context.Context, message *tgbotapi.Message) {
	r, ok := b.lookupReminder(ctx, message)
	if !ok {
		return
	}
	if err := b.reminders.Delete(ctx, message.Chat.ID, r.ID); err != nil {
		b.logger.Error("Failed to delete reminder",
			zap.Error(err),
			zap.String("reminder_id", r.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't delete that reminder.")
		return
	}
	b.sendMarkdown(message.Chat.ID, "🗑 Deleted: **"+r.Title+"**", 0)
}

func (b *Bot) lookupReminder(ctx context.Context, message *tgbotapi.Message) (*models.Reminder, bool) {
	chatID := message.Chat.ID
	ref := strings.TrimSpace(message.CommandArguments())
	if ref == "" {
		b.sendMessage(chatID, fmt.Sprintf("Usage: /%s <id>. Use /reminders to see the IDs.", message.Command()))
		return nil, false
	}

	r, err := b.reminders.Lookup(ctx, chatID, ref)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.sendErrorMessage(chatID, "Sorry, I couldn't find that reminder.")
		return nil, false
	case errors.Is(err, reminders.ErrAmbiguousRef):
		b.sendErrorMessage(chatID, "That ID matches more than one reminder. Please use more characters.")
		return nil, false
	case err != nil:
		b.logger.Error("Failed to look up reminder",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, "Sorry, I couldn't retrieve that reminder.")
		return nil, false
	}
	return r, true
}

func (b *Bot) handleAlerts(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	unread, err := b.reminders.UnreadAlerts(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to list alerts",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, "Sorry, I couldn't retrieve your alerts.")
		return
	}

	if len(unread) == 0 {
		b.sendMessage(chatID, "No unread alerts.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 **Unread alerts (%d)**\n\n", len(unread))
	for _, a := range unread {
		fmt.Fprintf(&sb, "**%s**: %s\n", a.Title, a.Message)
	}
	b.sendMarkdown(chatID, sb.String(), 0)
}

func (b *Bot) handleReadAll(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	n, err := b.reminders.MarkAllAlertsRead(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to mark alerts read",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, "Sorry, I couldn't update your alerts.")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("Marked %d alerts as read.", n))
}
