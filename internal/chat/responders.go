package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/xaenox/deskbot/internal/classifier"
	"github.com/xaenox/deskbot/internal/models"
)

// ResponderFunc builds the reply text for a classified utterance.
type ResponderFunc func(ctx context.Context, res models.IntentResult) (string, error)

const (
	defaultTask  = "your task"
	defaultQuery = "your query"
)

// DataverseCollection picks the entity collection a query refers to.
func DataverseCollection(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "contact"):
		return "contacts"
	case strings.Contains(lower, "account"):
		return "accounts"
	case strings.Contains(lower, "lead"):
		return "leads"
	default:
		return "records"
	}
}

// DefaultResponders returns one builder per known intent.
func DefaultResponders() map[models.Intent]ResponderFunc {
	return map[models.Intent]ResponderFunc{
		models.IntentCreateEvent:      static(createEventReply),
		models.IntentViewCalendar:     static(viewCalendarReply),
		models.IntentCreateReminder:   static(createReminderReply),
		models.IntentViewReminders:    static(viewRemindersReply),
		models.IntentSearchSharePoint: static(searchSharePointReply),
		models.IntentQueryDataverse:   static(queryDataverseReply),
		models.IntentHelp:             static(func(models.IntentResult) string { return classifier.HelpText() }),
		models.IntentUnknown:          static(unknownReply),
	}
}

func static(fn func(models.IntentResult) string) ResponderFunc {
	return func(_ context.Context, res models.IntentResult) (string, error) {
		return fn(res), nil
	}
}

func clarificationReply(res models.IntentResult) string {
	return fmt.Sprintf("I think you might be asking about %s, but I'm not entirely sure. Could you please rephrase your request?",
		strings.ReplaceAll(string(res.Intent), "_", " "))
}

func createEventReply(res models.IntentResult) string {
	var b strings.Builder
	b.WriteString("📅 I'll help you create an event.\n\n")

	if date, ok := res.First(models.EntityDate); ok {
		fmt.Fprintf(&b, "**Date:** %s\n", date.Value)
	} else {
		b.WriteString("**Date:** Please specify a date\n")
	}

	if tm, ok := res.First(models.EntityTime); ok {
		fmt.Fprintf(&b, "**Time:** %s\n", tm.Value)
	} else {
		b.WriteString("**Time:** Please specify a time\n")
	}

	if person, ok := res.First(models.EntityPerson); ok {
		fmt.Fprintf(&b, "**With:** %s\n", person.Value)
	}
	if location, ok := res.First(models.EntityLocation); ok {
		fmt.Fprintf(&b, "**Location:** %s\n", location.Value)
	}

	b.WriteString("\n*To confirm this event, please use the Calendar page to finalize the details.*")
	return b.String()
}

func viewCalendarReply(res models.IntentResult) string {
	var b strings.Builder
	b.WriteString("📅 **Your Calendar**\n\n")

	if date, ok := res.First(models.EntityDate); ok {
		fmt.Fprintf(&b, "Showing events for: %s\n\n", date.Value)
	} else {
		b.WriteString("Showing today's events:\n\n")
	}

	b.WriteString("*Navigate to the Calendar page to view and manage your events.*")
	return b.String()
}

func createReminderReply(res models.IntentResult) string {
	task, ok := classifier.ExtractTask(res.OriginalText)
	if !ok {
		task = defaultTask
	}

	var b strings.Builder
	b.WriteString("⏰ I'll create a reminder for you.\n\n")
	fmt.Fprintf(&b, "**Task:** %s\n", task)

	date, hasDate := res.First(models.EntityDate)
	tm, hasTime := res.First(models.EntityTime)
	switch {
	case hasDate && hasTime:
		fmt.Fprintf(&b, "**Due:** %s at %s\n", date.Value, tm.Value)
	case hasDate:
		fmt.Fprintf(&b, "**Due:** %s\n", date.Value)
	case hasTime:
		fmt.Fprintf(&b, "**Due:** %s\n", tm.Value)
	}

	if priority, ok := res.First(models.EntityPriority); ok {
		fmt.Fprintf(&b, "**Priority:** %s\n", priority.Value)
	}

	b.WriteString("\n*Navigate to the Reminders page to view and manage your reminders.*")
	return b.String()
}

func viewRemindersReply(models.IntentResult) string {
	return "⏰ **Your Reminders**\n\n*Navigate to the Reminders page to view all your reminders and tasks.*"
}

func searchSharePointReply(res models.IntentResult) string {
	query, ok := classifier.ExtractSearchQuery(res.OriginalText)
	if !ok {
		query = defaultQuery
	}

	var b strings.Builder
	b.WriteString("📁 **SharePoint Search**\n\n")
	fmt.Fprintf(&b, "Searching for: \"%s\"\n\n", query)
	b.WriteString("*To access SharePoint content, please ensure you are authenticated and have the appropriate permissions.*")
	return b.String()
}

func queryDataverseReply(res models.IntentResult) string {
	var b strings.Builder
	b.WriteString("💾 **Dataverse Query**\n\n")
	fmt.Fprintf(&b, "Querying: %s\n", DataverseCollection(res.OriginalText))

	if filters := res.All(models.EntityPerson, models.EntityLocation); len(filters) > 0 {
		b.WriteString("Filters:\n")
		for _, e := range filters {
			fmt.Fprintf(&b, "- %s: %s\n", e.Type, e.Value)
		}
	}

	b.WriteString("\n*To access Dataverse data, please ensure you are authenticated and have the appropriate permissions.*")
	return b.String()
}

func unknownReply(res models.IntentResult) string {
	return fmt.Sprintf(`I'm not sure how to help with "%s".

Here are some things I can help you with:
- 📅 Schedule meetings and view your calendar
- ⏰ Create and manage reminders
- 📁 Search SharePoint for documents
- 💾 Query data from Dataverse

Type "help" for more detailed information about available commands.`, res.OriginalText)
}
