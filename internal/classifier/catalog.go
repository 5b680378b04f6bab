package classifier

import (
	"regexp"

	"github.com/xaenox/deskbot/internal/models"
)

var defaultIntents = []IntentDefinition{
	{
		Intent: models.IntentCreateEvent,
		Patterns: compile(
			`(?i)schedule\s+(?:a\s+)?(?:meeting|event|appointment)`,
			`(?i)create\s+(?:a\s+)?(?:meeting|event|appointment)`,
			`(?i)set\s+up\s+(?:a\s+)?(?:meeting|event|appointment)`,
			`(?i)add\s+(?:a\s+)?(?:meeting|event|appointment)`,
			`(?i)book\s+(?:a\s+)?(?:meeting|event|appointment)`,
		),
		Keywords: []string{"schedule", "create", "set up", "add", "book", "meeting", "event", "appointment"},
	},
	{
		Intent: models.IntentViewCalendar,
		Patterns: compile(
			`(?i)show\s+(?:my\s+)?(?:calendar|schedule|events)`,
			`(?i)what(?:'s|\s+is)\s+(?:on\s+)?(?:my\s+)?(?:calendar|schedule)`,
			`(?i)(?:view|see|check)\s+(?:my\s+)?(?:calendar|schedule|events)`,
			`(?i)(?:what|which)\s+(?:meetings|events)\s+(?:do\s+I\s+have|are\s+scheduled)`,
		),
		Keywords: []string{"show", "view", "see", "check", "calendar", "schedule", "events", "meetings"},
	},
	{
		Intent: models.IntentCreateReminder,
		Patterns: compile(
			`(?i)remind\s+me\s+(?:to|about)`,
			`(?i)set\s+(?:a\s+)?reminder`,
			`(?i)create\s+(?:a\s+)?reminder`,
			`(?i)add\s+(?:a\s+)?reminder`,
			`(?i)don'?t\s+let\s+me\s+forget`,
		),
		Keywords: []string{"remind", "reminder", "don't forget", "remember"},
	},
	{
		Intent: models.IntentViewReminders,
		Patterns: compile(
			`(?i)show\s+(?:my\s+)?reminders`,
			`(?i)what\s+(?:are\s+)?(?:my\s+)?reminders`,
			`(?i)(?:view|see|check)\s+(?:my\s+)?reminders`,
			`(?i)list\s+(?:my\s+)?reminders`,
		),
		Keywords: []string{"reminders", "to-do", "tasks"},
	},
	{
		Intent: models.IntentSearchSharePoint,
		Patterns: compile(
			`(?i)(?:find|search|look\s+for)\s+(?:files?|documents?)\s+(?:in|on)\s+sharepoint`,
			`(?i)search\s+sharepoint\s+for`,
			`(?i)find\s+in\s+sharepoint`,
			`(?i)(?:get|retrieve)\s+(?:files?|documents?)\s+from\s+sharepoint`,
		),
		Keywords: []string{"sharepoint", "files", "documents", "search", "find"},
	},
	{
		Intent: models.IntentQueryDataverse,
		Patterns: compile(
			`(?i)(?:get|retrieve|fetch|query)\s+(?:data|records)\s+from\s+dataverse`,
			`(?i)search\s+dataverse`,
			`(?i)find\s+(?:in\s+)?dataverse`,
			`(?i)(?:show|list)\s+(?:my\s+)?(?:contacts?|accounts?|leads?)`,
		),
		Keywords: []string{"dataverse", "data", "records", "contacts", "accounts", "leads"},
	},
	{
		Intent: models.IntentHelp,
		Patterns: compile(
			`(?i)help`,
			`(?i)what\s+can\s+you\s+do`,
			`(?i)how\s+do\s+I`,
			`(?i)what\s+commands`,
		),
		Keywords: []string{"help", "assist", "support", "guide"},
	},
}

var defaultEntities = []EntityDefinition{
	{
		Type: models.EntityDate,
		Patterns: compile(
			`(?i)(?:on\s+)?((?:next\s+)?(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))`,
			`(?i)(?:on\s+)?(tomorrow|today|tonight)`,
			`(?i)(?:on\s+)?(\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?)`,
			`(?i)(?:on\s+)?((?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?(?:\s*,?\s*\d{4})?)`,
			`(?i)((?:in\s+)?\d+\s+(?:days?|weeks?|months?))`,
		),
	},
	{
		Type: models.EntityTime,
		Patterns: compile(
			`(?i)(?:at\s+)?(\d{1,2}:\d{2}\s*(?:am|pm)?)`,
			`(?i)(?:at\s+)?(\d{1,2}\s*(?:am|pm))`,
			`(?i)(?:at\s+)?(noon|midnight|morning|afternoon|evening)`,
		),
	},
	{
		Type: models.EntityDuration,
		Patterns: compile(
			`(?i)(?:for\s+)?(\d+\s+(?:minutes?|mins?|hours?|hrs?))`,
			`(?i)(\d+(?:\.\d+)?(?:\s*(?:hours?|hrs?)\b|h))`,
		),
	},
	{
		Type: models.EntityPerson,
		Patterns: compile(
			`with\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`,
			`invite\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`,
		),
	},
	{
		Type: models.EntityLocation,
		Patterns: compile(
			`\b(?:at|in)\s+(?:the\s+)?([A-Z][A-Za-z0-9\s]+(?:room|office|building|hall)?)`,
			`(?i)(?:location|place):\s*([A-Za-z0-9\s]+)`,
		),
	},
	{
		Type: models.EntityPriority,
		Patterns: compile(
			`(?i)(?:priority|importance):\s*(low|medium|high|urgent)`,
			`(?i)(low|medium|high|urgent)\s+priority`,
		),
	},
}

// DefaultIntents returns the built-in intent catalog in evaluation order.
func DefaultIntents() []IntentDefinition {
	return append([]IntentDefinition(nil), defaultIntents...)
}

// DefaultEntities returns the built-in entity catalog in scan order.
func DefaultEntities() []EntityDefinition {
	return append([]EntityDefinition(nil), defaultEntities...)
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(expr)
	}
	return out
}
