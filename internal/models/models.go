package models

// Intent is the high-level goal inferred from a user utterance.
type Intent string

const (
	IntentCreateEvent      Intent = "create_event"
	IntentViewCalendar     Intent = "view_calendar"
	IntentCreateReminder   Intent = "create_reminder"
	IntentViewReminders    Intent = "view_reminders"
	IntentSearchSharePoint Intent = "search_sharepoint"
	IntentQueryDataverse   Intent = "query_dataverse"
	IntentHelp             Intent = "help"
	IntentUnknown          Intent = "unknown"
)

// EntityType names the kind of span an entity extractor recognises.
type EntityType string

const (
	EntityDate     EntityType = "date"
	EntityTime     EntityType = "time"
	EntityDuration EntityType = "duration"
	EntityPerson   EntityType = "person"
	EntityLocation EntityType = "location"
	EntityPriority EntityType = "priority"
)

// Entity is a typed span of the original text. Offsets count characters
// (runes), not bytes.
type Entity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	StartIndex int        `json:"startIndex"`
	EndIndex   int        `json:"endIndex"`
}

// IntentResult is the outcome of classifying a single utterance.
type IntentResult struct {
	Intent       Intent   `json:"intent"`
	Confidence   float64  `json:"confidence"`
	Entities     []Entity `json:"entities"`
	OriginalText string   `json:"originalText"`
}

// First returns the first entity of the given type in start order.
func (r IntentResult) First(t EntityType) (Entity, bool) {
	for _, e := range r.Entities {
		if e.Type == t {
			return e, true
		}
	}
	return Entity{}, false
}

// All returns every entity whose type is one of types, preserving order.
func (r IntentResult) All(types ...EntityType) []Entity {
	var out []Entity
	for _, e := range r.Entities {
		for _, t := range types {
			if e.Type == t {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
