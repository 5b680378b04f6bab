package classifier

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xaenox/deskbot/internal/models"
)

// Classifier turns free text into an intent with its entities.
type Classifier interface {
	Classify(text string) models.IntentResult
}

// Scores are kept in hundredths so that 0.30 + 0.15k lands exactly on the
// decimal values callers compare against.
const (
	patternScore = 90
	keywordBase  = 30
	keywordStep  = 15
	keywordCap   = 80
)

// IntentDefinition is one row of the intent catalog. Patterns are strong
// signals; keywords are case-insensitive substrings used only when no pattern
// of the same definition matched.
type IntentDefinition struct {
	Intent   models.Intent
	Patterns []*regexp.Regexp
	Keywords []string
}

// EntityDefinition is one row of the entity catalog. A pattern's first
// capturing group, when non-empty, is the entity value.
type EntityDefinition struct {
	Type     models.EntityType
	Patterns []*regexp.Regexp
}

// RuleClassifier is a stateless pattern/keyword classifier. It is safe for
// concurrent use.
type RuleClassifier struct {
	intents  []IntentDefinition
	entities []EntityDefinition
	now      func() time.Time
}

type Option func(*RuleClassifier)

// WithIntents replaces the intent catalog. Order matters: on equal
// confidence the earlier definition wins.
func WithIntents(defs []IntentDefinition) Option {
	return func(c *RuleClassifier) {
		c.intents = defs
	}
}

// WithEntities replaces the entity catalog.
func WithEntities(defs []EntityDefinition) Option {
	return func(c *RuleClassifier) {
		c.entities = defs
	}
}

// WithClock sets the reference time used by ParseDate.
func WithClock(now func() time.Time) Option {
	return func(c *RuleClassifier) {
		c.now = now
	}
}

func NewRuleClassifier(opts ...Option) *RuleClassifier {
	c := &RuleClassifier{
		intents:  DefaultIntents(),
		entities: DefaultEntities(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify never fails: input that matches nothing yields IntentUnknown with
// zero confidence.
func (c *RuleClassifier) Classify(text string) models.IntentResult {
	intent, confidence := c.detectIntent(text)

	return models.IntentResult{
		Intent:       intent,
		Confidence:   confidence,
		Entities:     c.extractEntities(text),
		OriginalText: text,
	}
}

func (c *RuleClassifier) detectIntent(text string) (models.Intent, float64) {
	best := models.IntentUnknown
	bestScore := 0
	lower := strings.ToLower(text)

	for _, def := range c.intents {
		// strictly greater: ties keep the incumbent
		if score := def.score(text, lower); score > bestScore {
			best, bestScore = def.Intent, score
		}
	}

	return best, float64(bestScore) / 100
}

func (d IntentDefinition) score(text, lower string) int {
	for _, p := range d.Patterns {
		if p.MatchString(text) {
			return patternScore
		}
	}

	matched := make(map[string]struct{})
	for _, kw := range d.Keywords {
		kw = strings.ToLower(kw)
		if kw != "" && strings.Contains(lower, kw) {
			matched[kw] = struct{}{}
		}
	}
	if len(matched) == 0 {
		return 0
	}
	return min(keywordCap, keywordBase+keywordStep*len(matched))
}

type entityKey struct {
	typ   models.EntityType
	start int
	value string
}

func (c *RuleClassifier) extractEntities(text string) []models.Entity {
	entities := []models.Entity{}
	seen := make(map[entityKey]struct{})

	for _, def := range c.entities {
		for _, p := range def.Patterns {
			for _, m := range p.FindAllStringSubmatchIndex(text, -1) {
				vs, ve := m[0], m[1]
				if len(m) >= 4 && m[2] >= 0 && m[3] > m[2] {
					vs, ve = m[2], m[3]
				}

				value := strings.TrimSpace(text[vs:ve])
				if value == "" {
					continue
				}

				start := runeOffset(text, m[0])
				key := entityKey{typ: def.Type, start: start, value: value}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				entities = append(entities, models.Entity{
					Type:       def.Type,
					Value:      value,
					StartIndex: start,
					EndIndex:   runeOffset(text, m[1]),
				})
			}
		}
	}

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].StartIndex < entities[j].StartIndex
	})

	return entities
}

func runeOffset(s string, byteIdx int) int {
	return utf8.RuneCountInString(s[:byteIdx])
}
