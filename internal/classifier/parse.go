package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

var weekdays = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var namedTimes = map[string]TimeOfDay{
	"noon":      {Hours: 12},
	"midnight":  {Hours: 0},
	"morning":   {Hours: 9},
	"afternoon": {Hours: 14},
	"evening":   {Hours: 18},
}

var (
	relativeDatePattern = regexp.MustCompile(`(?:in\s+)?(\d+)\s+(days?|weeks?|months?)`)
	clockPattern        = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
	ordinalPattern      = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
)

// Layouts tried after dateparse gives up. Yearless forms take the current year.
var yearlessLayouts = []string{"January 2", "Jan 2", "1/2", "1-2"}

// ParseDate resolves a date expression relative to the classifier clock.
// A bare weekday is always strictly in the future; "next" adds a week.
func (c *RuleClassifier) ParseDate(text string) (time.Time, bool) {
	now := c.now()
	lower := strings.ToLower(strings.TrimSpace(text))

	switch lower {
	case "":
		return time.Time{}, false
	case "today", "tonight":
		return now, true
	case "tomorrow":
		return now.AddDate(0, 0, 1), true
	}

	for i, day := range weekdays {
		if !strings.Contains(lower, day) {
			continue
		}
		until := (i - int(now.Weekday()) + 7) % 7
		if until == 0 {
			until = 7
		}
		if strings.Contains(lower, "next") {
			until += 7
		}
		return now.AddDate(0, 0, until), true
	}

	if m := relativeDatePattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			switch {
			case strings.HasPrefix(m[2], "day"):
				return now.AddDate(0, 0, n), true
			case strings.HasPrefix(m[2], "week"):
				return now.AddDate(0, 0, 7*n), true
			default:
				return now.AddDate(0, n, 0), true
			}
		}
	}

	return parseAbsoluteDate(strings.TrimSpace(text), now)
}

func parseAbsoluteDate(text string, now time.Time) (time.Time, bool) {
	text = ordinalPattern.ReplaceAllString(text, "$1")

	if t, err := dateparse.ParseIn(text, now.Location()); err == nil {
		if t.Year() == 0 {
			t = t.AddDate(now.Year(), 0, 0)
		}
		return t, true
	}

	for _, layout := range yearlessLayouts {
		if t, err := time.ParseInLocation(layout, text, now.Location()); err == nil {
			return t.AddDate(now.Year(), 0, 0), true
		}
	}
	return time.Time{}, false
}

// ParseTime resolves named times and H[:MM][am|pm] expressions.
func (c *RuleClassifier) ParseTime(text string) (TimeOfDay, bool) {
	return ParseTime(text)
}

func ParseTime(text string) (TimeOfDay, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))

	if t, ok := namedTimes[lower]; ok {
		return t, true
	}

	m := clockPattern.FindStringSubmatch(lower)
	if m == nil {
		return TimeOfDay{}, false
	}

	hours, _ := strconv.Atoi(m[1])
	minutes := 0
	if m[2] != "" {
		minutes, _ = strconv.Atoi(m[2])
	}

	switch m[3] {
	case "pm":
		if hours < 12 {
			hours += 12
		}
	case "am":
		if hours == 12 {
			hours = 0
		}
	}

	return TimeOfDay{Hours: hours, Minutes: minutes}, true
}
