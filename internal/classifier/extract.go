package classifier

import (
	"regexp"
	"strings"
)

var (
	taskPattern  = regexp.MustCompile(`(?i)remind\s+me\s+(?:to|about)\s+(.+?)(?:\s+(?:on|at|by)\b|$)`)
	queryPattern = regexp.MustCompile(`(?i)(?:find|search|look\s+for)\s+(?:files?|documents?)?\s*(?:in\s+sharepoint\s+)?(?:for\s+)?(.+)`)
)

// ExtractTask returns the task phrase of a "remind me to/about ..." request,
// stopping before a trailing on/at/by clause.
func ExtractTask(text string) (string, bool) {
	return firstGroup(taskPattern, text)
}

// ExtractSearchQuery returns the query phrase of a find/search request.
func ExtractSearchQuery(text string) (string, bool) {
	return firstGroup(queryPattern, text)
}

func firstGroup(p *regexp.Regexp, text string) (string, bool) {
	m := p.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}
