package bot

import (
	"regexp"
	"strings"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// escapeMarkdown escapes every character MarkdownV2 treats as markup.
func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

var emphasisPattern = regexp.MustCompile(`\*\*([^*\n]+)\*\*|\*([^*\n]+)\*`)

// toMarkdownV2 rewrites the assistant's **bold** and *italic* spans into
// Telegram MarkdownV2 and escapes everything else.
func toMarkdownV2(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range emphasisPattern.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(escapeMarkdown(text[last:m[0]]))
		if m[2] >= 0 {
			b.WriteString("*" + escapeMarkdown(text[m[2]:m[3]]) + "*")
		} else {
			b.WriteString("_" + escapeMarkdown(text[m[4]:m[5]]) + "_")
		}
		last = m[1]
	}
	b.WriteString(escapeMarkdown(text[last:]))
	return b.String()
}
