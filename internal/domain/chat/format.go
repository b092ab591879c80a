package chat

import (
	"html"
	"regexp"
	"strings"
)

var boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)

// Format turns a backend answer into message HTML. The text is escaped first,
// then **bold** spans and line breaks are rendered.
func Format(answer string) string {
	out := html.EscapeString(answer)
	out = boldPattern.ReplaceAllString(out, "<strong>$1</strong>")
	out = strings.ReplaceAll(out, "\n\n", "<br><br>")
	return strings.ReplaceAll(out, "\n", "<br>")
}

// Plain escapes text shown verbatim, such as the user's own question.
func Plain(text string) string {
	return html.EscapeString(text)
}
