package report

import (
	"html"
	"strings"
)

// entityReplacer maps the Unicode punctuation GroupMe sends (dashes,
// curly quotes, ellipses) to HTML entities or plain ASCII for display.
var entityReplacer = strings.NewReplacer(
	"—", "-",
	"’", "&rsquo;",
	"“", "&ldquo;",
	"”", "&rdquo;",
	"…", "...",
)

// Sanitize prepares raw message text for inclusion in a page: markup
// characters are escaped first, then the fixed punctuation table is
// applied so its entities survive rendering.
func Sanitize(raw string) string {
	return entityReplacer.Replace(html.EscapeString(raw))
}
