package guard

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	angleRe    = regexp.MustCompile(`[<>]`)
	jsSchemeRe = regexp.MustCompile(`(?i)javascript:`)
	handlerRe  = regexp.MustCompile(`(?i)on\w+=`)
	scriptRe   = regexp.MustCompile(`(?i)script`)
)

// SanitizeInput removes, in order: angle brackets, "javascript:" scheme
// prefixes, inline event handler prefixes such as "onclick=", and the
// substring "script" wherever it appears (including inside words such as
// "description"). The result is trimmed.
//
// This is a blocklist. Each pass runs once, so removals can join fragments
// into new matches; the output is not safe to insert into markup unescaped.
func SanitizeInput(s string) string {
	s = angleRe.ReplaceAllString(s, "")
	s = jsSchemeRe.ReplaceAllString(s, "")
	s = handlerRe.ReplaceAllString(s, "")
	s = scriptRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// EscapeHTML escapes <, >, &, ' and " so the result can be used as element
// text or a quoted attribute value without introducing markup.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}
