// Package prompt turns a loosely shaped generation request into the single
// command string submitted to Midjourney.
package prompt

import "strings"

// escapedControls are the two-character escape sequences that clients such as
// workflow tools leave in prompts after double JSON encoding.
var escapedControls = []string{`\n`, `\t`, `\r`}

var literalControls = []string{"\n", "\t", "\r"}

// Sanitize removes control characters and stray escaping from a prompt.
// The result contains no backslashes, no newline, tab or carriage return, and
// no whitespace runs. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	out := raw
	for _, seq := range escapedControls {
		out = strings.ReplaceAll(out, seq, " ")
	}
	for _, seq := range literalControls {
		out = strings.ReplaceAll(out, seq, " ")
	}

	out = strings.ReplaceAll(out, `\"`, `"`)
	out = strings.ReplaceAll(out, `\'`, `'`)
	out = strings.ReplaceAll(out, `\`, "")

	out = collapseRepeats(out, `"""`, `"`)
	out = collapseRepeats(out, `'''`, `'`)

	return strings.Join(strings.Fields(out), " ")
}

func collapseRepeats(s, triple, single string) string {
	for strings.Contains(s, triple) {
		s = strings.ReplaceAll(s, triple, single)
	}
	return s
}
