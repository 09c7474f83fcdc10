package prompt

import (
	"regexp"
	"strings"
)

var (
	valuedFlag = regexp.MustCompile(`--\w+\s+[\w:.]+`)
	bareFlag   = regexp.MustCompile(`--\w+`)
)

// StripFlags removes Midjourney flag tokens ("--ar 16:9", "--tile") from a
// prompt so it can be sent to providers that do not understand them.
func StripFlags(text string) string {
	out := valuedFlag.ReplaceAllString(text, " ")
	out = bareFlag.ReplaceAllString(out, " ")
	return strings.Join(strings.Fields(out), " ")
}
