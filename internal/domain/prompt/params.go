package prompt

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Speed tiers understood by Midjourney.
const (
	SpeedFast  = "fast"
	SpeedTurbo = "turbo"
	SpeedRelax = "relax"
)

const (
	minStyleWeight = 0
	maxStyleWeight = 100
)

// Params are the optional Midjourney parameters of a generation request.
// Empty strings mean "not requested".
type Params struct {
	AspectRatio string
	Speed       string
	Stylize     string
	Chaos       string
	Weird       string
	// StyleWeight is the raw requested value; nil when the field was absent or null.
	StyleWeight *string
	Tile        bool
	Version     string
}

// ParseParams reads Params from a decoded request payload. Falsy JSON values
// (false, 0, "" and null) count as absent.
func ParseParams(payload gjson.Result) Params {
	params := Params{
		AspectRatio: optionalText(payload.Get("aspectRatio")),
		Speed:       optionalText(payload.Get("speed")),
		Stylize:     optionalText(payload.Get("stylize")),
		Chaos:       optionalText(payload.Get("chaos")),
		Weird:       optionalText(payload.Get("weird")),
		Tile:        enabled(payload.Get("tile")),
		Version:     optionalText(payload.Get("version")),
	}
	if sw := payload.Get("styleWeight"); sw.Exists() && sw.Type != gjson.Null {
		raw := sw.String()
		params.StyleWeight = &raw
	}
	return params
}

// Flags renders the parameters as Midjourney flags in their fixed order.
func (p Params) Flags() []string {
	var flags []string
	if p.AspectRatio != "" {
		flags = append(flags, "--ar "+p.AspectRatio)
	}
	switch p.Speed {
	case SpeedFast:
		flags = append(flags, "--fast")
	case SpeedTurbo:
		flags = append(flags, "--turbo")
	case SpeedRelax:
		flags = append(flags, "--relax")
	}
	if p.Stylize != "" {
		flags = append(flags, "--s "+p.Stylize)
	}
	if p.Chaos != "" {
		flags = append(flags, "--c "+p.Chaos)
	}
	if p.Weird != "" {
		flags = append(flags, "--weird "+p.Weird)
	}
	if p.StyleWeight != nil {
		flags = append(flags, "--sw "+strconv.Itoa(ClampStyleWeight(*p.StyleWeight)))
	}
	if p.Tile {
		flags = append(flags, "--tile")
	}
	if p.Version != "" {
		flags = append(flags, "--v "+p.Version)
	}
	return flags
}

// Compile builds the command submitted to Midjourney: the reference image
// URLs, then the cleaned prompt, then the flags, all separated by single spaces.
func Compile(imageURLs []string, cleanedPrompt string, params Params) string {
	parts := make([]string, 0, len(imageURLs)+2)
	for _, url := range imageURLs {
		if url = strings.TrimSpace(url); url != "" {
			parts = append(parts, url)
		}
	}
	if cleanedPrompt != "" {
		parts = append(parts, cleanedPrompt)
	}
	parts = append(parts, params.Flags()...)
	return strings.Join(parts, " ")
}

// ClampStyleWeight parses the leading integer of raw and clamps it to 0..100.
// Non-numeric input yields 0.
func ClampStyleWeight(raw string) int {
	value, ok := ParseLeadingInt(raw)
	if !ok {
		return minStyleWeight
	}
	if value < minStyleWeight {
		return minStyleWeight
	}
	if value > maxStyleWeight {
		return maxStyleWeight
	}
	return value
}

// ParseLeadingInt reads an optionally signed run of digits at the start of raw,
// ignoring leading whitespace and anything after the digits.
func ParseLeadingInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	value, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return value, true
}

func optionalText(value gjson.Result) string {
	if !truthy(value) {
		return ""
	}
	return strings.TrimSpace(value.String())
}

func truthy(value gjson.Result) bool {
	switch value.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return value.Num != 0
	case gjson.String:
		return strings.TrimSpace(value.Str) != ""
	case gjson.JSON:
		return true
	default:
		return false
	}
}

// enabled is truthy for switches, which also accept text such as "false" or "0" as off.
func enabled(value gjson.Result) bool {
	if value.Type == gjson.String {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value.Str)); err == nil {
			return parsed
		}
	}
	return truthy(value)
}
