package prompt

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// MaxReferenceImages is the number of image prompts Midjourney accepts in front of the text.
const MaxReferenceImages = 4

// imageShape extracts reference image URLs from one accepted payload layout.
type imageShape struct {
	name    string
	extract func(payload gjson.Result) []string
}

// referenceShapes lists the accepted layouts in precedence order. Results of
// every shape present in a payload are concatenated in this order.
var referenceShapes = []imageShape{
	{name: "images-list", extract: extractImagesList},
	{name: "image-single-or-map", extract: extractKeyed},
	{name: "image-bracketed", extract: extractBracketed},
	{name: "image-discrete", extract: extractDiscrete},
}

var bracketedKey = regexp.MustCompile(`^image\[(\d*)\]$`)

// CollectReferenceImages gathers reference image URLs from a decoded request
// payload. Empty values are skipped, duplicates keep their first position and
// the result never holds more than MaxReferenceImages entries.
func CollectReferenceImages(payload gjson.Result) []string {
	if !payload.IsObject() {
		return nil
	}

	var urls []string
	for _, shape := range referenceShapes {
		urls = append(urls, shape.extract(payload)...)
	}

	urls = lo.Uniq(urls)
	if len(urls) > MaxReferenceImages {
		urls = urls[:MaxReferenceImages]
	}
	return urls
}

func extractImagesList(payload gjson.Result) []string {
	images := payload.Get("images")
	if images.IsArray() || images.Type == gjson.String {
		return textValues(images)
	}
	return nil
}

func extractKeyed(payload gjson.Result) []string {
	urls := textValues(payload.Get("image"))
	if images := payload.Get("images"); images.IsObject() {
		urls = append(urls, textValues(images)...)
	}
	return urls
}

func extractBracketed(payload gjson.Result) []string {
	type indexed struct {
		index int
		value gjson.Result
	}

	var (
		unindexed []gjson.Result
		numbered  []indexed
	)
	payload.ForEach(func(key, value gjson.Result) bool {
		match := bracketedKey.FindStringSubmatch(key.String())
		if match == nil {
			return true
		}
		if match[1] == "" {
			unindexed = append(unindexed, value)
			return true
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			return true
		}
		numbered = append(numbered, indexed{index: index, value: value})
		return true
	})

	sort.SliceStable(numbered, func(i, j int) bool {
		return numbered[i].index < numbered[j].index
	})

	var urls []string
	for _, value := range unindexed {
		urls = append(urls, textValues(value)...)
	}
	for _, entry := range numbered {
		urls = append(urls, textValues(entry.value)...)
	}
	return urls
}

func extractDiscrete(payload gjson.Result) []string {
	var urls []string
	for i := 1; i <= MaxReferenceImages; i++ {
		value := payload.Get("image" + strconv.Itoa(i))
		if value.Type == gjson.String {
			urls = append(urls, textValues(value)...)
		}
	}
	return urls
}

// textValues returns the non-blank strings held by value, which may be a
// single string, an array or an object.
func textValues(value gjson.Result) []string {
	if value.Type == gjson.String {
		if text := strings.TrimSpace(value.Str); text != "" {
			return []string{text}
		}
		return nil
	}
	if !value.IsArray() && !value.IsObject() {
		return nil
	}

	var out []string
	value.ForEach(func(_, item gjson.Result) bool {
		if item.Type != gjson.String {
			return true
		}
		if text := strings.TrimSpace(item.Str); text != "" {
			out = append(out, text)
		}
		return true
	})
	return out
}
