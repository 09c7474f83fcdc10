package fallback

import (
	"strconv"
	"strings"
)

const maxDimension = 4096

var namedResolutions = map[string]int{
	"1k": 1024,
	"2k": 2048,
	"4k": 4096,
}

// Dimensions derives the requested width and height. resolution may be a
// named size (1K, 2K, 4K), a long-side pixel count or an explicit WxH; the
// aspect ratio (W:H) shapes the short side unless WxH was given.
func Dimensions(aspectRatio, resolution string, base int) (int, int) {
	resolution = strings.ToLower(strings.TrimSpace(resolution))
	if w, h, ok := parsePair(resolution, "x"); ok {
		return clamp(w), clamp(h)
	}

	longSide := base
	if size, ok := namedResolutions[resolution]; ok {
		longSide = size
	} else if n, err := strconv.Atoi(resolution); err == nil && n > 0 {
		longSide = n
	}
	longSide = clamp(longSide)

	rw, rh, ok := parsePair(strings.TrimSpace(aspectRatio), ":")
	if !ok {
		return longSide, longSide
	}
	if rw >= rh {
		return longSide, clamp(roundTo8(longSide * rh / rw))
	}
	return clamp(roundTo8(longSide * rw / rh)), longSide
}

func parsePair(raw, sep string) (int, int, bool) {
	left, right, found := strings.Cut(raw, sep)
	if !found {
		return 0, 0, false
	}
	a, errA := strconv.Atoi(strings.TrimSpace(left))
	b, errB := strconv.Atoi(strings.TrimSpace(right))
	if errA != nil || errB != nil || a <= 0 || b <= 0 {
		return 0, 0, false
	}
	return a, b, true
}

func roundTo8(v int) int {
	rounded := (v + 4) / 8 * 8
	if rounded < 8 {
		return 8
	}
	return rounded
}

func clamp(v int) int {
	if v > maxDimension {
		return maxDimension
	}
	if v < 64 {
		return 64
	}
	return v
}
