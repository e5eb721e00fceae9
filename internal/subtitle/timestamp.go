package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const timeArrow = " --> "

var (
	timeRangeRegex = regexp.MustCompile(
		`^\d{2}:\d{2}:\d{2},\d{3} --> \d{2}:\d{2}:\d{2},\d{3}$`,
	)
	indexRegex = regexp.MustCompile(`^\d+$`)
)

// ParseTimestamp converts HH:MM:SS,mmm to a millisecond offset.
// Components are not range checked, so "00:75:00,000" is 75 minutes.
func ParseTimestamp(text string) (int64, error) {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ':' || r == ','
	})
	if len(parts) != 4 || strings.Count(text, ":") != 2 ||
		strings.Count(text, ",") != 1 {
		return 0, fmt.Errorf("invalid timestamp %q", text)
	}

	var values [4]int64
	for i, part := range parts {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", text, err)
		}
		values[i] = v
	}

	return values[0]*3600000 +
		values[1]*60000 +
		values[2]*1000 +
		values[3], nil
}

// FormatTimestamp is the inverse of ParseTimestamp for non-negative offsets.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3600000
	minutes := (ms / 60000) % 60
	seconds := (ms / 1000) % 60
	millis := ms % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// ValidTimeRange reports whether start and end form a canonical timing line.
func ValidTimeRange(start, end string) bool {
	return timeRangeRegex.MatchString(start + timeArrow + end)
}

// splitTimeRange splits "a --> b" on the arrow. Without an arrow the whole
// value becomes the start time.
func splitTimeRange(line string) (start, end string) {
	before, after, found := strings.Cut(line, "-->")
	if !found {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// componentsInRange reports whether minutes and seconds are below 60.
func componentsInRange(text string) bool {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ':' || r == ','
	})
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts[1:3] {
		v, err := strconv.Atoi(part)
		if err != nil || v >= 60 {
			return false
		}
	}
	return true
}
