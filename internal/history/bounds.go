package history

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var boundLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2 Jan, 2006 15:04:05",
	"2 Jan, 2006",
	"2 Jan 2006",
}

// ParseBound parses a range bound given on the command line or in config.
// Accepts "now" (or empty), epoch milliseconds, and the layouts above, in UTC.
func ParseBound(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "now", "now utc":
		return now.UTC(), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range boundLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}
