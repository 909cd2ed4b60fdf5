package search

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var relativeAgoRe = regexp.MustCompile(`^(\d+)\s*(second|sec|minute|min|hour|hr|day|week)s?\s+ago$`)

// parsePublished interprets provider dates. Serper reports relative ages
// ("3 hours ago"), NewsAPI RFC 3339 and feeds a mix of RFC 1123 variants.
// Unparseable input yields the zero time.
func parsePublished(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	if m := relativeAgoRe.FindStringSubmatch(strings.ToLower(raw)); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}
		}

		return now.Add(-time.Duration(n) * relativeUnit(m[2])).UTC()
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}
	}

	return t.UTC()
}

func relativeUnit(unit string) time.Duration {
	switch unit {
	case "second", "sec":
		return time.Second
	case "minute", "min":
		return time.Minute
	case "hour", "hr":
		return time.Hour
	case "day":
		return 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}
