package analytics

import (
	"fmt"
	"strings"
	"time"

	"tasksync/internal/normalize"
	"tasksync/internal/service"
)

// MaxVisible is how many series a chart shows.
const MaxVisible = 4

// Range is a chart time window.
type Range string

const (
	Range90d Range = "90d"
	Range30d Range = "30d"
	Range7d  Range = "7d"
)

// DefaultRange is the window used when none is chosen.
const DefaultRange = Range90d

// ParseRange validates a range name. An empty name is DefaultRange.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.TrimSpace(s)); r {
	case "":
		return DefaultRange, nil
	case Range90d, Range30d, Range7d:
		return r, nil
	}
	return "", fmt.Errorf("invalid range %q (want 90d, 30d or 7d)", s)
}

// Days is the window length.
func (r Range) Days() int {
	switch r {
	case Range30d:
		return 30
	case Range7d:
		return 7
	default:
		return 90
	}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006/01/02"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Filter keeps the records dated no earlier than r.Days() before the last
// record's date. When the last date does not parse, now is the reference.
// Records whose own date does not parse are dropped.
func Filter(s service.Series, r Range, now time.Time) service.Series {
	if len(s) == 0 {
		return s
	}
	ref, ok := parseDate(s[len(s)-1].Date())
	if !ok {
		ref = now.UTC()
	}
	start := ref.AddDate(0, 0, -r.Days())

	out := make(service.Series, 0, len(s))
	for _, rec := range s {
		d, ok := parseDate(rec.Date())
		if !ok || d.Before(start) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Keys returns every metric key of the series.
func Keys(s service.Series) []string {
	return normalize.Keys(s)
}

// Visible returns the series keys to draw.
func Visible(s service.Series) []string {
	keys := Keys(s)
	if len(keys) > MaxVisible {
		keys = keys[:MaxVisible]
	}
	return keys
}

// Label turns a metric key into a display label: underscores and hyphens
// become spaces and each word is capitalized.
func Label(key string) string {
	b := []byte(strings.NewReplacer("_", " ", "-", " ").Replace(key))
	for i := range b {
		if isWord(b[i]) && (i == 0 || !isWord(b[i-1])) && b[i] >= 'a' && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}

func isWord(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// Totals sums every numeric metric over the series.
func Totals(s service.Series) map[string]float64 {
	out := make(map[string]float64)
	for _, rec := range s {
		for k, v := range rec {
			if f, ok := v.(float64); ok && k != service.DateKey {
				out[k] += f
			}
		}
	}
	return out
}
