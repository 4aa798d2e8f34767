package audience

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/augur/internal/contact"
)

// ErrInvalidFilter indicates a filter could not be parsed from request input.
var ErrInvalidFilter = errors.New("invalid audience filter")

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseTime accepts RFC 3339 timestamps, zone-less timestamps (UTC), and bare dates.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// FromQuery extracts a filter from URL query parameters: industry, location,
// intent (comma-separated levels), start and end (both required for a date
// range), and keywords (comma-separated).
func FromQuery(values url.Values) (Filter, error) {
	f := Filter{
		Industry: strings.TrimSpace(values.Get("industry")),
		Location: strings.TrimSpace(values.Get("location")),
		Keywords: splitList(values.Get("keywords")),
	}

	for _, raw := range splitList(values.Get("intent")) {
		level, err := contact.ParseIntentLevel(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		f.IntentLevels = append(f.IntentLevels, level)
	}

	start, end := values.Get("start"), values.Get("end")
	switch {
	case start == "" && end == "":
	case start == "" || end == "":
		return Filter{}, fmt.Errorf("%w: date range needs both start and end", ErrInvalidFilter)
	default:
		s, err := ParseTime(start)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: start: %v", ErrInvalidFilter, err)
		}
		e, err := ParseTime(end)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: end: %v", ErrInvalidFilter, err)
		}
		f.DateRange = &DateRange{Start: s, End: e}
	}

	return f, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
