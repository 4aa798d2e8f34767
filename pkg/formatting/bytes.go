// Package formatting converts byte sizes between counts and the
// human-readable strings used in configuration ("10MB") and error messages.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const base = 1024.0

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

var bytesPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

// FormatBytes renders n with the largest base-1024 unit that keeps the value
// at or above one. Negative precision is treated as zero.
func FormatBytes(n int64, precision int) string {
	if n <= 0 {
		return "0 B"
	}
	precision = max(precision, 0)

	size, exp := float64(n), 0
	for size >= base && exp < len(units)-1 {
		size /= base
		exp++
	}

	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[exp]
}

// ParseBytes parses sizes such as "512", "10MB" or "1.5 gb" into a byte count.
// A bare number is a count of bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	m := bytesPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	exp := 0
	if m[2] != "" {
		exp = slices.Index(units, strings.ToUpper(m[2]))
		if exp < 0 {
			return 0, fmt.Errorf("unknown byte size unit: %q", m[2])
		}
	}

	return int64(value * math.Pow(base, float64(exp))), nil
}
