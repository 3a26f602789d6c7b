// Package formatting converts between human-readable and machine values:
// byte sizes in configuration and JSON embedded in model replies.
package formatting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatBytes renders n with base-1024 units, e.g. "1.5 MB".
func FormatBytes(n int64, precision int) string {
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return strconv.FormatFloat(size, 'f', max(precision, 0), 64) + " " + units[i]
}

// ParseBytes parses sizes such as "20MB", "512 kb", or "1024" (bytes).
// Units are base-1024 and case-insensitive.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.ToUpper(strings.TrimSpace(s[split:]))
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}
	if unit == "" {
		unit = "B"
	}

	for i, u := range units {
		if u == unit {
			return int64(value * math.Pow(1024, float64(i))), nil
		}
	}
	return 0, fmt.Errorf("unknown byte size unit: %q", unit)
}
