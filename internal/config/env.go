package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func envString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		*dst = n
	}
}

func envFloat(dst *float64, name string) {
	if f, err := strconv.ParseFloat(os.Getenv(name), 64); err == nil {
		*dst = f
	}
}

// overlay copies v into dst unless v is the zero value.
func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// fallback sets dst to def when dst is the zero value.
func fallback[T comparable](dst *T, def T) {
	var zero T
	if *dst == zero {
		*dst = def
	}
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// checkDurations reports the first field whose value does not parse.
// Fields alternate name and value.
func checkDurations(fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if _, err := time.ParseDuration(fields[i+1]); err != nil {
			return fmt.Errorf("invalid %s: %w", fields[i], err)
		}
	}
	return nil
}
