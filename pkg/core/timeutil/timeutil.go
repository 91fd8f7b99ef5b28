// Package timeutil parses the timeout values accepted on the command line.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeout parses a timeout either as a number with an
// optional s/m/h/d suffix (seconds by default) or in Go duration syntax such as
// "1m30s". Zero means no timeout. Negative values are rejected.
func ParseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty duration")
	}
	d, err := parseSuffixed(value)
	if err != nil {
		goDur, goErr := time.ParseDuration(value)
		if goErr != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		d = goDur
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", value)
	}
	return d, nil
}

func parseSuffixed(value string) (time.Duration, error) {
	multiplier := time.Second
	last := value[len(value)-1]
	if last < '0' || last > '9' {
		switch last {
		case 's':
			multiplier = time.Second
		case 'm':
			multiplier = time.Minute
		case 'h':
			multiplier = time.Hour
		case 'd':
			multiplier = 24 * time.Hour
		default:
			return 0, strconv.ErrSyntax
		}
		value = value[:len(value)-1]
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(n * float64(multiplier)), nil
}

// FormatTimeout renders d for messages; zero reads as "none".
func FormatTimeout(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.String()
}
