package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var timeUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseStringTime parses the short durations used in config.json: a whole
// number followed by one of s, m, h or d ("10s", "5m", "2d"). Anything else
// is handed to time.ParseDuration.
func ParseStringTime(timeString string) (time.Duration, error) {
	value := strings.ToLower(strings.TrimSpace(timeString))
	if value == "" {
		return 0, fmt.Errorf("invalid time format: empty string")
	}

	if unit, ok := timeUnits[value[len(value)-1]]; ok {
		if number, err := strconv.Atoi(value[:len(value)-1]); err == nil {
			if number < 0 {
				return 0, fmt.Errorf("invalid time format: %s", timeString)
			}
			return time.Duration(number) * unit, nil
		}
	}

	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid time format: %s", timeString)
	}
	return d, nil
}

// ParseStringTimeOr is ParseStringTime with a fallback for unset or
// malformed values.
func ParseStringTimeOr(timeString string, fallback time.Duration) time.Duration {
	d, err := ParseStringTime(timeString)
	if err != nil {
		return fallback
	}
	return d
}
