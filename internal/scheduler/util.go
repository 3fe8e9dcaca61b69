package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fixed spans for the calendar units. A retention window or a cooldown does
// not need to track month boundaries.
const (
	day   = 24 * time.Hour
	month = 30 * day
	year  = 365 * day
)

var durationUnits = map[string]time.Duration{
	"y":  year,
	"mo": month,
	"d":  day,
	"h":  time.Hour,
	"m":  time.Minute,
	"s":  time.Second,
}

// parseDuration converts a compound duration string like "7d 3h 35m 3s" into
// a time.Duration. Each element is a positive integer followed by one of the
// units y, mo, d, h, m or s.
func parseDuration(duration string) (time.Duration, error) {
	fields := strings.Fields(duration)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty duration")
	}

	var total time.Duration
	for _, field := range fields {
		cut := strings.IndexFunc(field, func(r rune) bool { return r < '0' || r > '9' })
		if cut <= 0 {
			return 0, fmt.Errorf("invalid duration element: %s", field)
		}
		value, err := strconv.Atoi(field[:cut])
		if err != nil {
			return 0, fmt.Errorf("invalid duration element: %s", field)
		}
		unit, ok := durationUnits[field[cut:]]
		if !ok {
			return 0, fmt.Errorf("unknown duration unit: %s", field[cut:])
		}
		total += time.Duration(value) * unit
	}
	return total, nil
}
