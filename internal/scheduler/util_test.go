package scheduler

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		want      time.Duration
		shouldErr bool
	}{
		{"full compound", "7d 3h 35m 3s", time.Hour*(7*24+3) + 35*time.Minute + 3*time.Second, false},
		{"hours only", "72h", 72 * time.Hour, false},
		{"days and hours", "15d 5h", 365 * time.Hour, false},
		{"days only", "30d", 30 * 24 * time.Hour, false},
		{"minutes and seconds", "10m 30s", 10*time.Minute + 30*time.Second, false},
		{"one year", "1y", 365 * 24 * time.Hour, false},
		{"months and days", "2mo 5d", (2*30 + 5) * 24 * time.Hour, false},
		{"empty", "", 0, true},
		{"not a duration", "invalid_string", 0, true},
		{"unknown unit", "3x", 0, true},
		{"missing value", "d", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDuration(tc.input)
			if tc.shouldErr {
				if err == nil {
					t.Errorf("parseDuration(%q) should return an error", tc.input)
				}
				return
			}
			if err != nil {
				t.Errorf("parseDuration(%q) returned an unexpected error: %v", tc.input, err)
			} else if got != tc.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}
