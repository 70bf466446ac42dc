package silver

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseClock converts a game clock like "PT12M34.00S" into seconds remaining in the period.
// Anything not in that shape yields nil.
func ParseClock(s string) *float64 {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "PT") {
		return nil
	}
	mins, rest, ok := strings.Cut(s[2:], "M")
	if !ok || !strings.HasSuffix(rest, "S") {
		return nil
	}
	m, ok := parseFinite(mins)
	if !ok || m < 0 {
		return nil
	}
	sec, ok := parseFinite(strings.TrimSuffix(rest, "S"))
	if !ok || sec < 0 {
		return nil
	}
	total := m*60 + sec
	return &total
}

// ParseMinutes converts "34:12", "PT34M12.00S" or a bare number into decimal minutes.
func ParseMinutes(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "PT") {
		secs := ParseClock(s)
		if secs == nil {
			return nil
		}
		m := *secs / 60
		return &m
	}
	if mins, secs, ok := strings.Cut(s, ":"); ok {
		m, ok := parseFinite(mins)
		if !ok {
			return nil
		}
		sec, ok := parseFinite(secs)
		if !ok {
			return nil
		}
		total := m + sec/60
		return &total
	}
	m, ok := parseFinite(s)
	if !ok {
		return nil
	}
	return &m
}

// parseFinite is strconv.ParseFloat without NaN and the infinities.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseGameDate accepts "20240115", "2024-01-15" and "2024-01-15T00:00:00" and returns YYYY-MM-DD.
func parseGameDate(s string) *string {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"20060102", "2006-01-02", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			out := t.Format("2006-01-02")
			return &out
		}
	}
	return nil
}
