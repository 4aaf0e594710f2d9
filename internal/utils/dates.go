package utils

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format accepted on every date parameter.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string as a UTC midnight.
//
// Example:
//
//	d, err := utils.ParseDate("2024-01-02") // 2024-01-02 00:00:00 UTC
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}
