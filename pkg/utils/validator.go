package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates
	DateLayout = "2006-01-02"
	// MonthLayout is the wire format for calendar months
	MonthLayout = "2006-01"

	maxIDLength = 128
)

var (
	idPattern      = regexp.MustCompile(`^[A-Za-z0-9._@\-]+$`)
	controlPattern = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateID checks a user or record identifier supplied by a client
func ValidateID(field, id string) error {
	if id == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%s exceeds %d characters", field, maxIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid %s format: %s", field, id)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseMonth parses a YYYY-MM month as its first day, midnight UTC
func ParseMonth(s string) (time.Time, error) {
	t, err := time.ParseInLocation(MonthLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return t, nil
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlPattern.ReplaceAllString(s, ""))
}
