package model

import (
	"fmt"
	"strings"
	"time"
)

var dueLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// ParseDue parses a due date typed by a user. Empty input means no due date.
// RFC3339 values keep their offset; the short layouts are read in loc.
func ParseDue(value string, loc *time.Location) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	for _, layout := range dueLayouts {
		if parsed, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("invalid due date %q (use YYYY-MM-DD or YYYY-MM-DDTHH:MM)", trimmed)
}

// FormatDue is the inverse of ParseDue for form fields.
func FormatDue(due *time.Time) string {
	if due == nil {
		return ""
	}
	if due.Hour() == 0 && due.Minute() == 0 {
		return due.Format("2006-01-02")
	}
	return due.Format("2006-01-02T15:04")
}
