// Package taskvalidate holds the input-validation and wire-datetime rules
// shared by every surface that accepts task/tag/reminder arguments: the MCP
// tool catalog and the REST write API. Both must enforce identical
// semantics, so the rule lives here once instead of twice.
package taskvalidate

import (
	"fmt"
	"regexp"
	"time"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidatePriority parses p, defaulting an empty string to medium.
func ValidatePriority(p string) (models.Priority, error) {
	if p == "" {
		return models.PriorityMedium, nil
	}
	switch models.Priority(p) {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return models.Priority(p), nil
	default:
		return "", fmt.Errorf("invalid priority %q: must be low, medium, or high", p)
	}
}

// ValidateRecurrencePattern parses p, accepting an empty string as "none".
func ValidateRecurrencePattern(p string) (models.RecurrencePattern, error) {
	if p == "" {
		return "", nil
	}
	switch models.RecurrencePattern(p) {
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly, models.RecurrenceYearly:
		return models.RecurrencePattern(p), nil
	default:
		return "", fmt.Errorf("invalid recurrence_pattern %q: must be daily, weekly, monthly, or yearly", p)
	}
}

// ValidateHexColor rejects any string that isn't a #RRGGBB hex value.
func ValidateHexColor(c string) error {
	if !hexColorPattern.MatchString(c) {
		return fmt.Errorf("invalid color %q: must be a #RRGGBB hex value", c)
	}
	return nil
}

// ParseWireDatetime parses an ISO 8601 timestamp (offset optional) and
// normalizes it to naive UTC -- the wire convention the platform's data
// model stores every datetime under.
func ParseWireDatetime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q: use ISO 8601, e.g. 2025-01-15T09:00:00", s)
}

// ValidateSortBy rejects any sort_by value outside the task listing's
// supported set.
func ValidateSortBy(s string) error {
	switch s {
	case "", "due_date", "priority", "created_at", "title", "updated_at":
		return nil
	default:
		return fmt.Errorf("invalid sort_by %q", s)
	}
}

// ValidateSortOrder rejects anything other than asc/desc (empty allowed).
func ValidateSortOrder(s string) error {
	switch s {
	case "", "asc", "desc":
		return nil
	default:
		return fmt.Errorf("invalid sort_order %q", s)
	}
}

// ValidateTaskStatus rejects any status filter outside all/pending/completed.
func ValidateTaskStatus(s string) error {
	switch s {
	case "", "all", "pending", "completed":
		return nil
	default:
		return fmt.Errorf("invalid status %q: must be all, pending, or completed", s)
	}
}

// MessageTextLength enforces the chat message length boundary: 1..4000
// characters (runes), inclusive.
func MessageTextLength(text string) error {
	n := len([]rune(text))
	if n < 1 {
		return fmt.Errorf("message text must not be empty")
	}
	if n > 4000 {
		return fmt.Errorf("message text must be at most 4000 characters")
	}
	return nil
}
