package query

import (
	"fmt"
	"math"
	"time"
)

const day = 24 * time.Hour

// DueLabel renders a due date relative to now the way the task list shows it.
func DueLabel(due, now time.Time) string {
	days := int(math.Floor(float64(due.Sub(now)) / float64(day)))
	switch {
	case days < 0:
		return "Overdue"
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days < 7:
		return fmt.Sprintf("Due in %d days", days)
	case due.Year() != now.Year():
		return due.Format("Jan 2, 2006")
	default:
		return due.Format("Jan 2")
	}
}

// IsOverdue reports whether an open task is past its due date.
func IsOverdue(due *time.Time, completed bool, now time.Time) bool {
	return due != nil && !completed && due.Before(now)
}
