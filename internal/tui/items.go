package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/query"
)

// filterOrder is the category filter cycle; "all" comes first.
var filterOrder = append([]string{model.CategoryAll}, categoryOptions()...)

func categoryIcon(category model.Category) string {
	switch category {
	case model.CategoryWork:
		return "W"
	case model.CategoryPersonal:
		return "P"
	case model.CategoryShopping:
		return "S"
	case model.CategoryHealth:
		return "H"
	default:
		return "o"
	}
}

func priorityMark(priority model.Priority) string {
	switch priority {
	case model.PriorityHigh:
		return "!!"
	case model.PriorityMedium:
		return "! "
	default:
		return "  "
	}
}

func formatTaskSummary(task model.Task, now time.Time) string {
	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("%s %s %s %s", check, priorityMark(task.Priority), categoryIcon(task.Category), task.Title)
	if task.DueDate != nil {
		line += " | " + query.DueLabel(*task.DueDate, now)
	}
	return line
}

func formatTaskDetail(task model.Task, now time.Time) []string {
	due := "n/a"
	if task.DueDate != nil {
		due = fmt.Sprintf("%s (%s)", model.FormatDue(task.DueDate), query.DueLabel(*task.DueDate, now))
	}
	status := "open"
	if task.Completed {
		status = "done"
	} else if query.IsOverdue(task.DueDate, task.Completed, now) {
		status = "overdue"
	}

	lines := []string{
		task.Title,
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Category: %s", task.Category),
		fmt.Sprintf("Priority: %s", task.Priority),
		fmt.Sprintf("Due: %s", due),
		fmt.Sprintf("Created: %s", humanize.RelTime(task.CreatedAt, now, "ago", "from now")),
	}
	if task.Description != "" {
		lines = append(lines, "", task.Description)
	}
	return lines
}

func formatHistoryEntry(entry model.HistoryEntry, now time.Time) string {
	return fmt.Sprintf("%s  %s", humanize.RelTime(entry.CreatedAt, now, "ago", "from now"), entry.Details)
}

func formatStats(stats model.Stats) string {
	return fmt.Sprintf("%d tasks | %d done | %d%%", stats.Total, stats.Completed, stats.Progress)
}

func progressBar(progress, width int) string {
	if width <= 0 {
		return ""
	}
	filled := min(max(progress, 0), 100) * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
