// Package query derives display views from a task collection.
package query

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Project keeps the tasks matching both the category filter and the search
// query, preserving their relative order. The input is never modified.
func Project(tasks []model.Task, filter model.Filter) []model.Task {
	category := strings.TrimSpace(filter.Category)
	needle := fold(strings.TrimSpace(filter.Query))

	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if category != "" && category != model.CategoryAll && string(task.Category) != category {
			continue
		}
		if needle != "" && !strings.Contains(fold(task.Title), needle) && !strings.Contains(fold(task.Description), needle) {
			continue
		}
		out = append(out, task)
	}
	return out
}

func fold(value string) string {
	if value == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(value))
}

func ComputeStats(tasks []model.Task) model.Stats {
	stats := model.Stats{Total: len(tasks)}
	for _, task := range tasks {
		if task.Completed {
			stats.Completed++
		}
	}
	if stats.Total > 0 {
		stats.Progress = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats
}
