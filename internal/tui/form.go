package tui

import (
	"slices"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldTitle = iota
	fieldDescription
	fieldCategory
	fieldPriority
	fieldDue
)

func buildFormFields(task *model.Task) []formField {
	fields := []formField{
		{Label: "Title"},
		{Label: "Description"},
		{Label: "Category (space/←→)"},
		{Label: "Priority (space/←→)"},
		{Label: "Due (YYYY-MM-DD[THH:MM])"},
	}

	if task == nil {
		fields[fieldCategory].Value = string(model.CategoryPersonal)
		fields[fieldPriority].Value = string(model.PriorityMedium)
		return fields
	}

	fields[fieldTitle].Value = task.Title
	fields[fieldDescription].Value = task.Description
	fields[fieldCategory].Value = string(task.Category)
	fields[fieldPriority].Value = string(task.Priority)
	fields[fieldDue].Value = model.FormatDue(task.DueDate)

	return fields
}

func parseFormFields(fields []formField, loc *time.Location) (model.TaskInput, error) {
	due, err := model.ParseDue(fields[fieldDue].Value, loc)
	if err != nil {
		return model.TaskInput{}, err
	}

	return model.TaskInput{
		Title:       strings.TrimSpace(fields[fieldTitle].Value),
		Description: strings.TrimSpace(fields[fieldDescription].Value),
		Category:    model.Category(strings.TrimSpace(fields[fieldCategory].Value)),
		Priority:    model.Priority(strings.TrimSpace(fields[fieldPriority].Value)),
		DueDate:     due,
	}, nil
}

func isCategoryField(label string) bool {
	return strings.HasPrefix(label, "Category")
}

func isPriorityField(label string) bool {
	return strings.HasPrefix(label, "Priority")
}

func categoryOptions() []string {
	options := make([]string, 0, len(model.Categories))
	for _, category := range model.Categories {
		options = append(options, string(category))
	}
	return options
}

func priorityOptions() []string {
	options := make([]string, 0, len(model.Priorities))
	for _, priority := range model.Priorities {
		options = append(options, string(priority))
	}
	return options
}

func cycleOption(options []string, current string, delta int) string {
	if len(options) == 0 {
		return current
	}
	index := slices.Index(options, current)
	if index < 0 {
		return options[0]
	}
	next := (index + delta) % len(options)
	if next < 0 {
		next += len(options)
	}
	return options[next]
}
