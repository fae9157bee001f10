package model

import (
	"encoding/json"
	"time"
)

type TaskID string

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryShopping Category = "shopping"
	CategoryHealth   Category = "health"
	CategoryOther    Category = "other"
)

// CategoryAll is the filter sentinel that disables category filtering.
const CategoryAll = "all"

var Categories = []Category{CategoryWork, CategoryPersonal, CategoryShopping, CategoryHealth, CategoryOther}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

type NotifyKind string

const (
	NotifyDueSoon NotifyKind = "due_soon"
	NotifyOverdue NotifyKind = "overdue"
)

type Task struct {
	ID              TaskID     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        Category   `json:"category"`
	Priority        Priority   `json:"priority"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	Completed       bool       `json:"completed"`
	CreatedAt       time.Time  `json:"createdAt"`
	NotifiedDueSoon bool       `json:"notifiedDueSoon"`
	NotifiedOverdue bool       `json:"notifiedOverdue"`
}

// UnmarshalJSON also accepts the legacy "notified" and "overdueNotified"
// keys and due dates stored as bare local "2006-01-02T15:04" values.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var aux struct {
		plain
		DueDate         *string `json:"dueDate,omitempty"`
		Notified        *bool   `json:"notified,omitempty"`
		OverdueNotified *bool   `json:"overdueNotified,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Task(aux.plain)
	if aux.DueDate != nil {
		due, err := ParseDue(*aux.DueDate, time.Local)
		if err != nil {
			return err
		}
		t.DueDate = due
	}
	if aux.Notified != nil && *aux.Notified {
		t.NotifiedDueSoon = true
	}
	if aux.OverdueNotified != nil && *aux.OverdueNotified {
		t.NotifiedOverdue = true
	}
	return nil
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type Filter struct {
	Category string `json:"category"`
	Query    string `json:"query"`
}

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Progress  int `json:"progress"`
}

type HistoryEntry struct {
	ID        int64     `json:"id"`
	TaskID    TaskID    `json:"taskId"`
	EventType string    `json:"eventType"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}
