package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/store"
)

// HistoryLog records an audit trail of task changes.
type HistoryLog struct {
	DB     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewHistoryLog(db *sql.DB, logger *slog.Logger) *HistoryLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryLog{DB: db, logger: logger, now: time.Now}
}

// Attach subscribes the log to st and returns the unsubscribe func.
func (h *HistoryLog) Attach(st *store.Store) func() {
	return st.Subscribe(h.Observe)
}

// Observe records change. Failures are logged and never block the store.
func (h *HistoryLog) Observe(change store.Change) {
	eventType, details, ok := describeChange(change)
	if !ok {
		return
	}
	if err := h.Add(context.Background(), change.Task.ID, eventType, details); err != nil {
		h.logger.Warn("record history failed", "task", change.Task.ID, "event", eventType, "error", err)
	}
}

func (h *HistoryLog) Add(ctx context.Context, taskID model.TaskID, eventType, details string) error {
	_, err := h.DB.ExecContext(ctx,
		"INSERT INTO history (task_id, event_type, details, created_at) VALUES (?, ?, ?, ?)",
		string(taskID), eventType, details, h.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	return nil
}

func (h *HistoryLog) List(ctx context.Context, taskID model.TaskID) ([]model.HistoryEntry, error) {
	rows, err := h.DB.QueryContext(ctx,
		"SELECT id, task_id, event_type, details, created_at FROM history WHERE task_id = ? ORDER BY id DESC",
		string(taskID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []model.HistoryEntry{}
	for rows.Next() {
		var entry model.HistoryEntry
		var id, createdAt string
		if err := rows.Scan(&entry.ID, &id, &entry.EventType, &entry.Details, &createdAt); err != nil {
			return nil, err
		}
		entry.TaskID = model.TaskID(id)
		entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse history time: %w", err)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func describeChange(change store.Change) (string, string, bool) {
	switch change.Kind {
	case store.ChangeCreated:
		return "created", formatTaskDetails("created", change.Task), true
	case store.ChangeDeleted:
		return "deleted", formatTaskDetails("deleted", change.Task), true
	case store.ChangeUpdated:
		if change.Before == nil {
			return "updated", "updated: no changes", true
		}
		return "updated", formatTaskDiff(*change.Before, change.Task), true
	case store.ChangeToggled:
		if change.Task.Completed {
			return "completed", "completed: marked done", true
		}
		return "reopened", "reopened: marked not done", true
	case store.ChangeReordered:
		return "reordered", fmt.Sprintf("reordered: position %d -> %d", change.From+1, change.To+1), true
	default:
		return "", "", false
	}
}

func formatTaskDetails(prefix string, task model.Task) string {
	return fmt.Sprintf("%s: title='%s' category=%s priority=%s due=%s", prefix, task.Title, task.Category, task.Priority, formatDue(task.DueDate))
}

func formatTaskDiff(before, after model.Task) string {
	changes := []string{}
	if before.Title != after.Title {
		changes = append(changes, formatChange("title", before.Title, after.Title))
	}
	if before.Description != after.Description {
		changes = append(changes, formatChange("description", before.Description, after.Description))
	}
	if before.Category != after.Category {
		changes = append(changes, formatChange("category", string(before.Category), string(after.Category)))
	}
	if before.Priority != after.Priority {
		changes = append(changes, formatChange("priority", string(before.Priority), string(after.Priority)))
	}
	if formatDue(before.DueDate) != formatDue(after.DueDate) {
		changes = append(changes, formatChange("due", formatDue(before.DueDate), formatDue(after.DueDate)))
	}

	if len(changes) == 0 {
		return "updated: no changes"
	}

	return "updated: " + strings.Join(changes, "; ")
}

func formatChange(field, before, after string) string {
	return fmt.Sprintf("%s: '%s' -> '%s'", field, valueOrNone(before), valueOrNone(after))
}

func valueOrNone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "none"
	}
	return trimmed
}

func formatDue(value *time.Time) string {
	if value == nil {
		return "none"
	}
	return value.Format("2006-01-02 15:04")
}
