package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/store"
)

func TestSQLiteGatewayRoundTripKeepsOrder(t *testing.T) {
	gw, cleanup := newTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	loaded, err := gw.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty collection, got %d", len(loaded))
	}

	due := time.Date(2026, 4, 2, 17, 30, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "b", Title: "Second", Category: model.CategoryWork, Priority: model.PriorityHigh, DueDate: &due, NotifiedDueSoon: true},
		{ID: "a", Title: "First", Category: model.CategoryShopping, Priority: model.PriorityLow, Completed: true},
	}
	if err := gw.Save(ctx, tasks); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := gw.Save(ctx, tasks); err != nil {
		t.Fatalf("save again: %v", err)
	}

	loaded, err = gw.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "b" || loaded[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", loaded)
	}
	if loaded[0].DueDate == nil || !loaded[0].DueDate.Equal(due) {
		t.Fatalf("expected due date %v, got %v", due, loaded[0].DueDate)
	}
	if !loaded[0].NotifiedDueSoon || loaded[0].NotifiedOverdue {
		t.Fatalf("unexpected notification flags: %+v", loaded[0])
	}
	if loaded[1].DueDate != nil {
		t.Fatalf("expected absent due date to stay absent")
	}
}

func TestEncodeUsesPersistedFieldNames(t *testing.T) {
	payload, err := encodeTasks([]model.Task{{ID: "1", Title: "x", Category: model.CategoryWork, Priority: model.PriorityLow}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := string(payload)
	for _, field := range []string{`"id"`, `"title"`, `"description"`, `"category"`, `"priority"`, `"completed"`, `"createdAt"`, `"notifiedDueSoon"`, `"notifiedOverdue"`} {
		if !strings.Contains(text, field) {
			t.Fatalf("expected %s in %s", field, text)
		}
	}
	if strings.Contains(text, "dueDate") {
		t.Fatalf("expected dueDate to be omitted when absent: %s", text)
	}
	if strings.Contains(text, "null") {
		t.Fatalf("expected no nulls: %s", text)
	}
}

func TestDecodeAcceptsLegacyNotificationKeys(t *testing.T) {
	tasks, err := decodeTasks([]byte(`[{"id":"1","title":"old","dueDate":"2026-01-02T10:00:00Z","notified":true,"overdueNotified":false}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 1 || !tasks[0].NotifiedDueSoon || tasks[0].NotifiedOverdue {
		t.Fatalf("unexpected decode: %+v", tasks)
	}
}

func TestFileGatewayRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasks.json")
	gw, err := NewFileGateway(path)
	if err != nil {
		t.Fatalf("new file gateway: %v", err)
	}
	ctx := context.Background()

	loaded, err := gw.Load(ctx)
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty collection, got %d", len(loaded))
	}

	if err := gw.Save(ctx, []model.Task{{ID: "1", Title: "one"}, {ID: "2", Title: "two"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err = gw.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "1" {
		t.Fatalf("unexpected tasks: %+v", loaded)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the tasks file, got %d entries", len(entries))
	}
}

func TestFileGatewayCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	gw, err := NewFileGateway(path)
	if err != nil {
		t.Fatalf("new file gateway: %v", err)
	}
	if _, err := store.New(context.Background(), gw); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestHistoryLogRecordsStoreChanges(t *testing.T) {
	gw, cleanup := newTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	st, err := store.New(ctx, gw)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	history := NewHistoryLog(gw.DB, nil)
	detach := history.Attach(st)
	defer detach()

	created, err := st.Create(ctx, model.TaskInput{Title: "Write tests", Category: model.CategoryWork})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.Update(ctx, created.ID, model.TaskInput{Title: "Write more tests", Category: model.CategoryWork}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := st.ToggleComplete(ctx, created.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := st.MarkNotified(ctx, created.ID, model.NotifyOverdue); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	entries, err := history.List(ctx, created.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(entries))
	}
	if entries[0].EventType != "completed" || entries[2].EventType != "created" {
		t.Fatalf("unexpected history order: %+v", entries)
	}
	if entries[1].Details != "updated: title: 'Write tests' -> 'Write more tests'" {
		t.Fatalf("unexpected diff: %q", entries[1].Details)
	}

	reloaded, err := store.New(ctx, gw)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	task, err := reloaded.Get(created.ID)
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if !task.Completed || !task.NotifiedOverdue {
		t.Fatalf("expected persisted state, got %+v", task)
	}
}

func newTestGateway(t *testing.T) (*SQLiteGateway, func()) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewSQLiteGateway(db), func() {
		_ = db.Close()
	}
}
