package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/reminder"
	"github.com/Joseda-hg/lazytodo/internal/store"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestSubmitFormCreatesTaskAndSelectsIt(t *testing.T) {
	ui, st, cleanup := newTestUI(t)
	defer cleanup()

	if err := ui.addTask(nil, nil); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if ui.form == nil {
		t.Fatalf("expected form to open")
	}
	ui.form.fields[fieldTitle].Value = "  Buy milk "
	ui.form.fields[fieldCategory].Value = string(model.CategoryShopping)
	ui.form.fields[fieldDue].Value = "2026-03-02"

	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit form: %v", err)
	}
	if ui.form != nil {
		t.Fatalf("expected form to close")
	}

	tasks := st.Snapshot()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "Buy milk" || tasks[0].Category != model.CategoryShopping {
		t.Fatalf("unexpected task: %+v", tasks[0])
	}
	if tasks[0].DueDate == nil {
		t.Fatalf("expected due date to be set")
	}
	if selected := ui.selectedTask(); selected == nil || selected.ID != tasks[0].ID {
		t.Fatalf("expected new task to be selected")
	}
	if len(ui.historyEntries) != 1 || ui.historyEntries[0].EventType != "created" {
		t.Fatalf("expected created history entry, got %+v", ui.historyEntries)
	}
}

func TestSubmitFormKeepsFormOpenOnInvalidInput(t *testing.T) {
	ui, st, cleanup := newTestUI(t)
	defer cleanup()

	cases := []struct {
		name  string
		title string
		due   string
	}{
		{name: "empty title", title: "   "},
		{name: "bad due date", title: "Dentist", due: "next tuesday"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ui.status = ""
			if err := ui.addTask(nil, nil); err != nil {
				t.Fatalf("add task: %v", err)
			}
			ui.form.fields[fieldTitle].Value = tc.title
			ui.form.fields[fieldDue].Value = tc.due

			if err := ui.submitForm(nil, nil); err != nil {
				t.Fatalf("submit form: %v", err)
			}
			if ui.form == nil {
				t.Fatalf("expected form to stay open")
			}
			if ui.status == "" {
				t.Fatalf("expected an error status")
			}
			if len(st.Snapshot()) != 0 {
				t.Fatalf("expected no task to be created")
			}
			ui.form = nil
		})
	}
}

func TestAddTaskPrefillsActiveCategory(t *testing.T) {
	ui, _, cleanup := newTestUI(t)
	defer cleanup()

	if err := ui.setCategory(nil, string(model.CategoryHealth)); err != nil {
		t.Fatalf("set category: %v", err)
	}
	if err := ui.addTask(nil, nil); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if got := ui.form.fields[fieldCategory].Value; got != string(model.CategoryHealth) {
		t.Fatalf("expected health category, got %q", got)
	}
}

func TestEditTaskUpdatesSelected(t *testing.T) {
	ui, st, cleanup := newTestUI(t)
	defer cleanup()

	created := mustCreate(t, st, "Draft report")
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}

	if err := ui.editTask(nil, nil); err != nil {
		t.Fatalf("edit task: %v", err)
	}
	if ui.form == nil || ui.form.taskID != created.ID {
		t.Fatalf("expected edit form for %s", created.ID)
	}
	if got := ui.form.fields[fieldTitle].Value; got != "Draft report" {
		t.Fatalf("expected title prefilled, got %q", got)
	}
	ui.form.fields[fieldTitle].Value = "Final report"
	ui.form.fields[fieldPriority].Value = string(model.PriorityHigh)

	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit form: %v", err)
	}

	updated, err := st.Get(created.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if updated.Title != "Final report" || updated.Priority != model.PriorityHigh {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected createdAt to be preserved")
	}
	if len(ui.historyEntries) != 2 || ui.historyEntries[0].EventType != "updated" {
		t.Fatalf("expected updated history entry first, got %+v", ui.historyEntries)
	}
}

func TestCategoryFilterCycles(t *testing.T) {
	ui, st, cleanup := newTestUI(t)
	defer cleanup()

	mustCreateIn(t, st, "Standup", model.CategoryWork)
	mustCreateIn(t, st, "Eggs", model.CategoryShopping)
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if len(ui.tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(ui.tasks))
	}

	if err := ui.nextCategory(nil, nil); err != nil {
		t.Fatalf("next category: %v", err)
	}
	if ui.filter.Category != string(model.CategoryWork) {
		t.Fatalf("expected work filter, got %q", ui.filter.Category)
	}
	if len(ui.tasks) != 1 || ui.tasks[0].Title != "Standup" {
		t.Fatalf("expected only work task, got %+v", ui.tasks)
	}

	if err := ui.prevCategory(nil, nil); err != nil {
		t.Fatalf("prev category: %v", err)
	}
	if err := ui.prevCategory(nil, nil); err != nil {
		t.Fatalf("prev category: %v", err)
	}
	if ui.filter.Category != string(model.CategoryOther) {
		t.Fatalf("expected wrap to other, got %q", ui.filter.Category)
	}
	if len(ui.tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(ui.tasks))
	}
}

func TestSearchAndClearFilters(t *testing.T) {
	ui, st, cleanup := newTestUI(t)
	defer cleanup()

	mustCreate(t, st, "Call mom")
	mustCreate(t, st, "Pay rent")

	ui.filter.Query = "RENT"
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if len(ui.tasks) != 1 || ui.tasks[0].Title != "Pay rent" {
		t.Fatalf("expected search match, got %+v", ui.tasks)
	}

	ui.banner = "Reminder"
	if err := ui.clearFilters(nil, nil); err != nil {
		t.Fatalf("clear filters: %v", err)
	}
	if len(ui.tasks) != 2 {
		t.Fatalf("expected filters cleared, got %d tasks", len(ui.tasks))
	}
	if ui.banner != "" {
		t.Fatalf("expected banner cleared")
	}
}

func TestMoveAndDropReordersTasks(t *testing.T) {
	ui, st, cleanup := newTestUI(t)
	defer cleanup()

	// Create prepends, so this yields [A, B, C].
	taskC := mustCreate(t, st, "C")
	mustCreate(t, st, "B")
	mustCreate(t, st, "A")
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}

	ui.selected = 2
	if err := ui.grabOrDrop(nil, nil); err != nil {
		t.Fatalf("grab: %v", err)
	}
	if id, ok := ui.drag.Dragging(); !ok || id != taskC.ID {
		t.Fatalf("expected C to be dragged")
	}

	if err := ui.moveUp(nil, nil); err != nil {
		t.Fatalf("move up: %v", err)
	}
	if err := ui.moveUp(nil, nil); err != nil {
		t.Fatalf("move up: %v", err)
	}
	if err := ui.grabOrDrop(nil, nil); err != nil {
		t.Fatalf("drop: %v", err)
	}

	if got := titles(st.Snapshot()); got != "C,A,B" {
		t.Fatalf("expected C,A,B, got %s", got)
	}
	if _, ok := ui.drag.Dragging(); ok {
		t.Fatalf("expected drag state to be cleared")
	}
	if selected := ui.selectedTask(); selected == nil || selected.ID != taskC.ID {
		t.Fatalf("expected moved task to stay selected")
	}
}

func TestCancelDragLeavesOrder(t *testing.T) {
	ui, st, cleanup := newTestUI(t)
	defer cleanup()

	mustCreate(t, st, "B")
	mustCreate(t, st, "A")
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}

	if err := ui.grabOrDrop(nil, nil); err != nil {
		t.Fatalf("grab: %v", err)
	}
	if err := ui.moveDown(nil, nil); err != nil {
		t.Fatalf("move down: %v", err)
	}
	if err := ui.cancelDrag(nil, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := ui.grabOrDrop(nil, nil); err != nil {
		t.Fatalf("grab: %v", err)
	}
	if got := titles(st.Snapshot()); got != "A,B" {
		t.Fatalf("expected A,B, got %s", got)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ui, st, cleanup := newTestUI(t)
	defer cleanup()

	created := mustCreate(t, st, "Old chore")
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}

	if err := ui.deleteTask(nil, nil); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if ui.confirmDelete != created.ID {
		t.Fatalf("expected confirmation for %s", created.ID)
	}
	if err := ui.confirmDeleteNo(nil, nil); err != nil {
		t.Fatalf("confirm no: %v", err)
	}
	if len(st.Snapshot()) != 1 {
		t.Fatalf("expected task to survive")
	}

	if err := ui.deleteTask(nil, nil); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := ui.confirmDeleteYes(nil, nil); err != nil {
		t.Fatalf("confirm yes: %v", err)
	}
	if len(st.Snapshot()) != 0 || len(ui.tasks) != 0 {
		t.Fatalf("expected task to be deleted")
	}
	if ui.selectedTask() != nil {
		t.Fatalf("expected no selection")
	}
}

func TestToggleCompleteUpdatesStats(t *testing.T) {
	ui, st, cleanup := newTestUI(t)
	defer cleanup()

	mustCreate(t, st, "Stretch")
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}

	if err := ui.toggleComplete(nil, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if ui.stats.Completed != 1 || ui.stats.Progress != 100 {
		t.Fatalf("unexpected stats: %+v", ui.stats)
	}
	if !ui.tasks[0].Completed {
		t.Fatalf("expected task completed")
	}
}

func TestActionsIgnoredWhileFormOpen(t *testing.T) {
	ui, st, cleanup := newTestUI(t)
	defer cleanup()

	mustCreate(t, st, "Stretch")
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if err := ui.addTask(nil, nil); err != nil {
		t.Fatalf("add task: %v", err)
	}

	if err := ui.toggleComplete(nil, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := ui.deleteTask(nil, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if st.Snapshot()[0].Completed || ui.confirmDelete != "" {
		t.Fatalf("expected actions to be ignored while the form is open")
	}
	if err := ui.quit(nil, nil); err != nil {
		t.Fatalf("expected quit to be ignored, got %v", err)
	}
}

func TestNotifySetsBanner(t *testing.T) {
	ui, _, cleanup := newTestUI(t)
	defer cleanup()

	ui.notify(context.Background(), reminder.Event{
		Kind: model.NotifyOverdue,
		Task: model.Task{Title: "Pay rent"},
		At:   testNow,
	})
	if ui.banner != `"Pay rent" is overdue!` {
		t.Fatalf("unexpected banner %q", ui.banner)
	}
}

func TestFormatTaskSummary(t *testing.T) {
	due := testNow.Add(2 * time.Hour)
	task := model.Task{Title: "Dentist", Category: model.CategoryHealth, Priority: model.PriorityHigh, DueDate: &due, Completed: true}

	got := formatTaskSummary(task, testNow)
	if got != "[x] !! H Dentist | Due today" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(50, 10); got != "[#####-----]" {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := progressBar(150, 4); got != "[####]" {
		t.Fatalf("expected clamp, got %q", got)
	}
}

func TestCycleOption(t *testing.T) {
	options := priorityOptions()
	if got := cycleOption(options, "high", 1); got != "low" {
		t.Fatalf("expected wrap to low, got %q", got)
	}
	if got := cycleOption(options, "low", -1); got != "high" {
		t.Fatalf("expected wrap to high, got %q", got)
	}
	if got := cycleOption(options, "bogus", 1); got != "low" {
		t.Fatalf("expected reset to first, got %q", got)
	}
}

func newTestUI(t *testing.T) (*UI, *store.Store, func()) {
	t.Helper()
	dbConn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	st, err := store.New(context.Background(), db.NewSQLiteGateway(dbConn),
		store.WithClock(store.ClockFunc(func() time.Time { return testNow })))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	history := db.NewHistoryLog(dbConn, nil)
	detach := history.Attach(st)

	ui := newUI(st, history, nil)
	ui.now = func() time.Time { return testNow }
	return ui, st, func() {
		detach()
		_ = dbConn.Close()
	}
}

func mustCreate(t *testing.T, st *store.Store, title string) model.Task {
	t.Helper()
	return mustCreateIn(t, st, title, model.CategoryPersonal)
}

func mustCreateIn(t *testing.T, st *store.Store, title string, category model.Category) model.Task {
	t.Helper()
	task, err := st.Create(context.Background(), model.TaskInput{Title: title, Category: category})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func titles(tasks []model.Task) string {
	names := make([]string, 0, len(tasks))
	for _, task := range tasks {
		names = append(names, task.Title)
	}
	return strings.Join(names, ",")
}
