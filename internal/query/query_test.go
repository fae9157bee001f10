package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "1", Title: "Buy milk", Category: model.CategoryShopping},
		{ID: "2", Title: "Quarterly report", Description: "Finance numbers", Category: model.CategoryWork},
		{ID: "3", Title: "Run", Description: "Park loop, buy water", Category: model.CategoryHealth, Completed: true},
		{ID: "4", Title: "Café visit", Category: model.CategoryPersonal},
	}
}

func projectedIDs(tasks []model.Task) []model.TaskID {
	out := make([]model.TaskID, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}

func TestProjectAllEmptyIsIdentity(t *testing.T) {
	tasks := sampleTasks()
	assert.Equal(t, tasks, Project(tasks, model.Filter{Category: model.CategoryAll}))
	assert.Equal(t, tasks, Project(tasks, model.Filter{}))
}

func TestProject(t *testing.T) {
	tests := []struct {
		name   string
		filter model.Filter
		want   []model.TaskID
	}{
		{name: "category", filter: model.Filter{Category: "shopping"}, want: []model.TaskID{"1"}},
		{name: "category excludes", filter: model.Filter{Category: "work", Query: "milk"}, want: []model.TaskID{}},
		{name: "search title case-insensitive", filter: model.Filter{Category: "all", Query: "BUY"}, want: []model.TaskID{"1", "3"}},
		{name: "search description", filter: model.Filter{Query: "finance"}, want: []model.TaskID{"2"}},
		{name: "intersection", filter: model.Filter{Category: "health", Query: "buy"}, want: []model.TaskID{"3"}},
		{name: "unicode fold", filter: model.Filter{Query: "CAFÉ"}, want: []model.TaskID{"4"}},
		{name: "decomposed query", filter: model.Filter{Query: "CAFE\u0301"}, want: []model.TaskID{"4"}},
		{name: "whitespace query ignored", filter: model.Filter{Query: "   "}, want: []model.TaskID{"1", "2", "3", "4"}},
		{name: "no match", filter: model.Filter{Query: "zebra"}, want: []model.TaskID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, projectedIDs(Project(sampleTasks(), tt.filter)))
		})
	}
}

func TestProjectIsIdempotent(t *testing.T) {
	filter := model.Filter{Category: "all", Query: "buy"}
	once := Project(sampleTasks(), filter)
	assert.Equal(t, once, Project(once, filter))
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	_ = Project(tasks, model.Filter{Category: "work"})
	assert.Equal(t, sampleTasks(), tasks)
}

func TestComputeStats(t *testing.T) {
	assert.Equal(t, model.Stats{}, ComputeStats(nil))
	assert.Equal(t, model.Stats{Total: 4, Completed: 1, Progress: 25}, ComputeStats(sampleTasks()))
	assert.Equal(t, model.Stats{Total: 3, Completed: 2, Progress: 67}, ComputeStats([]model.Task{{Completed: true}, {Completed: true}, {}}))
}

func TestDueLabel(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Overdue", DueLabel(now.Add(-time.Hour), now))
	assert.Equal(t, "Due today", DueLabel(now.Add(3*time.Hour), now))
	assert.Equal(t, "Due tomorrow", DueLabel(now.Add(30*time.Hour), now))
	assert.Equal(t, "Due in 3 days", DueLabel(now.Add(80*time.Hour), now))
	assert.Equal(t, "May 20", DueLabel(now.Add(10*24*time.Hour), now))
	assert.Equal(t, "Jan 2, 2027", DueLabel(time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC), now))
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, IsOverdue(&past, false, now))
	assert.False(t, IsOverdue(&past, true, now))
	assert.False(t, IsOverdue(&future, false, now))
	assert.False(t, IsOverdue(nil, false, now))
}
