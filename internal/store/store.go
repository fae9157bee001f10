package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Gateway loads and saves the whole ordered task collection.
type Gateway interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type ChangeKind string

const (
	ChangeCreated   ChangeKind = "created"
	ChangeUpdated   ChangeKind = "updated"
	ChangeDeleted   ChangeKind = "deleted"
	ChangeToggled   ChangeKind = "toggled"
	ChangeReordered ChangeKind = "reordered"
	ChangeNotified  ChangeKind = "notified"
)

// Change describes one applied mutation. Before is set for updates,
// deletes and toggles. From and To are collection indexes for reorders.
type Change struct {
	Kind   ChangeKind
	Task   model.Task
	Before *model.Task
	From   int
	To     int
	Notify model.NotifyKind
}

type Option func(*Store)

func WithClock(clock Clock) Option {
	return func(s *Store) { s.clock = clock }
}

func WithIDFunc(fn func() model.TaskID) Option {
	return func(s *Store) { s.newID = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

const maxIDAttempts = 8

// Store owns the ordered task collection. All operations are serialized;
// every mutation saves the full collection before returning.
type Store struct {
	mu      sync.Mutex
	gateway Gateway
	clock   Clock
	newID   func() model.TaskID
	logger  *slog.Logger
	tasks   []model.Task
	dirty   bool

	subMu       sync.Mutex
	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(Change)
}

func New(ctx context.Context, gateway Gateway, opts ...Option) (*Store, error) {
	s := &Store{
		gateway: gateway,
		clock:   SystemClock{},
		newID:   newTaskID,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	tasks, err := gateway.Load(ctx)
	if err != nil {
		return nil, newPersistenceError("load", err)
	}
	s.tasks = make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		s.tasks = append(s.tasks, task.Clone())
	}
	return s, nil
}

func newTaskID() model.TaskID {
	return model.TaskID(uuid.Must(uuid.NewV7()).String())
}

// Create prepends a new task. On a PersistenceError the task is still
// returned because it stays in the collection.
func (s *Store) Create(ctx context.Context, input model.TaskInput) (model.Task, error) {
	normalized, err := normalizeInput(input)
	if err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	id, err := s.uniqueIDLocked()
	if err != nil {
		s.mu.Unlock()
		return model.Task{}, err
	}

	task := model.Task{
		ID:          id,
		Title:       normalized.Title,
		Description: normalized.Description,
		Category:    normalized.Category,
		Priority:    normalized.Priority,
		DueDate:     normalized.DueDate,
		CreatedAt:   s.clock.Now(),
	}
	s.tasks = slices.Insert(s.tasks, 0, task)
	saveErr := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeCreated, Task: task.Clone()})
	return task.Clone(), saveErr
}

// Update replaces the editable fields of a task in place. A changed due
// date clears both notification flags.
func (s *Store) Update(ctx context.Context, id model.TaskID, input model.TaskInput) (model.Task, error) {
	normalized, err := normalizeInput(input)
	if err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	index := s.indexLocked(id)
	if index < 0 {
		s.mu.Unlock()
		return model.Task{}, &NotFoundError{ID: id}
	}

	before := s.tasks[index].Clone()
	task := &s.tasks[index]
	task.Title = normalized.Title
	task.Description = normalized.Description
	task.Category = normalized.Category
	task.Priority = normalized.Priority
	if !sameDue(task.DueDate, normalized.DueDate) {
		task.NotifiedDueSoon = false
		task.NotifiedOverdue = false
	}
	task.DueDate = normalized.DueDate
	after := task.Clone()
	saveErr := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeUpdated, Task: after, Before: &before})
	return after.Clone(), saveErr
}

func (s *Store) Delete(ctx context.Context, id model.TaskID) error {
	s.mu.Lock()
	index := s.indexLocked(id)
	if index < 0 {
		s.mu.Unlock()
		return &NotFoundError{ID: id}
	}

	removed := s.tasks[index].Clone()
	s.tasks = slices.Delete(s.tasks, index, index+1)
	saveErr := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeDeleted, Task: removed, Before: &removed, From: index})
	return saveErr
}

func (s *Store) ToggleComplete(ctx context.Context, id model.TaskID) (model.Task, error) {
	s.mu.Lock()
	index := s.indexLocked(id)
	if index < 0 {
		s.mu.Unlock()
		return model.Task{}, &NotFoundError{ID: id}
	}

	before := s.tasks[index].Clone()
	s.tasks[index].Completed = !s.tasks[index].Completed
	after := s.tasks[index].Clone()
	saveErr := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeToggled, Task: after, Before: &before})
	return after.Clone(), saveErr
}

// Reorder moves the source task to the target's current index, shifting
// the tasks in between by one. Equal or unknown ids are ignored.
func (s *Store) Reorder(ctx context.Context, sourceID, targetID model.TaskID) error {
	if sourceID == targetID {
		return nil
	}

	s.mu.Lock()
	from := s.indexLocked(sourceID)
	to := s.indexLocked(targetID)
	if from < 0 || to < 0 {
		s.mu.Unlock()
		s.logger.Debug("reorder ignored", "source", sourceID, "target", targetID)
		return nil
	}

	moved := s.tasks[from]
	s.tasks = slices.Delete(s.tasks, from, from+1)
	s.tasks = slices.Insert(s.tasks, to, moved)
	saveErr := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeReordered, Task: moved.Clone(), From: from, To: to})
	return saveErr
}

// MarkNotified sets the reminder flag for kind unconditionally.
func (s *Store) MarkNotified(ctx context.Context, id model.TaskID, kind model.NotifyKind) error {
	_, err := s.markNotified(ctx, id, kind, func(model.Task) bool { return true })
	return err
}

// MarkNotifiedIf sets the reminder flag for kind only while the task is
// still open, still due at observedDue and not yet notified for kind. It
// reports whether the flag was set; the check and the write happen under
// one lock so a concurrent edit is never overwritten.
func (s *Store) MarkNotifiedIf(ctx context.Context, id model.TaskID, kind model.NotifyKind, observedDue *time.Time) (bool, error) {
	return s.markNotified(ctx, id, kind, func(task model.Task) bool {
		if task.Completed || !sameDue(task.DueDate, observedDue) {
			return false
		}
		if kind == model.NotifyDueSoon {
			return !task.NotifiedDueSoon
		}
		return !task.NotifiedOverdue
	})
}

func (s *Store) markNotified(ctx context.Context, id model.TaskID, kind model.NotifyKind, eligible func(model.Task) bool) (bool, error) {
	if kind != model.NotifyDueSoon && kind != model.NotifyOverdue {
		return false, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown notification kind %q", kind)}
	}

	s.mu.Lock()
	index := s.indexLocked(id)
	if index < 0 {
		s.mu.Unlock()
		return false, &NotFoundError{ID: id}
	}
	if !eligible(s.tasks[index]) {
		s.mu.Unlock()
		return false, nil
	}

	switch kind {
	case model.NotifyDueSoon:
		s.tasks[index].NotifiedDueSoon = true
	case model.NotifyOverdue:
		s.tasks[index].NotifiedOverdue = true
	}
	after := s.tasks[index].Clone()
	saveErr := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeNotified, Task: after, Notify: kind})
	return true, saveErr
}

// Snapshot returns a copy of the collection in display order.
func (s *Store) Snapshot() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task.Clone())
	}
	return out
}

func (s *Store) Get(id model.TaskID) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(id)
	if index < 0 {
		return model.Task{}, &NotFoundError{ID: id}
	}
	return s.tasks[index].Clone(), nil
}

// Dirty reports whether the last save failed and has not been retried successfully.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush retries an outstanding save. It is a no-op when nothing is pending.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persistLocked(ctx)
}

// Subscribe registers fn for every applied change. fn runs after the
// store lock is released, so it may call back into the store.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscriber) bool {
			return sub.id == id
		})
	}
}

func (s *Store) publish(change Change) {
	s.subMu.Lock()
	subs := slices.Clone(s.subscribers)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(change)
	}
}

func (s *Store) persistLocked(ctx context.Context) error {
	snapshot := make([]model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		snapshot = append(snapshot, task.Clone())
	}

	if err := s.gateway.Save(ctx, snapshot); err != nil {
		s.dirty = true
		perr := newPersistenceError("save", err)
		s.logger.Warn("save tasks failed; keeping in-memory state", "error", err, "tasks", len(snapshot))
		s.logger.Debug("save tasks failure stack", "stack", perr.Stack())
		return perr
	}
	if s.dirty {
		s.logger.Info("pending task save recovered", "tasks", len(snapshot))
	}
	s.dirty = false
	return nil
}

func (s *Store) indexLocked(id model.TaskID) int {
	return slices.IndexFunc(s.tasks, func(task model.Task) bool {
		return task.ID == id
	})
}

func (s *Store) uniqueIDLocked() (model.TaskID, error) {
	for range maxIDAttempts {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id, nil
		}
	}
	return "", &ValidationError{Field: "id", Reason: "could not allocate a unique id"}
}

func normalizeInput(input model.TaskInput) (model.TaskInput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.TaskInput{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	priority, err := NormalizePriority(string(input.Priority))
	if err != nil {
		return model.TaskInput{}, err
	}

	var due *time.Time
	if input.DueDate != nil {
		value := *input.DueDate
		due = &value
	}

	return model.TaskInput{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    NormalizeCategory(string(input.Category)),
		Priority:    priority,
		DueDate:     due,
	}, nil
}

// NormalizeCategory maps unknown or empty values to the "other" tag.
func NormalizeCategory(value string) model.Category {
	candidate := model.Category(strings.ToLower(strings.TrimSpace(value)))
	if slices.Contains(model.Categories, candidate) {
		return candidate
	}
	return model.CategoryOther
}

func NormalizePriority(value string) (model.Priority, error) {
	candidate := model.Priority(strings.ToLower(strings.TrimSpace(value)))
	if candidate == "" {
		return model.PriorityMedium, nil
	}
	if slices.Contains(model.Priorities, candidate) {
		return candidate, nil
	}
	return "", &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", value)}
}

func sameDue(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
