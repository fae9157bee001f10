// Package reminder scans the task collection for due-soon and overdue
// tasks and raises one notification per threshold crossing.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/store"
)

const (
	DefaultInterval = time.Minute
	DefaultHorizon  = 24 * time.Hour
)

// TaskSource is the part of the task store the engine reads and writes.
// MarkNotifiedIf must check and set the flag atomically and report whether
// it set it.
type TaskSource interface {
	Snapshot() []model.Task
	MarkNotifiedIf(ctx context.Context, id model.TaskID, kind model.NotifyKind, observedDue *time.Time) (bool, error)
}

type Event struct {
	Kind model.NotifyKind `json:"kind"`
	Task model.Task       `json:"task"`
	At   time.Time        `json:"at"`
}

func (e Event) Message() string {
	if e.Kind == model.NotifyOverdue {
		return fmt.Sprintf("%q is overdue!", e.Task.Title)
	}
	return fmt.Sprintf("Reminder: %q is due soon!", e.Task.Title)
}

type Option func(*Engine)

func WithClock(clock store.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

func WithInterval(interval time.Duration) Option {
	return func(e *Engine) {
		if interval > 0 {
			e.interval = interval
		}
	}
}

func WithHorizon(horizon time.Duration) Option {
	return func(e *Engine) {
		if horizon > 0 {
			e.horizon = horizon
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine holds no task state; every tick is a fresh read-evaluate-write pass.
type Engine struct {
	source   TaskSource
	sink     Sink
	clock    store.Clock
	interval time.Duration
	horizon  time.Duration
	logger   *slog.Logger
}

func New(source TaskSource, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		sink:     sink,
		clock:    store.SystemClock{},
		interval: DefaultInterval,
		horizon:  DefaultHorizon,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Interval() time.Duration {
	return e.interval
}

// Tick evaluates every open task with a due date once. The due-soon and
// overdue checks are independent, so one task can fire both in a tick.
func (e *Engine) Tick(ctx context.Context) ([]Event, error) {
	now := e.clock.Now()
	horizon := now.Add(e.horizon)

	var fired []Event
	var errs []error
	for _, task := range e.source.Snapshot() {
		if task.Completed || task.DueDate == nil {
			continue
		}
		due := *task.DueDate

		if due.After(now) && !due.After(horizon) && !task.NotifiedDueSoon {
			event, err := e.fire(ctx, model.NotifyDueSoon, task, now)
			if event != nil {
				fired = append(fired, *event)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}

		if due.Before(now) && !task.NotifiedOverdue {
			event, err := e.fire(ctx, model.NotifyOverdue, task, now)
			if event != nil {
				fired = append(fired, *event)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	return fired, errors.Join(errs...)
}

// fire claims the flag for kind first and notifies the sink only when the
// claim succeeded, so an edit or completion that raced the snapshot wins.
func (e *Engine) fire(ctx context.Context, kind model.NotifyKind, task model.Task, now time.Time) (*Event, error) {
	marked, err := e.source.MarkNotifiedIf(ctx, task.ID, kind, task.DueDate)
	switch {
	case errors.Is(err, store.ErrNotFound):
		e.logger.Debug("reminder target vanished", "task", task.ID, "kind", kind)
		return nil, nil
	case err != nil:
		e.logger.Warn("mark notified failed", "task", task.ID, "kind", kind, "error", err)
	}
	if !marked {
		if err == nil {
			e.logger.Debug("reminder skipped; task changed since snapshot", "task", task.ID, "kind", kind)
		}
		return nil, err
	}

	event := Event{Kind: kind, Task: task, At: now}
	e.sink.Notify(ctx, event)
	return &event, err
}

// Run ticks immediately and then on every interval until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("reminder engine starting", "interval", e.interval, "horizon", e.horizon)
	e.runTick(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("reminder engine stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			e.runTick(ctx)
		}
	}
}

func (e *Engine) runTick(ctx context.Context) {
	fired, err := e.Tick(ctx)
	if err != nil {
		e.logger.Error("reminder tick failed", "error", err)
	}
	if len(fired) > 0 {
		e.logger.Debug("reminder tick", "fired", len(fired))
	}
}
