package reminder

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

type Sink interface {
	Notify(ctx context.Context, event Event)
}

type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) Notify(ctx context.Context, event Event) { f(ctx, event) }

type MultiSink []Sink

func (m MultiSink) Notify(ctx context.Context, event Event) {
	for _, sink := range m {
		sink.Notify(ctx, event)
	}
}

type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Notify(ctx context.Context, event Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelWarn
	if event.Kind == model.NotifyOverdue {
		level = slog.LevelError
	}
	logger.Log(ctx, level, event.Message(), "task", event.Task.ID, "kind", event.Kind)
}

// Recorder keeps the most recent events in a fixed-size ring.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = 50
	}
	return &Recorder{events: make([]Event, size)}
}

func (r *Recorder) Notify(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.next] = event
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns recorded events, newest first.
func (r *Recorder) Recent() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.events)
	}
	out := make([]Event, 0, count)
	for i := 1; i <= count; i++ {
		index := (r.next - i + len(r.events)) % len(r.events)
		out = append(out, r.events[index])
	}
	return out
}
