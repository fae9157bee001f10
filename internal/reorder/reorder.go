// Package reorder tracks a drag gesture over the task list and turns a
// confirmed drop into a single store reorder.
package reorder

import (
	"context"
	"sync"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

type Reorderer interface {
	Reorder(ctx context.Context, sourceID, targetID model.TaskID) error
}

type Controller struct {
	mu       sync.Mutex
	store    Reorderer
	dragging model.TaskID
	hovered  model.TaskID
}

func New(store Reorderer) *Controller {
	return &Controller{store: store}
}

// Begin starts dragging id, replacing any gesture already in progress.
func (c *Controller) Begin(id model.TaskID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = id
	c.hovered = ""
}

// Hover marks id as the current drop target. Hovering the dragged task
// itself clears the highlight.
func (c *Controller) Hover(id model.TaskID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragging == "" {
		return
	}
	if id == c.dragging {
		c.hovered = ""
		return
	}
	c.hovered = id
}

func (c *Controller) Leave(id model.TaskID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hovered == id {
		c.hovered = ""
	}
}

func (c *Controller) Dragging() (model.TaskID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging, c.dragging != ""
}

func (c *Controller) Hovered() model.TaskID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hovered
}

// Drop ends the gesture on targetID. It reorders only when a drag is in
// progress and the target differs from the dragged task.
func (c *Controller) Drop(ctx context.Context, targetID model.TaskID) error {
	c.mu.Lock()
	source := c.dragging
	c.dragging = ""
	c.hovered = ""
	c.mu.Unlock()

	if source == "" || targetID == "" || source == targetID {
		return nil
	}
	return c.store.Reorder(ctx, source, targetID)
}

func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = ""
	c.hovered = ""
}
