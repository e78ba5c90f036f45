package board

import (
	"github.com/theonlysinjin/team-retro/internal/canvas"
	"github.com/theonlysinjin/team-retro/internal/model"
)

// BeginPan starts a pointer pan. Pans do not start while a card is being
// dragged.
func (c *Controller) BeginPan(pointer model.Position) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag.Phase() == canvas.DragDragging {
		return false
	}
	c.pan.Begin(pointer, c.store.CanvasOffset())
	return true
}

// PanMove follows the pointer and updates the canvas offset.
func (c *Controller) PanMove(pointer model.Position) (model.Position, bool) {
	c.mu.Lock()
	off, ok := c.pan.Move(pointer)
	c.mu.Unlock()
	if ok {
		c.store.SetCanvasOffset(off)
	}
	return off, ok
}

// EndPan finishes the pan and reports whether the pointer actually moved.
func (c *Controller) EndPan() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pan.End()
}

// Wheel pans by a wheel or trackpad delta.
func (c *Controller) Wheel(dx, dy float64) model.Position {
	off := canvas.Wheel(c.store.CanvasOffset(), dx, dy)
	c.store.SetCanvasOffset(off)
	return off
}

// Center sets the offset that centers the board in a viewport.
func (c *Controller) Center(viewport canvas.Size) model.Position {
	off := canvas.CenterOffset(viewport, c.layout.BoardSize)
	c.store.SetCanvasOffset(off)
	return off
}
