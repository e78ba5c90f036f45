package canvas

import (
	"errors"

	"github.com/theonlysinjin/team-retro/internal/model"
)

// ErrDragInProgress is returned by Start while another card is dragged.
var ErrDragInProgress = errors.New("canvas: drag already in progress")

// DragPhase is the state of the drag lifecycle.
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragDragging
)

// Drag tracks the lifecycle of a single card drag:
// idle -> dragging -> {released | cancelled} -> idle.
//
// While dragging, the card is hidden from normal rendering and an overlay
// follows the pointer 1:1. Nothing is written to the store until release.
type Drag struct {
	phase   DragPhase
	cardID  string
	origin  model.Position
	start   model.Position
	current model.Position
}

// Phase returns the current phase.
func (d *Drag) Phase() DragPhase { return d.phase }

// CardID returns the dragged card, or "".
func (d *Drag) CardID() string { return d.cardID }

// Start begins dragging cardID, whose canvas position is origin, with the
// pointer at pointer (any frame; only deltas are used).
func (d *Drag) Start(cardID string, origin, pointer model.Position) error {
	if d.phase == DragDragging {
		return ErrDragInProgress
	}
	*d = Drag{
		phase:   DragDragging,
		cardID:  cardID,
		origin:  origin,
		start:   pointer,
		current: pointer,
	}
	return nil
}

// Move records the pointer position and returns the overlay position.
func (d *Drag) Move(pointer model.Position) (model.Position, bool) {
	if d.phase != DragDragging {
		return model.Position{}, false
	}
	d.current = pointer
	return d.position(), true
}

// Delta returns the pointer displacement since Start.
func (d *Drag) Delta() model.Position {
	return model.Position{X: d.current.X - d.start.X, Y: d.current.Y - d.start.Y}
}

func (d *Drag) position() model.Position {
	delta := d.Delta()
	return d.origin.Add(delta.X, delta.Y)
}

// Hidden reports whether cardID must be hidden from normal rendering.
func (d *Drag) Hidden(cardID string) bool {
	return d.phase == DragDragging && d.cardID == cardID
}

// Overlay returns the dragged card and the position its overlay is drawn
// at.
func (d *Drag) Overlay() (cardID string, pos model.Position, ok bool) {
	if d.phase != DragDragging {
		return "", model.Position{}, false
	}
	return d.cardID, d.position(), true
}

// Release is the result of ending a drag.
type Release struct {
	CardID   string
	Origin   model.Position
	Delta    model.Position
	Position model.Position

	// Moved is false when the pointer came back to where it started.
	Moved bool
}

// Release ends the drag with the pointer at pointer and returns the
// canvas position origin + delta. ok is false when no drag was active.
func (d *Drag) Release(pointer model.Position) (Release, bool) {
	if d.phase != DragDragging {
		return Release{}, false
	}
	d.current = pointer
	delta := d.Delta()
	r := Release{
		CardID:   d.cardID,
		Origin:   d.origin,
		Delta:    delta,
		Position: d.position(),
		Moved:    delta.X != 0 || delta.Y != 0,
	}
	*d = Drag{}
	return r, true
}

// Cancel abandons the drag. It returns the card that was being dragged.
func (d *Drag) Cancel() (cardID string, ok bool) {
	if d.phase != DragDragging {
		return "", false
	}
	cardID = d.cardID
	*d = Drag{}
	return cardID, true
}
