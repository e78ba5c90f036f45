package canvas

import (
	"math"

	"github.com/theonlysinjin/team-retro/internal/model"
)

// PanMoveThreshold is the distance in pixels a pointer must travel on
// either axis before a pan counts as moved.
const PanMoveThreshold = 3

// Pan tracks a pointer-drag pan gesture.
//
// The offset during a pan is the offset at Begin plus the total pointer
// displacement, so the canvas tracks the pointer 1:1.
type Pan struct {
	active      bool
	moved       bool
	start       model.Position
	startOffset model.Position
}

// Begin starts a pan at pointer with the current offset.
func (p *Pan) Begin(pointer, offset model.Position) {
	*p = Pan{active: true, start: pointer, startOffset: offset}
}

// Active reports whether a pan is in progress.
func (p *Pan) Active() bool { return p.active }

// Move returns the offset for the pointer position. ok is false when no pan
// is in progress.
func (p *Pan) Move(pointer model.Position) (offset model.Position, ok bool) {
	if !p.active {
		return model.Position{}, false
	}
	dx := pointer.X - p.start.X
	dy := pointer.Y - p.start.Y
	if math.Abs(dx) > PanMoveThreshold || math.Abs(dy) > PanMoveThreshold {
		p.moved = true
	}
	return p.startOffset.Add(dx, dy), true
}

// End finishes the pan and reports whether the pointer moved past the
// threshold at any point.
func (p *Pan) End() (moved bool) {
	moved = p.moved
	*p = Pan{}
	return moved
}

// Wheel returns offset shifted by a wheel or trackpad delta. Scrolling
// down or right moves the canvas up or left.
func Wheel(offset model.Position, dx, dy float64) model.Position {
	return offset.Add(-dx, -dy)
}

// CenterOffset returns the pan offset that centers a square board of edge
// board on a viewport of size vp.
func CenterOffset(vp Size, board float64) model.Position {
	return model.Position{X: vp.W/2 - board/2, Y: vp.H/2 - board/2}
}
