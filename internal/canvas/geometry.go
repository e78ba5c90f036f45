package canvas

import (
	"math"

	"github.com/theonlysinjin/team-retro/internal/model"
)

// Size is a width and height in pixels.
type Size struct {
	W float64
	H float64
}

// Area returns W*H.
func (s Size) Area() float64 { return s.W * s.H }

// Rect is an axis-aligned rectangle with its origin at the top-left.
type Rect struct {
	X, Y, W, H float64
}

// Footprint returns the rectangle a card of size s occupies at pos.
func Footprint(pos model.Position, s Size) Rect {
	return Rect{X: pos.X, Y: pos.Y, W: s.W, H: s.H}
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 { return r.W * r.H }

// Max returns the bottom-right corner.
func (r Rect) Max() model.Position {
	return model.Position{X: r.X + r.W, Y: r.Y + r.H}
}

// Intersect returns the overlap of r and o. ok is false when they do not
// overlap with a positive area.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.X+r.W, o.X+o.W)
	y1 := math.Min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, true
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.X+r.W, o.X+o.W)
	y1 := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Expand grows r by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, W: r.W + 2*m, H: r.H + 2*m}
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p model.Position) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}
