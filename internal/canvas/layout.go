package canvas

import "github.com/theonlysinjin/team-retro/internal/model"

// Layout holds the spatial constants of the board.
type Layout struct {
	// CardSize is the nominal card footprint used for overlap tests and
	// group bounds.
	CardSize Size

	// OverlapThreshold is the fraction of the footprint area two cards
	// must share for a drop to group them.
	OverlapThreshold float64

	// GroupMargin expands the union of member footprints.
	GroupMargin float64

	// StackOffset is the per-member cascade applied to grouped cards.
	StackOffset model.Position

	// BoardSize is the edge of the square board region centered on first
	// load.
	BoardSize float64
}

// DefaultLayout returns the standard board constants.
func DefaultLayout() Layout {
	return Layout{
		CardSize:         Size{W: 280, H: 140},
		OverlapThreshold: 0.3,
		GroupMargin:      20,
		StackOffset:      model.Position{X: 12, Y: 36},
		BoardSize:        1280,
	}
}

// Footprint returns the footprint of a card at pos.
func (l Layout) Footprint(pos model.Position) Rect {
	return Footprint(pos, l.CardSize)
}

// MinOverlap returns the intersection area a grouping drop requires.
func (l Layout) MinOverlap() float64 {
	return l.OverlapThreshold * l.CardSize.Area()
}

// StackPosition returns the position of the n-th cascaded card below
// anchor.
func (l Layout) StackPosition(anchor model.Position, n int) model.Position {
	return anchor.Add(l.StackOffset.X*float64(n), l.StackOffset.Y*float64(n))
}
