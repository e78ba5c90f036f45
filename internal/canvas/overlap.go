package canvas

import "github.com/theonlysinjin/team-retro/internal/model"

// OverlapArea returns the intersection area of two card footprints.
func (l Layout) OverlapArea(a, b model.Position) float64 {
	r, ok := l.Footprint(a).Intersect(l.Footprint(b))
	if !ok {
		return 0
	}
	return r.Area()
}

// FindDropTarget returns the card that a card dropped at pos groups with.
// The dropped card itself (excludeID) is never a candidate.
func (l Layout) FindDropTarget(excludeID string, pos model.Position, cards []model.Card) (model.Card, bool) {
	need := l.MinOverlap()
	var (
		best     model.Card
		bestArea float64
		found    bool
	)
	for _, c := range cards {
		if c.ID == excludeID {
			continue
		}
		area := l.OverlapArea(pos, c.Position)
		if area == 0 || area < need {
			continue
		}
		if !found || area > bestArea {
			best, bestArea, found = c, area, true
		}
	}
	return best, found
}

// GroupBounds returns the union of the members' footprints expanded by
// the group margin. ok is false for an empty member list.
func (l Layout) GroupBounds(members []model.Card) (Rect, bool) {
	if len(members) == 0 {
		return Rect{}, false
	}
	r := l.Footprint(members[0].Position)
	for _, c := range members[1:] {
		r = r.Union(l.Footprint(c.Position))
	}
	return r.Expand(l.GroupMargin), true
}

// DropKind is the resolution of a drag release.
type DropKind int

const (
	// DropReposition persists a freeform position.
	DropReposition DropKind = iota + 1
	// DropJoinGroup adds the card to the target's existing group.
	DropJoinGroup
	// DropCreateGroup creates a group of the target and the dropped card.
	DropCreateGroup
)

func (k DropKind) String() string {
	switch k {
	case DropReposition:
		return "reposition"
	case DropJoinGroup:
		return "join-group"
	case DropCreateGroup:
		return "create-group"
	}
	return "unknown"
}

// Drop describes what a drag release should do.
type Drop struct {
	Kind DropKind

	// Position is where the dropped card ends up.
	Position model.Position

	// Target is the card the drop grouped with (zero for DropReposition).
	Target model.Card

	// GroupID is the group joined (DropJoinGroup only).
	GroupID string
}

// ResolveDrop decides the outcome of releasing dragged at pos among cards.
//
// Dropping onto a member of the card's own group is a plain reposition.
// Joining an existing group places the card in the cascade below the
// group's first member; creating a group offsets it one step from the
// target.
func (l Layout) ResolveDrop(dragged model.Card, pos model.Position, cards []model.Card) Drop {
	target, ok := l.FindDropTarget(dragged.ID, pos, cards)
	if !ok {
		return Drop{Kind: DropReposition, Position: pos}
	}

	if target.GroupID == "" {
		return Drop{
			Kind:     DropCreateGroup,
			Position: l.StackPosition(target.Position, 1),
			Target:   target,
		}
	}

	if target.GroupID == dragged.GroupID {
		return Drop{Kind: DropReposition, Position: pos}
	}

	var members []model.Card
	for _, c := range cards {
		if c.GroupID == target.GroupID && c.ID != dragged.ID {
			members = append(members, c)
		}
	}
	return Drop{
		Kind:     DropJoinGroup,
		Position: l.StackPosition(members[0].Position, len(members)),
		Target:   target,
		GroupID:  target.GroupID,
	}
}
