package board

import (
	"context"
	"fmt"

	"github.com/theonlysinjin/team-retro/internal/backend"
	"github.com/theonlysinjin/team-retro/internal/canvas"
	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/model"
)

// Outcome is how a drag ended.
type Outcome int

const (
	OutcomeCancelled Outcome = iota
	OutcomeRepositioned
	OutcomeGrouped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeRepositioned:
		return "repositioned"
	case OutcomeGrouped:
		return "grouped"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// DragResult describes a finished drag.
type DragResult struct {
	Outcome  Outcome
	CardID   string
	Position model.Position
	Drop     canvas.Drop
}

// BeginDrag starts dragging a card with the pointer at pointer.
func (c *Controller) BeginDrag(cardID string, pointer model.Position) error {
	card, ok := c.store.Card(cardID)
	if !ok {
		return fmt.Errorf("begin drag %s: %w", cardID, errCardGone)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag.Start(cardID, card.Position, pointer)
}

// DragMove follows the pointer and returns the overlay position.
func (c *Controller) DragMove(pointer model.Position) (model.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag.Move(pointer)
}

// Dragging reports whether cardID is being dragged and must be hidden
// from normal rendering.
func (c *Controller) Dragging(cardID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag.Hidden(cardID)
}

// DragOverlay returns the card shown in the drag overlay and where.
func (c *Controller) DragOverlay() (string, model.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag.Overlay()
}

// CancelDrag abandons the active drag. No mutation is issued and the card
// stays at its last known position.
func (c *Controller) CancelDrag() DragResult {
	c.mu.Lock()
	id, _ := c.drag.Cancel()
	c.mu.Unlock()
	return DragResult{Outcome: OutcomeCancelled, CardID: id}
}

// EndDrag releases the dragged card with the pointer at pointer.
//
// The new position is the card's position at BeginDrag plus the pointer
// delta. It is applied to the store at once, then confirmed in the
// background. When the drop overlaps another card enough, the card joins
// that card's group, or a new group of the two is created.
func (c *Controller) EndDrag(pointer model.Position) (DragResult, error) {
	c.mu.Lock()
	rel, ok := c.drag.Release(pointer)
	c.mu.Unlock()
	if !ok {
		return DragResult{}, ErrNoDrag
	}

	res := DragResult{Outcome: OutcomeCancelled, CardID: rel.CardID, Position: rel.Origin}
	if !rel.Moved {
		return res, nil
	}
	sess, err := c.session()
	if err != nil {
		return res, err
	}
	card, ok := c.store.Card(rel.CardID)
	if !ok {
		c.logger.Debug("dragged card vanished", "card", rel.CardID)
		return res, nil
	}

	drop := c.layout.ResolveDrop(card, rel.Position, c.store.Cards())
	if drop.Kind == canvas.DropCreateGroup && !c.keyring.Ready() {
		c.logger.Warn("grouping skipped, encryption not ready", "card", card.ID)
		drop = canvas.Drop{Kind: canvas.DropReposition, Position: rel.Position}
	}

	switch drop.Kind {
	case canvas.DropJoinGroup:
		err = c.joinGroup(card, drop)
	case canvas.DropCreateGroup:
		err = c.createGroup(sess.SessionID, card, drop)
	default:
		err = c.reposition(card, drop.Position)
	}
	if err != nil {
		return res, err
	}

	res.Position = drop.Position
	res.Drop = drop
	res.Outcome = OutcomeRepositioned
	if drop.Kind != canvas.DropReposition {
		res.Outcome = OutcomeGrouped
	}
	c.logger.Debug("drag ended", "card", card.ID, "outcome", res.Outcome.String(), "drop", drop.Kind.String())
	return res, nil
}

func (c *Controller) reposition(card model.Card, pos model.Position) error {
	if _, err := c.store.UpdateCardPosition(card.ID, pos); err != nil {
		return fmt.Errorf("reposition: %w", err)
	}
	c.tasks.Go("updateCard", func(ctx context.Context) error {
		return c.client.UpdateCard(ctx, card.ID, backend.CardPatch{Position: &pos})
	})
	return nil
}

// leaveOldGroup handles the group the dragged card is leaving, if any.
func (c *Controller) leaveOldGroup(card model.Card) error {
	if card.GroupID == "" {
		return nil
	}
	return c.leaveGroupLocally(card)
}

func (c *Controller) joinGroup(card model.Card, drop canvas.Drop) error {
	if err := c.leaveOldGroup(card); err != nil {
		return err
	}
	if _, err := c.store.MoveCardToGroup(card.ID, drop.GroupID, drop.Position); err != nil {
		return fmt.Errorf("join group: %w", err)
	}

	oldGroup := card.GroupID
	pos := drop.Position
	c.tasks.Go("addCardToGroup", func(ctx context.Context) error {
		if err := c.leaveRemotely(ctx, card.ID, oldGroup); err != nil {
			return err
		}
		groupID, err := c.resolveGroup(ctx, drop.GroupID)
		if err != nil {
			return err
		}
		if err := c.client.AddCardToGroup(ctx, card.ID, groupID); err != nil {
			return err
		}
		return c.client.UpdateCard(ctx, card.ID, backend.CardPatch{Position: &pos})
	})
	return nil
}

// createGroup groups card with the drop target. The group exists locally
// under a temporary id at once, so later drops onto either card join it
// instead of creating another group.
func (c *Controller) createGroup(sessionID string, card model.Card, drop canvas.Drop) error {
	key, err := c.key()
	if err != nil {
		return err
	}
	name := ""
	data, err := codec.SealGroup(key, model.GroupPayload{Name: &name})
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	if err := c.leaveOldGroup(card); err != nil {
		return err
	}
	target := drop.Target
	g, err := c.store.AddGroupOptimistic(model.Group{SessionID: sessionID, Name: &name, Position: target.Position}, target.ID, card.ID)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	if _, err := c.store.UpdateCardPosition(card.ID, drop.Position); err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	ticket := c.openTicket(g.ID)
	oldGroup := card.GroupID
	pos := drop.Position
	c.tasks.Go("createGroup", func(ctx context.Context) error {
		if err := c.leaveRemotely(ctx, card.ID, oldGroup); err != nil {
			c.settle(ticket, g.ID, "", err)
			return err
		}
		groupID, err := c.client.CreateGroup(ctx, sessionID, data, target.Position, []string{target.ID, card.ID})
		c.settle(ticket, g.ID, groupID, err)
		if err != nil {
			return err
		}
		return c.client.UpdateCard(ctx, card.ID, backend.CardPatch{Position: &pos})
	})
	return nil
}
