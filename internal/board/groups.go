package board

import (
	"context"
	"errors"
	"fmt"

	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/model"
	"github.com/theonlysinjin/team-retro/internal/state"
)

var (
	errCardGone  = state.ErrCardNotFound
	errGroupGone = state.ErrGroupNotFound
)

// leaveGroupLocally clears card's group in the store and dissolves the
// group when fewer than two members remain.
func (c *Controller) leaveGroupLocally(card model.Card) error {
	if _, err := c.store.SetCardGroup(card.ID, ""); err != nil {
		return fmt.Errorf("leave group: %w", err)
	}
	if len(c.store.GroupMembers(card.GroupID)) < 2 {
		_, err := c.store.DissolveGroup(card.GroupID)
		if err != nil && !errors.Is(err, state.ErrGroupNotFound) {
			return fmt.Errorf("dissolve group: %w", err)
		}
		c.logger.Debug("group dissolved", "group", card.GroupID)
	}
	return nil
}

// RemoveFromGroup takes a card out of its group. Ungrouped cards are a
// no-op.
func (c *Controller) RemoveFromGroup(cardID string) error {
	if _, err := c.session(); err != nil {
		return err
	}
	card, ok := c.store.Card(cardID)
	if !ok {
		return fmt.Errorf("remove from group %s: %w", cardID, errCardGone)
	}
	if card.GroupID == "" {
		return nil
	}
	if err := c.leaveGroupLocally(card); err != nil {
		return err
	}

	c.tasks.Go("removeCardFromGroup", func(ctx context.Context) error {
		return c.leaveRemotely(ctx, cardID, card.GroupID)
	})
	return nil
}

// RenameGroup sets a group's name, keeping its color.
func (c *Controller) RenameGroup(groupID, name string) error {
	if _, err := c.session(); err != nil {
		return err
	}
	g, ok := c.store.Group(groupID)
	if !ok {
		return fmt.Errorf("rename group %s: %w", groupID, errGroupGone)
	}
	key, err := c.key()
	if err != nil {
		return err
	}

	g.Name = &name
	data, err := codec.SealGroup(key, model.GroupPayload{Name: g.Name, Color: g.Color})
	if err != nil {
		return fmt.Errorf("rename group: %w", err)
	}
	if err := c.store.PutGroup(g); err != nil {
		return fmt.Errorf("rename group: %w", err)
	}

	c.tasks.Go("updateGroupTitle", func(ctx context.Context) error {
		id, err := c.resolveGroup(ctx, groupID)
		if err != nil {
			return err
		}
		return c.client.UpdateGroupTitle(ctx, id, data)
	})
	return nil
}

// DeleteGroup releases every member of a group and deletes it.
func (c *Controller) DeleteGroup(groupID string) error {
	if _, err := c.session(); err != nil {
		return err
	}
	if _, err := c.store.DissolveGroup(groupID); err != nil {
		return fmt.Errorf("delete group %s: %w", groupID, err)
	}

	c.tasks.Go("deleteGroup", func(ctx context.Context) error {
		id, err := c.resolveGroup(ctx, groupID)
		if err != nil {
			return err
		}
		return c.client.DeleteGroup(ctx, id)
	})
	return nil
}
