package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/theonlysinjin/team-retro/internal/backend"
	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/model"
)

// EditCard replaces a card's content. Blank or unchanged content is a
// no-op.
func (c *Controller) EditCard(cardID, content string) error {
	content = strings.TrimSpace(content)
	card, ok := c.store.Card(cardID)
	if !ok {
		return fmt.Errorf("edit card %s: %w", cardID, errCardGone)
	}
	if content == "" || content == card.Content {
		return nil
	}
	p := card.Payload()
	p.Content = content
	return c.writePayload("editCard", card, p)
}

// RecolorCard changes a card's color to a palette entry (by name or
// value).
func (c *Controller) RecolorCard(cardID, color string) error {
	cc, ok := model.LookupCardColor(color)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColor, color)
	}
	card, ok := c.store.Card(cardID)
	if !ok {
		return fmt.Errorf("recolor card %s: %w", cardID, errCardGone)
	}
	if card.Color == cc.Value {
		return nil
	}
	p := card.Payload()
	p.Color = cc.Value
	return c.writePayload("recolorCard", card, p)
}

// SetCategory moves a card to a retro lane, or out of every lane with nil.
func (c *Controller) SetCategory(cardID string, category *model.Category) error {
	card, ok := c.store.Card(cardID)
	if !ok {
		return fmt.Errorf("set category %s: %w", cardID, errCardGone)
	}
	p := card.Payload()
	p.Category = category
	return c.writePayload("setCategory", card, p)
}

// writePayload re-encrypts the whole payload, patches the store and
// confirms with updateCard.
func (c *Controller) writePayload(task string, card model.Card, p model.CardPayload) error {
	if _, err := c.session(); err != nil {
		return err
	}
	key, err := c.key()
	if err != nil {
		return err
	}
	data, err := codec.SealCard(key, p)
	if err != nil {
		return fmt.Errorf("%s: %w", task, err)
	}
	if _, err := c.store.UpdateCardPayload(card.ID, p); err != nil {
		return fmt.Errorf("%s: %w", task, err)
	}

	c.tasks.Go(task, func(ctx context.Context) error {
		return c.client.UpdateCard(ctx, card.ID, backend.CardPatch{EncryptedData: &data})
	})
	return nil
}

// DeleteCard removes a card and its votes. A grouped card leaves its group
// first, dissolving the group when a single member would remain.
func (c *Controller) DeleteCard(cardID string) error {
	if _, err := c.session(); err != nil {
		return err
	}
	card, ok := c.store.Card(cardID)
	if !ok {
		return fmt.Errorf("delete card %s: %w", cardID, errCardGone)
	}

	if card.GroupID != "" {
		if err := c.leaveGroupLocally(card); err != nil {
			return err
		}
	}
	if err := c.store.RemoveCard(cardID); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}

	grouped := card.GroupID != ""
	c.tasks.Go("deleteCard", func(ctx context.Context) error {
		if grouped {
			if err := c.client.RemoveCardFromGroup(ctx, cardID); err != nil {
				return err
			}
		}
		return c.client.DeleteCard(ctx, cardID)
	})
	return nil
}

// ToggleVote adds the user's vote on a card, or removes it when one is
// visible. Backend rejections of either direction are expected under rapid
// toggling and are left to the next snapshot.
func (c *Controller) ToggleVote(cardID string) (voted bool, err error) {
	sess, err := c.session()
	if err != nil {
		return false, err
	}

	if c.store.HasVote(cardID, sess.UserName) {
		if _, err := c.store.RemoveVoteOptimistic(cardID, sess.UserName); err != nil {
			return false, err
		}
		c.tasks.Go("removeVote", func(ctx context.Context) error {
			return c.client.RemoveVote(ctx, cardID, sess.UserName)
		})
		return false, nil
	}

	if _, _, err := c.store.AddVoteOptimistic(cardID, sess.UserName); err != nil {
		return false, err
	}
	c.tasks.Go("addVote", func(ctx context.Context) error {
		return c.client.AddVote(ctx, cardID, sess.SessionID, sess.UserName)
	})
	return true, nil
}
