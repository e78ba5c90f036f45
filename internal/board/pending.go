package board

import (
	"context"
	"fmt"

	"github.com/theonlysinjin/team-retro/internal/model"
)

// groupTicket tracks a group created optimistically under a temporary id
// until the backend returns its real id.
type groupTicket struct {
	done chan struct{}
	id   string
	err  error
}

func (c *Controller) openTicket(tempID string) *groupTicket {
	t := &groupTicket{done: make(chan struct{})}
	c.mu.Lock()
	c.tickets[tempID] = t
	c.mu.Unlock()
	return t
}

// settle records the outcome of a group creation and moves the store off
// the temporary id. A failed creation has no authoritative copy to
// converge to, so the temporary group is dissolved locally.
func (c *Controller) settle(t *groupTicket, tempID, id string, err error) {
	t.id, t.err = id, err
	close(t.done)

	if err != nil {
		if _, derr := c.store.DissolveGroup(tempID); derr != nil {
			c.logger.Debug("temporary group not dissolved", "group", tempID, "error", derr)
		}
		return
	}
	if cerr := c.store.ConfirmGroup(tempID, id); cerr != nil {
		c.logger.Debug("group not confirmed", "group", tempID, "id", id, "error", cerr)
	}
}

// resolveGroup returns the backend id for groupID, waiting for the
// creation of a temporary group to be confirmed.
func (c *Controller) resolveGroup(ctx context.Context, groupID string) (string, error) {
	if !model.IsTemporaryID(groupID) {
		return groupID, nil
	}
	c.mu.Lock()
	t, ok := c.tickets[groupID]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("group %s: %w", groupID, errGroupGone)
	}
	select {
	case <-t.done:
		if t.err != nil {
			return "", fmt.Errorf("group %s not created: %w", groupID, t.err)
		}
		return t.id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// leaveRemotely takes cardID out of oldGroup on the backend, once oldGroup
// exists there.
func (c *Controller) leaveRemotely(ctx context.Context, cardID, oldGroup string) error {
	if oldGroup == "" {
		return nil
	}
	if _, err := c.resolveGroup(ctx, oldGroup); err != nil {
		return err
	}
	return c.client.RemoveCardFromGroup(ctx, cardID)
}
