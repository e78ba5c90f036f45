package inmem

import (
	"context"

	"github.com/theonlysinjin/team-retro/internal/backend"
	"github.com/theonlysinjin/team-retro/internal/model"
)

// GetGroups returns the session's groups.
func (b *Backend) GetGroups(ctx context.Context, sessionID string) ([]model.GroupRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, "getGroups"); err != nil {
		return nil, err
	}
	return b.groupsLocked(sessionID), nil
}

func (b *Backend) groupsLocked(sessionID string) []model.GroupRecord {
	out := []model.GroupRecord{}
	for _, g := range b.groups {
		if g.SessionID == sessionID {
			out = append(out, *g)
		}
	}
	return out
}

func (b *Backend) groupLocked(id string) *model.GroupRecord {
	for _, g := range b.groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

func (b *Backend) deleteGroupLocked(id string) {
	kept := b.groups[:0:0]
	for _, g := range b.groups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	b.groups = kept
}

func (b *Backend) membersLocked(groupID string) []*model.CardRecord {
	var out []*model.CardRecord
	for _, c := range b.cards {
		if c.GroupID == groupID {
			out = append(out, c)
		}
	}
	return out
}

// CreateGroup stores a group and assigns every listed card to it. A listed
// card leaving another group applies the dissolution rule to that group.
func (b *Backend) CreateGroup(ctx context.Context, sessionID, encryptedData string, pos model.Position, cardIDs []string) (string, error) {
	const op = "createGroup"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return "", err
	}
	if b.sessionLocked(sessionID) == nil {
		return "", backend.Errorf(backend.CodeNotFound, op, "session %q not found", sessionID)
	}

	cards := make([]*model.CardRecord, 0, len(cardIDs))
	for _, id := range cardIDs {
		c := b.cardLocked(id)
		if c == nil {
			return "", backend.Errorf(backend.CodeNotFound, op, "card %q not found", id)
		}
		cards = append(cards, c)
	}

	g := &model.GroupRecord{
		ID:            b.ids.Generate(),
		SessionID:     sessionID,
		EncryptedData: encryptedData,
		Position:      pos,
	}
	for _, c := range cards {
		b.detachLocked(c)
	}
	b.groups = append(b.groups, g)
	for _, c := range cards {
		c.GroupID = g.ID
		b.touchCardLocked(c)
	}

	b.pushLocked(sessionID, backend.UpdateGroups, backend.UpdateCards)
	return g.ID, nil
}

// AddCardToGroup assigns a card to an existing group, dissolving the card's
// previous group when fewer than two members remain in it.
func (b *Backend) AddCardToGroup(ctx context.Context, cardID, groupID string) error {
	const op = "addCardToGroup"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return err
	}

	c := b.cardLocked(cardID)
	if c == nil {
		return backend.Errorf(backend.CodeNotFound, op, "card %q not found", cardID)
	}
	if b.groupLocked(groupID) == nil {
		return backend.Errorf(backend.CodeNotFound, op, "group %q not found", groupID)
	}

	changed := []backend.UpdateKind{backend.UpdateCards}
	if c.GroupID != groupID && b.detachLocked(c) {
		changed = append(changed, backend.UpdateGroups)
	}
	c.GroupID = groupID
	b.touchCardLocked(c)
	b.pushLocked(c.SessionID, changed...)
	return nil
}

// RemoveCardFromGroup clears a card's group. When fewer than two members
// remain, the group is dissolved: the remaining member is released and the
// group deleted. Removing an ungrouped or unknown card is a no-op.
func (b *Backend) RemoveCardFromGroup(ctx context.Context, cardID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, "removeCardFromGroup"); err != nil {
		return err
	}

	c := b.cardLocked(cardID)
	if c == nil || c.GroupID == "" {
		return nil
	}

	changed := []backend.UpdateKind{backend.UpdateCards}
	if b.detachLocked(c) {
		changed = append(changed, backend.UpdateGroups)
	}
	b.pushLocked(c.SessionID, changed...)
	return nil
}

// detachLocked clears c's group. When fewer than two members remain, the
// group is dissolved: the remaining member is released and the group
// deleted. It reports whether a group was deleted.
func (b *Backend) detachLocked(c *model.CardRecord) bool {
	groupID := c.GroupID
	if groupID == "" {
		return false
	}
	c.GroupID = ""
	b.touchCardLocked(c)

	remaining := b.membersLocked(groupID)
	if len(remaining) >= 2 {
		return false
	}
	for _, r := range remaining {
		r.GroupID = ""
		b.touchCardLocked(r)
	}
	b.deleteGroupLocked(groupID)
	return true
}

// UpdateGroupTitle replaces a group's encrypted payload.
func (b *Backend) UpdateGroupTitle(ctx context.Context, groupID, encryptedData string) error {
	const op = "updateGroupTitle"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return err
	}

	g := b.groupLocked(groupID)
	if g == nil {
		return backend.Errorf(backend.CodeNotFound, op, "group %q not found", groupID)
	}
	g.EncryptedData = encryptedData
	b.pushLocked(g.SessionID, backend.UpdateGroups)
	return nil
}

// DeleteGroup releases every member and deletes the group.
func (b *Backend) DeleteGroup(ctx context.Context, groupID string) error {
	const op = "deleteGroup"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return err
	}

	g := b.groupLocked(groupID)
	if g == nil {
		return backend.Errorf(backend.CodeNotFound, op, "group %q not found", groupID)
	}
	for _, c := range b.membersLocked(groupID) {
		c.GroupID = ""
		b.touchCardLocked(c)
	}
	b.deleteGroupLocked(groupID)
	b.pushLocked(g.SessionID, backend.UpdateGroups, backend.UpdateCards)
	return nil
}
