package inmem

import (
	"context"

	"github.com/theonlysinjin/team-retro/internal/backend"
	"github.com/theonlysinjin/team-retro/internal/model"
)

// GetCards returns the session's cards in creation order.
func (b *Backend) GetCards(ctx context.Context, sessionID string) ([]model.CardRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, "getCards"); err != nil {
		return nil, err
	}
	return b.cardsLocked(sessionID), nil
}

func (b *Backend) cardsLocked(sessionID string) []model.CardRecord {
	out := []model.CardRecord{}
	for _, c := range b.cards {
		if c.SessionID == sessionID {
			out = append(out, *c)
		}
	}
	return out
}

func (b *Backend) cardLocked(id string) *model.CardRecord {
	for _, c := range b.cards {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// CreateCard stores a new card and returns its id.
func (b *Backend) CreateCard(ctx context.Context, sessionID, encryptedData string, pos model.Position, authorName string) (string, error) {
	const op = "createCard"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return "", err
	}
	if b.sessionLocked(sessionID) == nil {
		return "", backend.Errorf(backend.CodeNotFound, op, "session %q not found", sessionID)
	}
	if encryptedData == "" {
		return "", backend.Errorf(backend.CodeInvalidArgument, op, "encrypted data is required")
	}

	now := b.stamper.Stamp(0)
	c := &model.CardRecord{
		ID:            b.ids.Generate(),
		SessionID:     sessionID,
		EncryptedData: encryptedData,
		Position:      pos,
		AuthorName:    authorName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	b.cards = append(b.cards, c)
	b.pushLocked(sessionID, backend.UpdateCards)
	return c.ID, nil
}

// UpdateCard applies a partial update and bumps updatedAt.
func (b *Backend) UpdateCard(ctx context.Context, cardID string, patch backend.CardPatch) error {
	const op = "updateCard"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return err
	}

	c := b.cardLocked(cardID)
	if c == nil {
		return backend.Errorf(backend.CodeNotFound, op, "card %q not found", cardID)
	}
	if patch.GroupID != nil && *patch.GroupID != "" && b.groupLocked(*patch.GroupID) == nil {
		return backend.Errorf(backend.CodeNotFound, op, "group %q not found", *patch.GroupID)
	}

	if patch.EncryptedData != nil {
		c.EncryptedData = *patch.EncryptedData
	}
	if patch.Position != nil {
		c.Position = *patch.Position
	}
	if patch.GroupID != nil {
		c.GroupID = *patch.GroupID
	}
	b.touchCardLocked(c)
	b.pushLocked(c.SessionID, backend.UpdateCards)
	return nil
}

// touchCardLocked bumps a card's updatedAt. Every card write goes through
// here, including group membership changes.
func (b *Backend) touchCardLocked(c *model.CardRecord) {
	c.UpdatedAt = b.stamper.Stamp(c.UpdatedAt)
}

// DeleteCard removes a card and its votes.
func (b *Backend) DeleteCard(ctx context.Context, cardID string) error {
	const op = "deleteCard"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return err
	}

	c := b.cardLocked(cardID)
	if c == nil {
		return backend.Errorf(backend.CodeNotFound, op, "card %q not found", cardID)
	}

	votes := b.votes[:0:0]
	for _, v := range b.votes {
		if v.CardID != cardID {
			votes = append(votes, v)
		}
	}
	b.votes = votes

	cards := b.cards[:0:0]
	for _, other := range b.cards {
		if other.ID != cardID {
			cards = append(cards, other)
		}
	}
	b.cards = cards

	b.pushLocked(c.SessionID, backend.UpdateCards, backend.UpdateVotes)
	return nil
}

// GetVotes returns the session's votes.
func (b *Backend) GetVotes(ctx context.Context, sessionID string) ([]model.Vote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, "getVotes"); err != nil {
		return nil, err
	}
	return b.votesLocked(sessionID), nil
}

func (b *Backend) votesLocked(sessionID string) []model.Vote {
	out := []model.Vote{}
	for _, v := range b.votes {
		if v.SessionID == sessionID {
			out = append(out, v)
		}
	}
	return out
}

// AddVote records a vote. It fails with CodeDuplicateVote if the user
// already voted on the card.
func (b *Backend) AddVote(ctx context.Context, cardID, sessionID, userName string) error {
	const op = "addVote"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return err
	}

	for _, v := range b.votes {
		if v.CardID == cardID && v.UserName == userName {
			return backend.Errorf(backend.CodeDuplicateVote, op, "user %q has already voted on card %q", userName, cardID)
		}
	}
	if b.cardLocked(cardID) == nil {
		return backend.Errorf(backend.CodeNotFound, op, "card %q not found", cardID)
	}

	b.votes = append(b.votes, model.Vote{
		ID:        b.ids.Generate(),
		CardID:    cardID,
		SessionID: sessionID,
		UserName:  userName,
		CreatedAt: b.stamper.Now(),
	})
	b.pushLocked(sessionID, backend.UpdateVotes)
	return nil
}

// RemoveVote deletes a vote. It fails with CodeVoteNotFound if there is
// none.
func (b *Backend) RemoveVote(ctx context.Context, cardID, userName string) error {
	const op = "removeVote"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return err
	}

	for i, v := range b.votes {
		if v.CardID == cardID && v.UserName == userName {
			b.votes = append(b.votes[:i:i], b.votes[i+1:]...)
			b.pushLocked(v.SessionID, backend.UpdateVotes)
			return nil
		}
	}
	return backend.Errorf(backend.CodeVoteNotFound, op, "no vote by %q on card %q", userName, cardID)
}
