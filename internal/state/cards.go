package state

import (
	"github.com/theonlysinjin/team-retro/internal/model"
)

// MergeStats describes the outcome of SetCards.
type MergeStats struct {
	Received  int
	Adopted   int
	KeptLocal int
	Removed   int
}

// SetCards replaces the confirmed card collection with cards, applying
// last-write-wins per card: when the local copy (pending edit, else
// previous confirmed copy) has a strictly greater UpdatedAt than the
// incoming record, the local copy is kept. Cards absent from the incoming
// collection are dropped from both layers.
func (s *Store) SetCards(cards []model.Card) (MergeStats, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return MergeStats{}, ErrNotInitialized
	}

	stats := MergeStats{Received: len(cards)}
	order := make([]string, 0, len(cards))
	confirmed := make(map[string]model.Card, len(cards))
	pending := make(map[string]model.Card)

	for _, in := range cards {
		if _, dup := confirmed[in.ID]; dup {
			continue
		}
		order = append(order, in.ID)

		prev, hadPrev := s.confirmed[in.ID]
		local, hasLocal := s.pending[in.ID]
		if !hasLocal {
			local, hasLocal = prev, hadPrev
		}

		if hasLocal && local.UpdatedAt > in.UpdatedAt {
			stats.KeptLocal++
			if hadPrev && prev.UpdatedAt > in.UpdatedAt {
				confirmed[in.ID] = prev
			} else {
				confirmed[in.ID] = in
			}
			if p, ok := s.pending[in.ID]; ok {
				pending[in.ID] = p
			}
			continue
		}

		stats.Adopted++
		confirmed[in.ID] = in
	}

	for id := range s.confirmed {
		if _, ok := confirmed[id]; !ok {
			stats.Removed++
		}
	}

	s.order = order
	s.confirmed = confirmed
	s.pending = pending
	s.mu.Unlock()

	s.notify(ChangeCards)
	return stats, nil
}

// Cards returns the visible cards in snapshot order.
func (s *Store) Cards() []model.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cardsLocked()
}

func (s *Store) cardsLocked() []model.Card {
	out := make([]model.Card, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.visibleLocked(id))
	}
	return out
}

func (s *Store) visibleLocked(id string) model.Card {
	c := s.confirmed[id]
	if p, ok := s.pending[id]; ok && p.UpdatedAt > c.UpdatedAt {
		return p
	}
	return c
}

// Card returns the visible copy of a card.
func (s *Store) Card(id string) (model.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.confirmed[id]; !ok {
		return model.Card{}, false
	}
	return s.visibleLocked(id), true
}

// Confirmed returns the last authoritative copy of a card, ignoring any
// pending edit.
func (s *Store) Confirmed(id string) (model.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.confirmed[id]
	return c, ok
}

// GroupMembers returns the visible cards whose GroupID is groupID.
func (s *Store) GroupMembers(groupID string) []model.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.membersLocked(groupID)
}

func (s *Store) membersLocked(groupID string) []model.Card {
	if groupID == "" {
		return nil
	}
	var out []model.Card
	for _, id := range s.order {
		c := s.visibleLocked(id)
		if c.GroupID == groupID {
			out = append(out, c)
		}
	}
	return out
}

// patch applies fn to the visible copy of a card, bumps UpdatedAt and
// records the result in the pending layer.
func (s *Store) patch(id string, fn func(*model.Card)) (model.Card, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return model.Card{}, ErrNotInitialized
	}
	if _, ok := s.confirmed[id]; !ok {
		s.mu.Unlock()
		return model.Card{}, ErrCardNotFound
	}

	c := s.visibleLocked(id)
	fn(&c)
	c.UpdatedAt = s.stamper.Stamp(c.UpdatedAt)
	s.pending[id] = c
	s.mu.Unlock()

	s.notify(ChangeCards)
	return c, nil
}

// UpdateCardPosition moves a card optimistically.
func (s *Store) UpdateCardPosition(id string, pos model.Position) (model.Card, error) {
	return s.patch(id, func(c *model.Card) { c.Position = pos })
}

// UpdateCardPayload replaces a card's content, color and category
// optimistically.
func (s *Store) UpdateCardPayload(id string, p model.CardPayload) (model.Card, error) {
	return s.patch(id, func(c *model.Card) {
		c.Content = p.Content
		c.Color = p.Color
		c.Category = p.Category
	})
}

// SetCardGroup sets (or, with an empty groupID, clears) a card's group
// optimistically.
func (s *Store) SetCardGroup(id, groupID string) (model.Card, error) {
	return s.patch(id, func(c *model.Card) { c.GroupID = groupID })
}

// MoveCardToGroup sets position and group in a single optimistic write.
func (s *Store) MoveCardToGroup(id, groupID string, pos model.Position) (model.Card, error) {
	return s.patch(id, func(c *model.Card) {
		c.GroupID = groupID
		c.Position = pos
	})
}

// RemoveCard drops a card and its votes optimistically.
func (s *Store) RemoveCard(id string) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if _, ok := s.confirmed[id]; !ok {
		s.mu.Unlock()
		return ErrCardNotFound
	}

	delete(s.confirmed, id)
	delete(s.pending, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	votes := s.votes[:0:0]
	for _, v := range s.votes {
		if v.CardID != id {
			votes = append(votes, v)
		}
	}
	s.votes = votes
	s.mu.Unlock()

	s.notify(ChangeCards, ChangeVotes)
	return nil
}

// PendingCount returns the number of cards with a pending local edit.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}
