package state

import (
	"github.com/theonlysinjin/team-retro/internal/model"
)

// Votes returns the visible votes.
func (s *Store) Votes() []model.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Vote(nil), s.votes...)
}

// VoteCount returns the number of votes on a card.
func (s *Store) VoteCount(cardID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, v := range s.votes {
		if v.CardID == cardID {
			n++
		}
	}
	return n
}

// HasVote reports whether user has a visible vote on card.
func (s *Store) HasVote(cardID, userName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voteIndexLocked(cardID, userName) >= 0
}

func (s *Store) voteIndexLocked(cardID, userName string) int {
	for i, v := range s.votes {
		if v.CardID == cardID && v.UserName == userName {
			return i
		}
	}
	return -1
}

// AddVoteOptimistic adds a temporary vote for (card, user). It is a no-op
// returning false when a vote for the pair is already visible.
func (s *Store) AddVoteOptimistic(cardID, userName string) (model.Vote, bool, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return model.Vote{}, false, ErrNotInitialized
	}
	if i := s.voteIndexLocked(cardID, userName); i >= 0 {
		v := s.votes[i]
		s.mu.Unlock()
		return v, false, nil
	}

	v := model.Vote{
		ID:        model.TempIDPrefix + s.ids.Generate(),
		CardID:    cardID,
		SessionID: s.session.SessionID,
		UserName:  userName,
		CreatedAt: s.stamper.Now(),
	}
	s.votes = append(s.votes, v)
	s.mu.Unlock()

	s.notify(ChangeVotes)
	return v, true, nil
}

// RemoveVoteOptimistic removes the visible vote for (card, user), whether
// temporary or authoritative. It returns false when there was none.
func (s *Store) RemoveVoteOptimistic(cardID, userName string) (bool, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return false, ErrNotInitialized
	}
	i := s.voteIndexLocked(cardID, userName)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.votes = append(s.votes[:i:i], s.votes[i+1:]...)
	s.mu.Unlock()

	s.notify(ChangeVotes)
	return true, nil
}

// Voters returns the names of the users with a visible vote on card, in
// vote order.
func (s *Store) Voters(cardID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, v := range s.votes {
		if v.CardID == cardID {
			out = append(out, v.UserName)
		}
	}
	return out
}
