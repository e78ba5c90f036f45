package state

import (
	"github.com/theonlysinjin/team-retro/internal/model"
)

// Groups returns the visible groups.
func (s *Store) Groups() []model.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Group(nil), s.groups...)
}

// Group returns a group by id.
func (s *Store) Group(id string) (model.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.ID == id {
			return g, true
		}
	}
	return model.Group{}, false
}

// PutGroup inserts or replaces a group optimistically.
func (s *Store) PutGroup(g model.Group) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	replaced := false
	for i := range s.groups {
		if s.groups[i].ID == g.ID {
			s.groups[i] = g
			replaced = true
			break
		}
	}
	if !replaced {
		s.groups = append(s.groups, g)
	}
	s.mu.Unlock()

	s.notify(ChangeGroups)
	return nil
}

// DissolveGroup removes a group optimistically and clears GroupID on its
// remaining members. It returns the members that were released.
func (s *Store) DissolveGroup(id string) ([]model.Card, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}

	found := false
	groups := s.groups[:0:0]
	for _, g := range s.groups {
		if g.ID == id {
			found = true
			continue
		}
		groups = append(groups, g)
	}

	members := s.membersLocked(id)
	if !found && len(members) == 0 {
		s.mu.Unlock()
		return nil, ErrGroupNotFound
	}
	s.groups = groups

	released := make([]model.Card, 0, len(members))
	for _, c := range members {
		c.GroupID = ""
		c.UpdatedAt = s.stamper.Stamp(c.UpdatedAt)
		s.pending[c.ID] = c
		released = append(released, c)
	}
	s.mu.Unlock()

	s.notify(ChangeGroups, ChangeCards)
	return released, nil
}

// AddGroupOptimistic inserts g under a temporary id and assigns every
// listed card to it in the pending layer. Nothing changes when a card is
// unknown.
func (s *Store) AddGroupOptimistic(g model.Group, cardIDs ...string) (model.Group, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return model.Group{}, ErrNotInitialized
	}
	for _, id := range cardIDs {
		if _, ok := s.confirmed[id]; !ok {
			s.mu.Unlock()
			return model.Group{}, ErrCardNotFound
		}
	}

	g.ID = model.TempIDPrefix + s.ids.Generate()
	s.groups = append(s.groups, g)
	for _, id := range cardIDs {
		c := s.visibleLocked(id)
		c.GroupID = g.ID
		c.UpdatedAt = s.stamper.Stamp(c.UpdatedAt)
		s.pending[id] = c
	}
	s.mu.Unlock()

	s.notify(ChangeGroups, ChangeCards)
	return g, nil
}

// ConfirmGroup replaces the temporary group tempID with its authoritative
// id, on the group itself and on every card still pointing at it. When a
// snapshot already delivered the authoritative group, the temporary one is
// dropped. Members keep their UpdatedAt: the id swap is not a new edit.
func (s *Store) ConfirmGroup(tempID, id string) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}

	idx, known := -1, false
	for i, g := range s.groups {
		switch g.ID {
		case tempID:
			idx = i
		case id:
			known = true
		}
	}
	members := s.membersLocked(tempID)
	if idx < 0 && len(members) == 0 {
		s.mu.Unlock()
		return ErrGroupNotFound
	}

	if idx >= 0 {
		if known {
			s.groups = append(s.groups[:idx:idx], s.groups[idx+1:]...)
		} else {
			s.groups[idx].ID = id
		}
	}
	for _, c := range members {
		c.GroupID = id
		s.pending[c.ID] = c
	}
	s.mu.Unlock()

	s.notify(ChangeGroups, ChangeCards)
	return nil
}
