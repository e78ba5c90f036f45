package state

import "github.com/theonlysinjin/team-retro/internal/model"

// Presence returns the presence records as last delivered.
func (s *Store) Presence() []model.Presence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Presence(nil), s.presence...)
}
