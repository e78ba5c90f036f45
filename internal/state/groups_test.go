package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theonlysinjin/team-retro/internal/model"
)

func TestStore_GroupMembership(t *testing.T) {
	s, _ := newTestStore(t)
	a := card("a", 1, "")
	a.GroupID = "g1"
	b := card("b", 1, "")
	_, err := s.SetCards([]model.Card{a, b, card("c", 1, "")})
	require.NoError(t, err)
	require.NoError(t, s.SetGroups([]model.Group{{ID: "g1", SessionID: "s1"}}))

	_, err = s.SetCardGroup("b", "g1")
	require.NoError(t, err)

	members := s.GroupMembers("g1")
	require.Len(t, members, 2)
	assert.Equal(t, "a", members[0].ID)
	assert.Equal(t, "b", members[1].ID)
	assert.Empty(t, s.GroupMembers(""))
}

func TestStore_DissolveGroup(t *testing.T) {
	s, _ := newTestStore(t)
	a := card("a", 1, "")
	a.GroupID = "g1"
	b := card("b", 1, "")
	b.GroupID = "g1"
	_, err := s.SetCards([]model.Card{a, b})
	require.NoError(t, err)
	require.NoError(t, s.SetGroups([]model.Group{{ID: "g1"}, {ID: "g2"}}))

	released, err := s.DissolveGroup("g1")
	require.NoError(t, err)
	assert.Len(t, released, 2)

	for _, c := range s.Cards() {
		assert.Empty(t, c.GroupID)
		assert.Greater(t, c.UpdatedAt, int64(1))
	}
	groups := s.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "g2", groups[0].ID)

	_, err = s.DissolveGroup("g1")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestStore_PutGroup(t *testing.T) {
	s, _ := newTestStore(t)
	name := "Wins"

	require.NoError(t, s.PutGroup(model.Group{ID: "g1"}))
	require.NoError(t, s.PutGroup(model.Group{ID: "g1", Name: &name}))

	g, ok := s.Group("g1")
	require.True(t, ok)
	require.NotNil(t, g.Name)
	assert.Equal(t, "Wins", *g.Name)
	assert.Len(t, s.Groups(), 1)
}

func TestStore_AddGroupOptimistic(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("a", 1, "a"), card("b", 1, "b"), card("c", 1, "c")})
	require.NoError(t, err)

	g, err := s.AddGroupOptimistic(model.Group{SessionID: "s1"}, "a", "b")
	require.NoError(t, err)
	assert.True(t, model.IsTemporaryID(g.ID))

	members := s.GroupMembers(g.ID)
	require.Len(t, members, 2)
	assert.Equal(t, 2, s.PendingCount())

	// A snapshot that does not know the group yet keeps it.
	require.NoError(t, s.SetGroups([]model.Group{{ID: "other"}}))
	_, ok := s.Group(g.ID)
	assert.True(t, ok)
	assert.Len(t, s.Groups(), 2)

	_, err = s.AddGroupOptimistic(model.Group{}, "a", "missing")
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.Len(t, s.Groups(), 2)
}

func TestStore_ConfirmGroup(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("a", 1, "a"), card("b", 1, "b")})
	require.NoError(t, err)
	g, err := s.AddGroupOptimistic(model.Group{SessionID: "s1"}, "a", "b")
	require.NoError(t, err)

	require.NoError(t, s.ConfirmGroup(g.ID, "g1"))

	_, ok := s.Group(g.ID)
	assert.False(t, ok)
	_, ok = s.Group("g1")
	assert.True(t, ok)
	assert.Len(t, s.GroupMembers("g1"), 2)
	assert.Empty(t, s.GroupMembers(g.ID))

	assert.ErrorIs(t, s.ConfirmGroup(g.ID, "g1"), ErrGroupNotFound)
}

func TestStore_ConfirmGroup_AfterSnapshot(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("a", 1, "a"), card("b", 1, "b")})
	require.NoError(t, err)
	g, err := s.AddGroupOptimistic(model.Group{SessionID: "s1"}, "a", "b")
	require.NoError(t, err)
	require.NoError(t, s.SetGroups([]model.Group{{ID: "g1", SessionID: "s1"}}))
	require.Len(t, s.Groups(), 2)

	require.NoError(t, s.ConfirmGroup(g.ID, "g1"))

	groups := s.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].ID)
	assert.Len(t, s.GroupMembers("g1"), 2)
}

func TestStore_DissolveTemporaryGroup(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("a", 1, "a"), card("b", 1, "b")})
	require.NoError(t, err)
	g, err := s.AddGroupOptimistic(model.Group{SessionID: "s1"}, "a", "b")
	require.NoError(t, err)

	released, err := s.DissolveGroup(g.ID)
	require.NoError(t, err)
	assert.Len(t, released, 2)
	assert.Empty(t, s.Groups())
	for _, c := range s.Cards() {
		assert.Empty(t, c.GroupID)
	}
}
