package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theonlysinjin/team-retro/internal/clock"
	"github.com/theonlysinjin/team-retro/internal/ids"
	"github.com/theonlysinjin/team-retro/internal/model"
	"github.com/theonlysinjin/team-retro/internal/testutil"
)

func newTestStore(t *testing.T) (*Store, *testutil.FixedClock) {
	t.Helper()
	clk := testutil.NewFixedClock(1000)
	s := New(WithStamper(clock.NewStamper(clk)), WithIDs(ids.NewSequence("v")))
	s.Initialize(SessionContext{SessionID: "s1", Code: "abc234", UserName: "Alice", IsHost: true})
	return s, clk
}

func card(id string, updatedAt int64, content string) model.Card {
	return model.Card{
		ID:        id,
		SessionID: "s1",
		Content:   content,
		Color:     model.DefaultCardColor.Value,
		Position:  model.Position{X: 100, Y: 100},
		UpdatedAt: updatedAt,
	}
}

func TestStore_NotInitialized(t *testing.T) {
	s := New()

	_, err := s.SetCards(nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, s.SetVotes(nil), ErrNotInitialized)
	assert.ErrorIs(t, s.SetGroups(nil), ErrNotInitialized)
	assert.ErrorIs(t, s.SetPresence(nil), ErrNotInitialized)
	_, err = s.UpdateCardPosition("c1", model.Position{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, _, err = s.AddVoteOptimistic("c1", "Alice")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.RemoveVoteOptimistic("c1", "Alice")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, s.Rename("Bob"), ErrNotInitialized)

	_, ok := s.Session()
	assert.False(t, ok)
	assert.Empty(t, s.Cards())
}

func TestStore_InitializeCanonicalizesCode(t *testing.T) {
	s, _ := newTestStore(t)
	sess, ok := s.Session()
	require.True(t, ok)
	assert.Equal(t, "ABC234", sess.Code)
	assert.True(t, sess.IsHost)
}

func TestStore_Reset(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("c1", 10, "a")})
	require.NoError(t, err)
	s.SetCanvasOffset(model.Position{X: 5, Y: 6})

	s.Reset()

	snap := s.Snapshot()
	assert.Nil(t, snap.Session)
	assert.Empty(t, snap.Cards)
	assert.Equal(t, model.Position{}, snap.CanvasOffset)
	_, err = s.SetCards(nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestStore_RenameKeepsBoard(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("c1", 10, "a")})
	require.NoError(t, err)
	_, err = s.UpdateCardPosition("c1", model.Position{X: 300, Y: 300})
	require.NoError(t, err)
	s.SetCanvasOffset(model.Position{X: 40, Y: 40})

	var kinds []ChangeKind
	s.Subscribe(func(k ChangeKind) { kinds = append(kinds, k) })
	require.NoError(t, s.Rename("Alicia"))

	sess, ok := s.Session()
	require.True(t, ok)
	assert.Equal(t, SessionContext{SessionID: "s1", Code: "ABC234", UserName: "Alicia", IsHost: true}, sess)
	require.Len(t, s.Cards(), 1)
	assert.Equal(t, model.Position{X: 300, Y: 300}, s.Cards()[0].Position)
	assert.Equal(t, 1, s.PendingCount())
	assert.Equal(t, model.Position{X: 40, Y: 40}, s.CanvasOffset())
	assert.Equal(t, []ChangeKind{ChangeSession}, kinds)
}

func TestStore_InitializeKeepsCanvasOffset(t *testing.T) {
	s := New()
	s.SetCanvasOffset(model.Position{X: -240, Y: -290})

	s.Initialize(SessionContext{SessionID: "s1", Code: "ABC234", UserName: "Alice"})
	assert.Equal(t, model.Position{X: -240, Y: -290}, s.CanvasOffset())

	s.Reset()
	assert.Equal(t, model.Position{}, s.CanvasOffset())
}

func TestStore_UpdateCardPosition(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("c1", 500, "a")})
	require.NoError(t, err)

	c, err := s.UpdateCardPosition("c1", model.Position{X: 150, Y: 80})
	require.NoError(t, err)
	assert.Equal(t, model.Position{X: 150, Y: 80}, c.Position)
	assert.Greater(t, c.UpdatedAt, int64(500))

	got, ok := s.Card("c1")
	require.True(t, ok)
	assert.Equal(t, c, got)
	assert.Equal(t, 1, s.PendingCount())

	conf, ok := s.Confirmed("c1")
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 100, Y: 100}, conf.Position)

	_, err = s.UpdateCardPosition("missing", model.Position{})
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestStore_SetCards_LastWriteWins(t *testing.T) {
	tests := []struct {
		name        string
		incomingAt  int64
		wantContent string
		wantKept    int
	}{
		{"stale snapshot keeps local", 400, "local", 1},
		{"equal timestamp adopts incoming", 1000, "remote", 0},
		{"newer snapshot adopts incoming", 2000, "remote", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			_, err := s.SetCards([]model.Card{card("c1", 300, "orig")})
			require.NoError(t, err)

			// Clock reads 1000, so the optimistic edit stamps 1000.
			local, err := s.UpdateCardPayload("c1", model.CardPayload{Content: "local", Color: "#fff"})
			require.NoError(t, err)
			require.Equal(t, int64(1000), local.UpdatedAt)

			stats, err := s.SetCards([]model.Card{card("c1", tt.incomingAt, "remote")})
			require.NoError(t, err)

			got, ok := s.Card("c1")
			require.True(t, ok)
			assert.Equal(t, tt.wantContent, got.Content)
			assert.Equal(t, tt.wantKept, stats.KeptLocal)
			assert.Equal(t, 1, stats.Received)
		})
	}
}

func TestStore_SetCards_StaleAfterNewerConfirmed(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("c1", 500, "new")})
	require.NoError(t, err)

	stats, err := s.SetCards([]model.Card{card("c1", 400, "old")})
	require.NoError(t, err)

	got, _ := s.Card("c1")
	assert.Equal(t, "new", got.Content)
	assert.Equal(t, 1, stats.KeptLocal)
}

func TestStore_SetCards_DropsRemovedCards(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("c1", 1, "a"), card("c2", 1, "b")})
	require.NoError(t, err)
	_, err = s.UpdateCardPosition("c2", model.Position{X: 1, Y: 1})
	require.NoError(t, err)

	stats, err := s.SetCards([]model.Card{card("c1", 1, "a")})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Removed)
	assert.Len(t, s.Cards(), 1)
	assert.Zero(t, s.PendingCount())
	_, ok := s.Card("c2")
	assert.False(t, ok)
}

func TestStore_SetCards_PreservesOrder(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("b", 1, ""), card("a", 1, ""), card("c", 1, ""), card("a", 2, "dup")})
	require.NoError(t, err)

	var got []string
	for _, c := range s.Cards() {
		got = append(got, c.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestStore_RemoveCard_CascadesVotes(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetCards([]model.Card{card("c1", 1, ""), card("c2", 1, "")})
	require.NoError(t, err)
	require.NoError(t, s.SetVotes([]model.Vote{
		{ID: "v1", CardID: "c1", UserName: "Alice"},
		{ID: "v2", CardID: "c2", UserName: "Alice"},
	}))

	require.NoError(t, s.RemoveCard("c1"))

	assert.Len(t, s.Cards(), 1)
	votes := s.Votes()
	require.Len(t, votes, 1)
	assert.Equal(t, "c2", votes[0].CardID)
	assert.ErrorIs(t, s.RemoveCard("c1"), ErrCardNotFound)
}

func TestStore_Observers(t *testing.T) {
	s, _ := newTestStore(t)

	var got []ChangeKind
	unsubscribe := s.Subscribe(func(k ChangeKind) { got = append(got, k) })

	_, err := s.SetCards(nil)
	require.NoError(t, err)
	require.NoError(t, s.SetVotes(nil))
	s.PanBy(10, 0)

	unsubscribe()
	require.NoError(t, s.SetGroups(nil))

	assert.Equal(t, []ChangeKind{ChangeCards, ChangeVotes, ChangeCanvas}, got)
	assert.Equal(t, "cards", ChangeCards.String())
}

func TestStore_CanvasOffset(t *testing.T) {
	s := New()
	s.SetCanvasOffset(model.Position{X: -100, Y: 50})
	assert.Equal(t, model.Position{X: -90, Y: 45}, s.PanBy(10, -5))
	assert.Equal(t, model.Position{X: -90, Y: 45}, s.CanvasOffset())
}
