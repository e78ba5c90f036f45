package inmem

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theonlysinjin/team-retro/internal/backend"
	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/ids"
	"github.com/theonlysinjin/team-retro/internal/model"
	"github.com/theonlysinjin/team-retro/internal/testutil"
)

func newTestBackend(t *testing.T) (*Backend, *testutil.FixedClock) {
	t.Helper()
	clk := testutil.NewFixedClock(1_000_000)
	b := New(WithClock(clk), WithIDs(ids.NewSequence("rec")))
	return b, clk
}

func hostSession(t *testing.T, b *Backend) backend.SessionTicket {
	t.Helper()
	ticket, err := b.CreateSession(context.Background(), "Alice")
	require.NoError(t, err)
	return ticket
}

func TestCreateSession(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	ticket := hostSession(t, b)
	assert.True(t, model.ValidCode(ticket.Code), "code %q", ticket.Code)
	assert.Len(t, ticket.HostToken, 32)
	assert.Equal(t, strings.ToLower(ticket.HostToken), ticket.HostToken)

	s, err := b.GetSessionByCode(ctx, strings.ToLower(ticket.Code))
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, ticket.SessionID, s.ID)
	assert.Equal(t, "Alice", s.HostName)
	assert.Equal(t, model.SessionActive, s.Status)
	assert.Empty(t, s.HostToken, "host token must not leak through code lookup")

	s, err = b.GetSessionByHostToken(ctx, ticket.HostToken)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, ticket.HostToken, s.HostToken)

	presence, err := b.GetPresence(ctx, ticket.SessionID)
	require.NoError(t, err)
	require.Len(t, presence, 1)
	assert.Equal(t, "Alice", presence[0].UserName)
	assert.Equal(t, codec.DisplayColor("Alice"), presence[0].Color)

	_, err = b.CreateSession(ctx, "   ")
	assert.True(t, errors.As(err, new(*backend.Error)))
}

func TestCreateSession_UniqueCodes(t *testing.T) {
	// The second session first draws the same code as the first and must
	// retry.
	var seed []byte
	seed = append(seed, 0, 1, 2, 3, 4, 5)
	seed = append(seed, make([]byte, 32)...)
	seed = append(seed, 0, 1, 2, 3, 4, 5)
	seed = append(seed, 7, 7, 7, 7, 7, 7)
	seed = append(seed, bytes.Repeat([]byte{1}, 32)...)
	b := New(WithRand(bytes.NewReader(seed)))

	a, err := b.CreateSession(context.Background(), "A")
	require.NoError(t, err)
	c, err := b.CreateSession(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", a.Code)
	assert.Equal(t, "HHHHHH", c.Code)
}

func TestGetSession_Missing(t *testing.T) {
	b, _ := newTestBackend(t)
	s, err := b.GetSessionByCode(context.Background(), "ZZZZZZ")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = b.GetSessionByHostToken(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestPresence_Lifecycle(t *testing.T) {
	b, clk := newTestBackend(t)
	ctx := context.Background()
	ticket := hostSession(t, b)

	require.NoError(t, b.JoinSession(ctx, ticket.SessionID, "Bob"))
	require.NoError(t, b.JoinSession(ctx, ticket.SessionID, "Bob"))

	presence, err := b.GetPresence(ctx, ticket.SessionID)
	require.NoError(t, err)
	assert.Len(t, presence, 2)

	clk.Advance((20 * time.Second).Milliseconds())
	require.NoError(t, b.UpdatePresence(ctx, ticket.SessionID, "Bob"))
	clk.Advance((15 * time.Second).Milliseconds())

	presence, err = b.GetPresence(ctx, ticket.SessionID)
	require.NoError(t, err)
	require.Len(t, presence, 1, "Alice went stale after 35s")
	assert.Equal(t, "Bob", presence[0].UserName)

	require.NoError(t, b.LeaveSession(ctx, ticket.SessionID, "Bob"))
	presence, err = b.GetPresence(ctx, ticket.SessionID)
	require.NoError(t, err)
	assert.Empty(t, presence)

	// Heartbeats after leaving do not resurrect the record.
	require.NoError(t, b.UpdatePresence(ctx, ticket.SessionID, "Bob"))
	presence, err = b.GetPresence(ctx, ticket.SessionID)
	require.NoError(t, err)
	assert.Empty(t, presence)

	var events []ConnectionEvent
	for _, c := range b.Connections(ticket.SessionID) {
		events = append(events, c.Event)
	}
	assert.Equal(t, []ConnectionEvent{EventJoined, EventJoined, EventLeft}, events)

	err = b.JoinSession(ctx, "nope", "Bob")
	assert.True(t, backend.IsNotFound(err))
}

func TestCards_CRUD(t *testing.T) {
	b, clk := newTestBackend(t)
	ctx := context.Background()
	ticket := hostSession(t, b)

	id, err := b.CreateCard(ctx, ticket.SessionID, "v1.xyz", model.Position{X: 1, Y: 2}, "Alice")
	require.NoError(t, err)

	cards, err := b.GetCards(ctx, ticket.SessionID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	created := cards[0]
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	clk.Advance(10)
	pos := model.Position{X: 5, Y: 6}
	require.NoError(t, b.UpdateCard(ctx, id, backend.CardPatch{Position: &pos}))

	cards, err = b.GetCards(ctx, ticket.SessionID)
	require.NoError(t, err)
	assert.Equal(t, pos, cards[0].Position)
	assert.Equal(t, "v1.xyz", cards[0].EncryptedData)
	assert.Greater(t, cards[0].UpdatedAt, created.UpdatedAt)

	err = b.UpdateCard(ctx, "missing", backend.CardPatch{Position: &pos})
	assert.True(t, backend.IsNotFound(err))

	require.NoError(t, b.AddVote(ctx, id, ticket.SessionID, "Alice"))
	require.NoError(t, b.DeleteCard(ctx, id))

	cards, err = b.GetCards(ctx, ticket.SessionID)
	require.NoError(t, err)
	assert.Empty(t, cards)
	votes, err := b.GetVotes(ctx, ticket.SessionID)
	require.NoError(t, err)
	assert.Empty(t, votes, "votes cascade with the card")

	assert.True(t, backend.IsNotFound(b.DeleteCard(ctx, id)))
}

func TestCards_UpdatedAtMonotonicUnderFrozenClock(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	ticket := hostSession(t, b)

	id, err := b.CreateCard(ctx, ticket.SessionID, "v1.a", model.Position{}, "Alice")
	require.NoError(t, err)

	var last int64
	for i := 0; i < 3; i++ {
		data := "v1.b"
		require.NoError(t, b.UpdateCard(ctx, id, backend.CardPatch{EncryptedData: &data}))
		cards, err := b.GetCards(ctx, ticket.SessionID)
		require.NoError(t, err)
		assert.Greater(t, cards[0].UpdatedAt, last)
		last = cards[0].UpdatedAt
	}
}

func TestVotes(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	ticket := hostSession(t, b)
	id, err := b.CreateCard(ctx, ticket.SessionID, "v1.a", model.Position{}, "Alice")
	require.NoError(t, err)

	require.NoError(t, b.AddVote(ctx, id, ticket.SessionID, "Alice"))
	err = b.AddVote(ctx, id, ticket.SessionID, "Alice")
	assert.True(t, backend.IsDuplicateVote(err))

	require.NoError(t, b.AddVote(ctx, id, ticket.SessionID, "Bob"))
	votes, err := b.GetVotes(ctx, ticket.SessionID)
	require.NoError(t, err)
	assert.Len(t, votes, 2)

	require.NoError(t, b.RemoveVote(ctx, id, "Alice"))
	err = b.RemoveVote(ctx, id, "Alice")
	assert.True(t, backend.IsVoteNotFound(err))

	err = b.AddVote(ctx, "missing", ticket.SessionID, "Alice")
	assert.True(t, backend.IsNotFound(err))
}

func TestFailNext(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	ticket := hostSession(t, b)

	boom := backend.Errorf(backend.CodeUnavailable, "createCard", "offline")
	b.FailNext("createCard", boom)

	_, err := b.CreateCard(ctx, ticket.SessionID, "v1.a", model.Position{}, "Alice")
	assert.ErrorIs(t, err, boom)

	_, err = b.CreateCard(ctx, ticket.SessionID, "v1.a", model.Position{}, "Alice")
	assert.NoError(t, err)
}

func TestCanceledContext(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.CreateSession(ctx, "Alice")
	assert.ErrorIs(t, err, context.Canceled)
}
