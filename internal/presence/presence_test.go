package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theonlysinjin/team-retro/internal/backend/inmem"
	"github.com/theonlysinjin/team-retro/internal/model"
	"github.com/theonlysinjin/team-retro/internal/testutil"
)

type countingUpdater struct {
	mu    sync.Mutex
	calls int
	err   error
	beat  chan struct{}
}

func (u *countingUpdater) UpdatePresence(ctx context.Context, sessionID, userName string) error {
	u.mu.Lock()
	u.calls++
	u.mu.Unlock()
	select {
	case u.beat <- struct{}{}:
	default:
	}
	return u.err
}

func TestHeartbeat_BeatsUntilCancelled(t *testing.T) {
	u := &countingUpdater{beat: make(chan struct{}, 8), err: errors.New("offline")}
	h := NewHeartbeat(u, WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, "s1", Fixed("Alice")) }()

	for i := 0; i < 3; i++ {
		select {
		case <-u.beat:
		case <-time.After(time.Second):
			t.Fatal("heartbeat stalled")
		}
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	u.mu.Lock()
	defer u.mu.Unlock()
	assert.GreaterOrEqual(t, u.calls, 3)
}

type namingUpdater struct {
	mu    sync.Mutex
	names []string
}

func (u *namingUpdater) UpdatePresence(ctx context.Context, sessionID, userName string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.names = append(u.names, userName)
	return nil
}

func (u *namingUpdater) last() (string, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.names) == 0 {
		return "", 0
	}
	return u.names[len(u.names)-1], len(u.names)
}

func TestHeartbeat_ReadsNameOnEveryBeat(t *testing.T) {
	u := &namingUpdater{}
	h := NewHeartbeat(u, WithInterval(time.Millisecond))

	var mu sync.Mutex
	name := "Alice"
	current := func() string {
		mu.Lock()
		defer mu.Unlock()
		return name
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx, "s1", current)

	require.Eventually(t, func() bool { got, _ := u.last(); return got == "Alice" }, time.Second, time.Millisecond)
	mu.Lock()
	name = "Alicia"
	mu.Unlock()
	require.Eventually(t, func() bool { got, _ := u.last(); return got == "Alicia" }, time.Second, time.Millisecond)
}

func TestHeartbeat_KeepsUserOnline(t *testing.T) {
	clk := testutil.NewFixedClock(1_000_000)
	b := inmem.New(inmem.WithClock(clk))
	ctx := context.Background()
	ticket, err := b.CreateSession(ctx, "Alice")
	require.NoError(t, err)

	clk.Advance(25_000)
	h := NewHeartbeat(b, WithInterval(time.Hour))
	h.beat(ctx, ticket.SessionID, "Alice")
	clk.Advance(25_000)

	got, err := b.GetPresence(ctx, ticket.SessionID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].UserName)
}

func TestOnline(t *testing.T) {
	records := []model.Presence{
		{UserName: "fresh", LastSeen: 100_000},
		{UserName: "edge", LastSeen: 70_000},
		{UserName: "stale", LastSeen: 50_000},
	}
	got := Online(records, 100_000, DefaultTimeout)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].UserName)
}

func TestRoster(t *testing.T) {
	records := []model.Presence{
		{UserName: "Carol"},
		{UserName: "Alice"},
		{UserName: "Alice"},
	}
	got := Roster(records, "Alice")
	assert.Equal(t, []Member{
		{Name: "Alice", Color: "#ef4444", Self: true},
		{Name: "Carol", Color: "#f59e0b"},
	}, got)
}
