// Package presence keeps the local user visible to other participants and
// derives the online roster from presence records.
package presence

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/model"
)

// Default intervals.
const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 30 * time.Second
)

// Updater refreshes a presence record.
type Updater interface {
	UpdatePresence(ctx context.Context, sessionID, userName string) error
}

// Heartbeat periodically refreshes the local user's presence record.
type Heartbeat struct {
	updater  Updater
	interval time.Duration
	logger   *slog.Logger
}

// Option configures a Heartbeat.
type Option func(*Heartbeat)

// WithInterval sets the heartbeat period.
func WithInterval(d time.Duration) Option {
	return func(h *Heartbeat) { h.interval = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Heartbeat) { h.logger = l }
}

// NewHeartbeat creates a heartbeat sending through u.
func NewHeartbeat(u Updater, opts ...Option) *Heartbeat {
	h := &Heartbeat{updater: u, interval: DefaultInterval, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the user name a beat is sent under.
type Name func() string

// Fixed returns a Name that always yields name.
func Fixed(name string) Name {
	return func() string { return name }
}

// Run beats once immediately and then every interval until ctx is done.
// userName is consulted on every beat, so a rename takes effect on the next
// one. Failed beats are logged and retried on the next tick.
func (h *Heartbeat) Run(ctx context.Context, sessionID string, userName Name) error {
	h.beat(ctx, sessionID, userName())

	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			h.beat(ctx, sessionID, userName())
		}
	}
}

func (h *Heartbeat) beat(ctx context.Context, sessionID, userName string) {
	if err := h.updater.UpdatePresence(ctx, sessionID, userName); err != nil && ctx.Err() == nil {
		h.logger.Warn("presence heartbeat failed", "session", sessionID, "user", userName, "error", err)
	}
}

// Online returns the records seen within timeout of now (milliseconds).
func Online(records []model.Presence, now int64, timeout time.Duration) []model.Presence {
	cutoff := now - timeout.Milliseconds()
	var out []model.Presence
	for _, p := range records {
		if p.LastSeen > cutoff {
			out = append(out, p)
		}
	}
	return out
}

// Member is a participant as shown in the roster.
type Member struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Self  bool   `json:"self"`
}

// Roster lists the distinct participants in records, sorted by name, with
// their display colors. self marks the local user.
func Roster(records []model.Presence, self string) []Member {
	seen := make(map[string]bool, len(records))
	out := make([]Member, 0, len(records))
	for _, p := range records {
		if seen[p.UserName] {
			continue
		}
		seen[p.UserName] = true
		out = append(out, Member{Name: p.UserName, Color: codec.DisplayColor(p.UserName), Self: p.UserName == self})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
