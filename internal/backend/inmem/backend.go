package inmem

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/theonlysinjin/team-retro/internal/backend"
	"github.com/theonlysinjin/team-retro/internal/clock"
	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/ids"
	"github.com/theonlysinjin/team-retro/internal/model"
)

// DefaultPresenceTimeout is the staleness window applied by GetPresence.
const DefaultPresenceTimeout = 30 * time.Second

// DefaultBufferSize is the capacity of each subscriber channel.
const DefaultBufferSize = 64

const maxCodeAttempts = 16

var errExhausted = errors.New("no unused value after retries")

// ConnectionEvent is the kind of a connection log entry.
type ConnectionEvent string

const (
	EventJoined ConnectionEvent = "joined"
	EventLeft   ConnectionEvent = "left"
)

// Connection is an entry of the per-session join/leave log.
type Connection struct {
	SessionID string
	UserName  string
	Event     ConnectionEvent
	Timestamp int64
}

// Backend is an in-memory backend.Client and backend.Feed.
type Backend struct {
	mu      sync.Mutex
	stamper *clock.Stamper
	ids     ids.Generator
	rand    io.Reader
	logger  *slog.Logger

	presenceTimeout time.Duration
	bufferSize      int

	sessions []*model.Session
	cards    []*model.CardRecord
	votes    []model.Vote
	groups   []*model.GroupRecord
	presence []*model.Presence

	connections []Connection

	subs    map[string]map[int]chan backend.Update
	nextSub int

	failures map[string][]error
}

var (
	_ backend.Client = (*Backend)(nil)
	_ backend.Feed   = (*Backend)(nil)
)

// Option configures a Backend.
type Option func(*Backend)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(b *Backend) { b.stamper = clock.NewStamper(c) }
}

// WithIDs sets the record id generator.
func WithIDs(g ids.Generator) Option {
	return func(b *Backend) { b.ids = g }
}

// WithRand sets the randomness source for session codes and host tokens.
func WithRand(r io.Reader) Option {
	return func(b *Backend) { b.rand = r }
}

// WithPresenceTimeout sets the staleness window of GetPresence.
func WithPresenceTimeout(d time.Duration) Option {
	return func(b *Backend) { b.presenceTimeout = d }
}

// WithBufferSize sets the subscriber channel capacity.
func WithBufferSize(n int) Option {
	return func(b *Backend) { b.bufferSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// New creates an empty backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		stamper:         clock.NewStamper(clock.System{}),
		ids:             ids.UUIDv7Generator{},
		rand:            rand.Reader,
		logger:          slog.Default(),
		presenceTimeout: DefaultPresenceTimeout,
		bufferSize:      DefaultBufferSize,
		subs:            make(map[string]map[int]chan backend.Update),
		failures:        make(map[string][]error),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FailNext makes the next call of op (e.g. "updateCard") return err
// without side effects. Calls queue up.
func (b *Backend) FailNext(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[op] = append(b.failures[op], err)
}

// injected pops a queued failure for op. Caller holds b.mu.
func (b *Backend) injected(op string) error {
	q := b.failures[op]
	if len(q) == 0 {
		return nil
	}
	b.failures[op] = q[1:]
	return q[0]
}

func (b *Backend) begin(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.injected(op)
}

// CreateSession creates an active session with a fresh code and host token.
func (b *Backend) CreateSession(ctx context.Context, hostName string) (backend.SessionTicket, error) {
	const op = "createSession"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return backend.SessionTicket{}, err
	}

	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return backend.SessionTicket{}, backend.Errorf(backend.CodeInvalidArgument, op, "host name is required")
	}

	code, err := b.uniqueCodeLocked()
	if err != nil {
		return backend.SessionTicket{}, backend.Errorf(backend.CodeUnavailable, op, "%v", err)
	}
	token, err := b.uniqueTokenLocked()
	if err != nil {
		return backend.SessionTicket{}, backend.Errorf(backend.CodeUnavailable, op, "%v", err)
	}

	s := &model.Session{
		ID:        b.ids.Generate(),
		Code:      code,
		HostName:  hostName,
		HostToken: token,
		CreatedAt: b.stamper.Now(),
		Status:    model.SessionActive,
	}
	b.sessions = append(b.sessions, s)
	b.addPresenceLocked(s.ID, hostName)
	b.logger.Debug("session created", "session", s.ID, "code", s.Code)

	return backend.SessionTicket{SessionID: s.ID, Code: s.Code, HostToken: s.HostToken}, nil
}

func (b *Backend) uniqueCodeLocked() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := newSessionCode(b.rand)
		if err != nil {
			return "", err
		}
		if b.sessionByCodeLocked(code) == nil {
			return code, nil
		}
	}
	return "", errExhausted
}

func (b *Backend) uniqueTokenLocked() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		token, err := newHostToken(b.rand)
		if err != nil {
			return "", err
		}
		taken := false
		for _, s := range b.sessions {
			if s.HostToken == token {
				taken = true
				break
			}
		}
		if !taken {
			return token, nil
		}
	}
	return "", errExhausted
}

func (b *Backend) sessionByCodeLocked(code string) *model.Session {
	for _, s := range b.sessions {
		if s.Code == code {
			return s
		}
	}
	return nil
}

func (b *Backend) sessionLocked(id string) *model.Session {
	for _, s := range b.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// GetSessionByCode looks a session up by code, case-insensitively.
// The host token is never included.
func (b *Backend) GetSessionByCode(ctx context.Context, code string) (*model.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, "getSessionByCode"); err != nil {
		return nil, err
	}

	s := b.sessionByCodeLocked(model.CanonicalCode(code))
	if s == nil {
		return nil, nil
	}
	out := *s
	out.HostToken = ""
	return &out, nil
}

// GetSessionByHostToken looks a session up by host token.
func (b *Backend) GetSessionByHostToken(ctx context.Context, token string) (*model.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, "getSessionByHostToken"); err != nil {
		return nil, err
	}

	if token == "" {
		return nil, nil
	}
	for _, s := range b.sessions {
		if s.HostToken == token {
			out := *s
			return &out, nil
		}
	}
	return nil, nil
}

// JoinSession records the user as present. Re-joining an existing
// participant only refreshes liveness.
func (b *Backend) JoinSession(ctx context.Context, sessionID, userName string) error {
	const op = "joinSession"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return err
	}
	if b.sessionLocked(sessionID) == nil {
		return backend.Errorf(backend.CodeNotFound, op, "session %q not found", sessionID)
	}
	if strings.TrimSpace(userName) == "" {
		return backend.Errorf(backend.CodeInvalidArgument, op, "user name is required")
	}

	if p := b.presenceRecordLocked(sessionID, userName); p != nil {
		p.LastSeen = b.stamper.Now()
	} else {
		b.addPresenceLocked(sessionID, userName)
	}
	b.pushLocked(sessionID, backend.UpdatePresence)
	return nil
}

func (b *Backend) addPresenceLocked(sessionID, userName string) {
	now := b.stamper.Now()
	b.presence = append(b.presence, &model.Presence{
		ID:        b.ids.Generate(),
		SessionID: sessionID,
		UserName:  userName,
		LastSeen:  now,
		Color:     codec.DisplayColor(userName),
	})
	b.connections = append(b.connections, Connection{
		SessionID: sessionID,
		UserName:  userName,
		Event:     EventJoined,
		Timestamp: now,
	})
}

func (b *Backend) presenceRecordLocked(sessionID, userName string) *model.Presence {
	for _, p := range b.presence {
		if p.SessionID == sessionID && p.UserName == userName {
			return p
		}
	}
	return nil
}

// UpdatePresence refreshes the user's liveness. Users without a presence
// record (never joined, or left) are ignored.
func (b *Backend) UpdatePresence(ctx context.Context, sessionID, userName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, "updatePresence"); err != nil {
		return err
	}

	if p := b.presenceRecordLocked(sessionID, userName); p != nil {
		p.LastSeen = b.stamper.Now()
		b.pushLocked(sessionID, backend.UpdatePresence)
	}
	return nil
}

// LeaveSession deletes the user's presence record.
func (b *Backend) LeaveSession(ctx context.Context, sessionID, userName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, "leaveSession"); err != nil {
		return err
	}

	kept := b.presence[:0]
	for _, p := range b.presence {
		if p.SessionID == sessionID && p.UserName == userName {
			continue
		}
		kept = append(kept, p)
	}
	b.presence = kept
	b.connections = append(b.connections, Connection{
		SessionID: sessionID,
		UserName:  userName,
		Event:     EventLeft,
		Timestamp: b.stamper.Now(),
	})
	b.pushLocked(sessionID, backend.UpdatePresence)
	return nil
}

// Connections returns the join/leave log of a session in order.
func (b *Backend) Connections(sessionID string) []Connection {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Connection
	for _, c := range b.connections {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	return out
}

// GetPresence returns the session's presence records seen within the
// staleness window.
func (b *Backend) GetPresence(ctx context.Context, sessionID string) ([]model.Presence, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, "getPresence"); err != nil {
		return nil, err
	}
	return b.presenceLocked(sessionID), nil
}

func (b *Backend) presenceLocked(sessionID string) []model.Presence {
	cutoff := b.stamper.Now() - b.presenceTimeout.Milliseconds()
	out := []model.Presence{}
	for _, p := range b.presence {
		if p.SessionID == sessionID && p.LastSeen > cutoff {
			out = append(out, *p)
		}
	}
	return out
}
