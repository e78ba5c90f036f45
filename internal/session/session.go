// Package session manages the lifecycle of the local user's participation
// in a retro session: hosting, joining by code, reconnecting as host,
// renaming and leaving.
//
// Every entry point ends the same way: the store is initialized with the
// session context and the session key is derived from the canonical code,
// before any snapshot for the session is applied.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/theonlysinjin/team-retro/internal/backend"
	"github.com/theonlysinjin/team-retro/internal/model"
	"github.com/theonlysinjin/team-retro/internal/presence"
	"github.com/theonlysinjin/team-retro/internal/state"
	"github.com/theonlysinjin/team-retro/internal/syncer"
)

var (
	ErrEmptyName     = errors.New("session: name is required")
	ErrInvalidCode   = errors.New("session: invalid session code")
	ErrNotFound      = errors.New("session: no active session with that code")
	ErrInvalidToken  = errors.New("session: host token does not match")
	ErrNotInSession  = errors.New("session: not in a session")
	ErrAlreadyActive = errors.New("session: already in a session")
)

// NameStore persists the display name between runs.
type NameStore interface {
	UserName(ctx context.Context) (string, error)
	SetUserName(ctx context.Context, name string) error
}

// Manager drives the session lifecycle for one local user.
type Manager struct {
	client backend.Client
	store  *state.Store
	sync   *syncer.Synchronizer
	names  NameStore
	logger *slog.Logger

	hostToken string
}

// Option configures a Manager.
type Option func(*Manager)

// WithNames persists display names through n.
func WithNames(n NameStore) Option {
	return func(m *Manager) { m.names = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager.
func NewManager(client backend.Client, store *state.Store, sync *syncer.Synchronizer, opts ...Option) *Manager {
	m := &Manager{client: client, store: store, sync: sync, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SavedName returns the persisted display name, or "".
func (m *Manager) SavedName(ctx context.Context) string {
	if m.names == nil {
		return ""
	}
	name, err := m.names.UserName(ctx)
	if err != nil {
		m.logger.Warn("reading saved name failed", "error", err)
		return ""
	}
	return name
}

// Host creates a new session with the local user as host.
func (m *Manager) Host(ctx context.Context, name string) (backend.SessionTicket, error) {
	name, err := m.prepare(name)
	if err != nil {
		return backend.SessionTicket{}, err
	}
	ticket, err := m.client.CreateSession(ctx, name)
	if err != nil {
		return backend.SessionTicket{}, fmt.Errorf("host: %w", err)
	}

	m.hostToken = ticket.HostToken
	m.enter(ctx, state.SessionContext{SessionID: ticket.SessionID, Code: ticket.Code, UserName: name, IsHost: true})
	m.logger.Info("session hosted", "session", ticket.SessionID, "code", ticket.Code)
	return ticket, nil
}

// Join enters the session with the given code. Codes are case-insensitive.
// A user whose name matches the session's host name is treated as host.
func (m *Manager) Join(ctx context.Context, code, name string) (model.Session, error) {
	name, err := m.prepare(name)
	if err != nil {
		return model.Session{}, err
	}
	if !model.ValidCode(code) {
		return model.Session{}, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	code = model.CanonicalCode(code)

	sess, err := m.client.GetSessionByCode(ctx, code)
	if err != nil {
		return model.Session{}, fmt.Errorf("join: %w", err)
	}
	if sess == nil {
		return model.Session{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	if err := m.client.JoinSession(ctx, sess.ID, name); err != nil {
		return model.Session{}, fmt.Errorf("join: %w", err)
	}

	m.hostToken = ""
	m.enter(ctx, state.SessionContext{SessionID: sess.ID, Code: sess.Code, UserName: name, IsHost: sess.HostName == name})
	m.logger.Info("session joined", "session", sess.ID, "user", name)
	return *sess, nil
}

// Reconnect restores host identity with a host token, as carried by a
// host link.
func (m *Manager) Reconnect(ctx context.Context, code, token, name string) (model.Session, error) {
	name, err := m.prepare(name)
	if err != nil {
		return model.Session{}, err
	}
	sess, err := m.client.GetSessionByHostToken(ctx, token)
	if err != nil {
		return model.Session{}, fmt.Errorf("reconnect: %w", err)
	}
	if sess == nil || (code != "" && sess.Code != model.CanonicalCode(code)) {
		return model.Session{}, ErrInvalidToken
	}
	if err := m.client.JoinSession(ctx, sess.ID, name); err != nil {
		return model.Session{}, fmt.Errorf("reconnect: %w", err)
	}

	m.hostToken = token
	m.enter(ctx, state.SessionContext{SessionID: sess.ID, Code: sess.Code, UserName: name, IsHost: true})
	m.logger.Info("host reconnected", "session", sess.ID, "user", name)
	return *sess, nil
}

// Rename changes the local user's display name in the current session.
func (m *Manager) Rename(ctx context.Context, name string) error {
	cur, ok := m.store.Session()
	if !ok {
		return ErrNotInSession
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if name == cur.UserName {
		return nil
	}

	if err := m.client.JoinSession(ctx, cur.SessionID, name); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	if err := m.client.LeaveSession(ctx, cur.SessionID, cur.UserName); err != nil {
		m.logger.Warn("leaving under old name failed", "user", cur.UserName, "error", err)
	}

	if err := m.store.Rename(name); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	m.remember(ctx, name)
	m.logger.Info("renamed", "session", cur.SessionID, "from", cur.UserName, "to", name)
	return nil
}

// Leave exits the current session and clears local state and the key.
func (m *Manager) Leave(ctx context.Context) error {
	cur, ok := m.store.Session()
	if !ok {
		return ErrNotInSession
	}
	err := m.client.LeaveSession(ctx, cur.SessionID, cur.UserName)
	m.store.Reset()
	m.sync.SetSessionCode("")
	m.hostToken = ""
	if err != nil {
		return fmt.Errorf("leave: %w", err)
	}
	m.logger.Info("session left", "session", cur.SessionID)
	return nil
}

// Run keeps the current session live until ctx is done: it applies the
// backend feed to the store and sends presence heartbeats under the
// current user name, following renames. It returns nil on cancellation.
func (m *Manager) Run(ctx context.Context, feed backend.Feed, hb *presence.Heartbeat) error {
	cur, ok := m.store.Session()
	if !ok {
		return ErrNotInSession
	}
	name := func() string {
		if sc, ok := m.store.Session(); ok {
			return sc.UserName
		}
		return cur.UserName
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.sync.Run(gctx, feed, cur.SessionID) })
	g.Go(func() error { return hb.Run(gctx, cur.SessionID, name) })
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (m *Manager) prepare(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if _, ok := m.store.Session(); ok {
		return "", ErrAlreadyActive
	}
	return name, nil
}

// enter initializes local state for a session and persists the name.
func (m *Manager) enter(ctx context.Context, sc state.SessionContext) {
	m.store.Initialize(sc)
	m.sync.SetSessionCode(sc.Code)
	m.remember(ctx, sc.UserName)
}

func (m *Manager) remember(ctx context.Context, name string) {
	if m.names == nil {
		return
	}
	if err := m.names.SetUserName(ctx, name); err != nil {
		m.logger.Warn("saving name failed", "error", err)
	}
}

// HostLink returns the link that restores host identity, or "" when the
// local user did not host or reconnect with a token.
func (m *Manager) HostLink(base string) string {
	cur, ok := m.store.Session()
	if !ok || m.hostToken == "" {
		return ""
	}
	return SessionURL(base, cur.Code) + "?h=" + url.QueryEscape(m.hostToken)
}

// ShareLink returns the link participants join with.
func (m *Manager) ShareLink(base string) string {
	cur, ok := m.store.Session()
	if !ok {
		return ""
	}
	return SessionURL(base, cur.Code)
}

// SessionURL returns <base>/session/<code>.
func SessionURL(base, code string) string {
	return strings.TrimRight(base, "/") + "/session/" + url.PathEscape(model.CanonicalCode(code))
}

// ParseLink extracts the session code and optional host token from a
// session link.
func ParseLink(link string) (code, token string, err error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", "", fmt.Errorf("parse link: %w", err)
	}
	path := strings.TrimRight(u.Path, "/")
	i := strings.LastIndex(path, "/session/")
	if i < 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidCode, link)
	}
	code = path[i+len("/session/"):]
	if !model.ValidCode(code) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return model.CanonicalCode(code), u.Query().Get("h"), nil
}
