package state

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/theonlysinjin/team-retro/internal/clock"
	"github.com/theonlysinjin/team-retro/internal/ids"
	"github.com/theonlysinjin/team-retro/internal/model"
)

// SessionContext identifies the session and user a store is bound to.
type SessionContext struct {
	SessionID string
	Code      string
	UserName  string
	IsHost    bool
}

// ChangeKind identifies which part of the store changed.
type ChangeKind int

const (
	ChangeSession ChangeKind = iota + 1
	ChangeCards
	ChangeVotes
	ChangeGroups
	ChangePresence
	ChangeCanvas
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSession:
		return "session"
	case ChangeCards:
		return "cards"
	case ChangeVotes:
		return "votes"
	case ChangeGroups:
		return "groups"
	case ChangePresence:
		return "presence"
	case ChangeCanvas:
		return "canvas"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Observer is notified after a change has been applied.
type Observer func(ChangeKind)

// Store is the local state container. Use New to create one.
type Store struct {
	mu      sync.RWMutex
	stamper *clock.Stamper
	ids     ids.Generator
	logger  *slog.Logger

	session *SessionContext

	order     []string
	confirmed map[string]model.Card
	pending   map[string]model.Card

	votes    []model.Vote
	groups   []model.Group
	presence []model.Presence
	offset   model.Position

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// Option configures a Store.
type Option func(*Store)

// WithStamper sets the timestamp source for optimistic writes.
func WithStamper(s *clock.Stamper) Option {
	return func(st *Store) { st.stamper = s }
}

// WithIDs sets the generator for temporary vote identifiers.
func WithIDs(g ids.Generator) Option {
	return func(st *Store) { st.ids = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(st *Store) { st.logger = l }
}

// New creates an empty, uninitialized store.
func New(opts ...Option) *Store {
	s := &Store{
		stamper:   clock.NewStamper(clock.System{}),
		ids:       ids.UUIDv7Generator{},
		logger:    slog.Default(),
		confirmed: make(map[string]model.Card),
		pending:   make(map[string]model.Card),
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize binds the store to a session, discarding any previous session
// data. The canvas offset is kept.
func (s *Store) Initialize(ctx SessionContext) {
	s.mu.Lock()
	offset := s.offset
	s.clearLocked()
	s.offset = offset
	c := ctx
	c.Code = model.CanonicalCode(c.Code)
	s.session = &c
	s.mu.Unlock()

	s.logger.Debug("store initialized", "session", ctx.SessionID, "user", ctx.UserName, "host", ctx.IsHost)
	s.notify(ChangeSession)
}

// Rename replaces the user name of the bound session. Everything else,
// including pending edits, is left untouched.
func (s *Store) Rename(userName string) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	c := *s.session
	c.UserName = userName
	s.session = &c
	s.mu.Unlock()

	s.logger.Debug("store renamed", "session", c.SessionID, "user", userName)
	s.notify(ChangeSession)
	return nil
}

// Reset clears all state back to the initial empty values, canvas offset
// included.
func (s *Store) Reset() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.notify(ChangeSession)
}

func (s *Store) clearLocked() {
	s.session = nil
	s.order = nil
	s.confirmed = make(map[string]model.Card)
	s.pending = make(map[string]model.Card)
	s.votes = nil
	s.groups = nil
	s.presence = nil
	s.offset = model.Position{}
}

// Session returns the bound session, if any.
func (s *Store) Session() (SessionContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return SessionContext{}, false
	}
	return *s.session, true
}

// Subscribe registers fn and returns a function that unregisters it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) notify(kinds ...ChangeKind) {
	s.obsMu.Lock()
	keys := make([]int, 0, len(s.observers))
	for k := range s.observers {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fns := make([]Observer, 0, len(keys))
	for _, k := range keys {
		fns = append(fns, s.observers[k])
	}
	s.obsMu.Unlock()

	for _, kind := range kinds {
		for _, fn := range fns {
			fn(kind)
		}
	}
}

// SetVotes replaces the vote collection. Entries are de-duplicated by
// (card, user); an authoritative entry is preferred over a temporary one.
func (s *Store) SetVotes(votes []model.Vote) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.votes = dedupeVotes(votes)
	s.mu.Unlock()

	s.notify(ChangeVotes)
	return nil
}

func dedupeVotes(votes []model.Vote) []model.Vote {
	idx := make(map[model.VoteKey]int, len(votes))
	out := make([]model.Vote, 0, len(votes))
	for _, v := range votes {
		if i, ok := idx[v.Key()]; ok {
			if out[i].IsTemporary() && !v.IsTemporary() {
				out[i] = v
			}
			continue
		}
		idx[v.Key()] = len(out)
		out = append(out, v)
	}
	return out
}

// SetGroups replaces the group collection. Temporary groups still awaiting
// confirmation are kept.
func (s *Store) SetGroups(groups []model.Group) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	next := append([]model.Group(nil), groups...)
	for _, g := range s.groups {
		if model.IsTemporaryID(g.ID) {
			next = append(next, g)
		}
	}
	s.groups = next
	s.mu.Unlock()

	s.notify(ChangeGroups)
	return nil
}

// SetPresence replaces the presence collection.
func (s *Store) SetPresence(presence []model.Presence) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.presence = append([]model.Presence(nil), presence...)
	s.mu.Unlock()

	s.notify(ChangePresence)
	return nil
}

// CanvasOffset returns the current pan offset.
func (s *Store) CanvasOffset() model.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset
}

// SetCanvasOffset replaces the pan offset. The offset is UI-only state: it
// may be set before Initialize, survives Initialize and is cleared by Reset.
func (s *Store) SetCanvasOffset(p model.Position) {
	s.mu.Lock()
	s.offset = p
	s.mu.Unlock()
	s.notify(ChangeCanvas)
}

// PanBy adds (dx, dy) to the pan offset and returns the new offset.
func (s *Store) PanBy(dx, dy float64) model.Position {
	s.mu.Lock()
	s.offset = s.offset.Add(dx, dy)
	p := s.offset
	s.mu.Unlock()
	s.notify(ChangeCanvas)
	return p
}

// Snapshot is a consistent copy of the visible state.
type Snapshot struct {
	Session      *SessionContext
	Cards        []model.Card
	Votes        []model.Vote
	Groups       []model.Group
	Presence     []model.Presence
	CanvasOffset model.Position
	Pending      int
}

// Snapshot returns a copy of the visible state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Cards:        s.cardsLocked(),
		Votes:        append([]model.Vote(nil), s.votes...),
		Groups:       append([]model.Group(nil), s.groups...),
		Presence:     append([]model.Presence(nil), s.presence...),
		CanvasOffset: s.offset,
		Pending:      len(s.pending),
	}
	if s.session != nil {
		c := *s.session
		snap.Session = &c
	}
	return snap
}
