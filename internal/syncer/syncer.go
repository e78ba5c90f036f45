package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/theonlysinjin/team-retro/internal/backend"
	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/model"
	"github.com/theonlysinjin/team-retro/internal/state"
)

// ErrNoClient is returned by Pull when no backend client was configured.
var ErrNoClient = errors.New("syncer: no backend client")

// Report describes the outcome of applying one card or group snapshot.
type Report struct {
	Received  int
	Applied   int
	Dropped   int
	KeptLocal int
	Removed   int
}

// Synchronizer applies backend snapshots to a store.
type Synchronizer struct {
	store   *state.Store
	keyring *codec.Keyring
	client  backend.Client
	logger  *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClient sets the client used by Pull.
func WithClient(c backend.Client) Option {
	return func(s *Synchronizer) { s.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// New creates a Synchronizer writing into store with keys from keyring.
func New(store *state.Store, keyring *codec.Keyring, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:   store,
		keyring: keyring,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSessionCode (re)derives the session key. It must be called whenever
// the active session code changes, before the next snapshot is applied.
func (s *Synchronizer) SetSessionCode(code string) {
	s.keyring.SetCode(code)
}

// ApplyCards decrypts a card snapshot and merges it into the store.
//
// Without a session key nothing is applied and codec.ErrKeyNotReady is
// returned; the store keeps its last-known cards.
func (s *Synchronizer) ApplyCards(records []model.CardRecord) (Report, error) {
	r := Report{Received: len(records)}
	key, err := s.keyring.Key()
	if err != nil {
		s.logger.Warn("card snapshot skipped", "records", len(records), "error", err)
		return r, err
	}

	cards := make([]model.Card, 0, len(records))
	for _, rec := range records {
		p, err := codec.OpenCard(key, rec.EncryptedData)
		if err != nil {
			r.Dropped++
			s.logger.Warn("card dropped", "card", rec.ID, "error", err)
			continue
		}
		cards = append(cards, rec.Decrypted(p))
	}

	stats, err := s.store.SetCards(cards)
	if err != nil {
		return r, fmt.Errorf("apply cards: %w", err)
	}
	r.Applied = len(cards)
	r.KeptLocal = stats.KeptLocal
	r.Removed = stats.Removed

	s.logger.Debug("cards applied",
		"received", r.Received, "applied", r.Applied, "dropped", r.Dropped,
		"kept_local", r.KeptLocal, "removed", r.Removed)
	return r, nil
}

// ApplyGroups decrypts a group snapshot and replaces the store's groups.
func (s *Synchronizer) ApplyGroups(records []model.GroupRecord) (Report, error) {
	r := Report{Received: len(records)}
	key, err := s.keyring.Key()
	if err != nil {
		s.logger.Warn("group snapshot skipped", "records", len(records), "error", err)
		return r, err
	}

	groups := make([]model.Group, 0, len(records))
	for _, rec := range records {
		p, err := codec.OpenGroup(key, rec.EncryptedData)
		if err != nil {
			r.Dropped++
			s.logger.Warn("group dropped", "group", rec.ID, "error", err)
			continue
		}
		groups = append(groups, rec.Decrypted(p))
	}

	if err := s.store.SetGroups(groups); err != nil {
		return r, fmt.Errorf("apply groups: %w", err)
	}
	r.Applied = len(groups)
	s.logger.Debug("groups applied", "received", r.Received, "applied", r.Applied, "dropped", r.Dropped)
	return r, nil
}

// ApplyVotes replaces the store's votes, discarding temporary entries.
func (s *Synchronizer) ApplyVotes(votes []model.Vote) error {
	if err := s.store.SetVotes(votes); err != nil {
		return fmt.Errorf("apply votes: %w", err)
	}
	return nil
}

// ApplyPresence replaces the store's presence records.
func (s *Synchronizer) ApplyPresence(presence []model.Presence) error {
	if err := s.store.SetPresence(presence); err != nil {
		return fmt.Errorf("apply presence: %w", err)
	}
	return nil
}

// Apply dispatches one feed update.
func (s *Synchronizer) Apply(u backend.Update) error {
	switch u.Kind {
	case backend.UpdateCards:
		_, err := s.ApplyCards(u.Cards)
		return err
	case backend.UpdateGroups:
		_, err := s.ApplyGroups(u.Groups)
		return err
	case backend.UpdateVotes:
		return s.ApplyVotes(u.Votes)
	case backend.UpdatePresence:
		return s.ApplyPresence(u.Presence)
	}
	return fmt.Errorf("apply: unknown update kind %d", int(u.Kind))
}

// Run subscribes to the session feed and applies updates until ctx is done
// or the feed closes.
//
// CRITICAL: Run applies updates from a single goroutine, in arrival order.
// A failing update is logged and skipped.
func (s *Synchronizer) Run(ctx context.Context, feed backend.Feed, sessionID string) error {
	updates, err := feed.Subscribe(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", sessionID, err)
	}

	q := newUpdateQueue()
	go func() {
		defer q.Close()
		for u := range updates {
			q.Enqueue(u)
		}
	}()

	s.logger.Info("sync started", "session", sessionID)
	for {
		if u, ok := q.TryDequeue(); ok {
			if err := s.Apply(u); err != nil {
				s.logger.Error("update failed", "kind", u.Kind.String(), "error", err)
			}
			continue
		}
		if q.Drained() {
			s.logger.Info("feed closed, keeping last-known state", "session", sessionID)
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.Wait():
		}
	}
}

// PullReport describes the outcome of Pull.
type PullReport struct {
	Cards    Report
	Groups   Report
	Votes    int
	Presence int
}

// Pull fetches every table of the session concurrently and applies them.
// Nothing is applied unless all four fetches succeed.
func (s *Synchronizer) Pull(ctx context.Context, sessionID string) (PullReport, error) {
	if s.client == nil {
		return PullReport{}, ErrNoClient
	}

	var (
		cards    []model.CardRecord
		groups   []model.GroupRecord
		votes    []model.Vote
		presence []model.Presence
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cards, err = s.client.GetCards(gctx, sessionID)
		return err
	})
	g.Go(func() (err error) {
		groups, err = s.client.GetGroups(gctx, sessionID)
		return err
	})
	g.Go(func() (err error) {
		votes, err = s.client.GetVotes(gctx, sessionID)
		return err
	})
	g.Go(func() (err error) {
		presence, err = s.client.GetPresence(gctx, sessionID)
		return err
	})
	if err := g.Wait(); err != nil {
		return PullReport{}, fmt.Errorf("pull %s: %w", sessionID, err)
	}

	var pr PullReport
	var err error
	if pr.Cards, err = s.ApplyCards(cards); err != nil {
		return pr, err
	}
	if pr.Groups, err = s.ApplyGroups(groups); err != nil {
		return pr, err
	}
	if err := s.ApplyVotes(votes); err != nil {
		return pr, err
	}
	pr.Votes = len(votes)
	if err := s.ApplyPresence(presence); err != nil {
		return pr, err
	}
	pr.Presence = len(presence)
	return pr, nil
}
