package inmem

import (
	"context"

	"github.com/theonlysinjin/team-retro/internal/backend"
)

var allKinds = []backend.UpdateKind{
	backend.UpdateCards,
	backend.UpdateVotes,
	backend.UpdateGroups,
	backend.UpdatePresence,
}

// Subscribe delivers the current snapshot of every table, then a fresh
// snapshot of each table that changes. The channel is closed when ctx is
// done.
func (b *Backend) Subscribe(ctx context.Context, sessionID string) (<-chan backend.Update, error) {
	const op = "subscribe"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx, op); err != nil {
		return nil, err
	}
	if b.sessionLocked(sessionID) == nil {
		return nil, backend.Errorf(backend.CodeNotFound, op, "session %q not found", sessionID)
	}

	size := b.bufferSize
	if size < len(allKinds) {
		size = len(allKinds)
	}
	ch := make(chan backend.Update, size)
	id := b.nextSub
	b.nextSub++
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[int]chan backend.Update)
	}
	b.subs[sessionID][id] = ch

	for _, kind := range allKinds {
		ch <- b.snapshotLocked(sessionID, kind)
	}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[sessionID], id)
		close(ch)
	}()

	return ch, nil
}

func (b *Backend) snapshotLocked(sessionID string, kind backend.UpdateKind) backend.Update {
	u := backend.Update{Kind: kind}
	switch kind {
	case backend.UpdateCards:
		u.Cards = b.cardsLocked(sessionID)
	case backend.UpdateVotes:
		u.Votes = b.votesLocked(sessionID)
	case backend.UpdateGroups:
		u.Groups = b.groupsLocked(sessionID)
	case backend.UpdatePresence:
		u.Presence = b.presenceLocked(sessionID)
	}
	return u
}

// pushLocked sends fresh snapshots of kinds to every subscriber of the
// session without blocking.
func (b *Backend) pushLocked(sessionID string, kinds ...backend.UpdateKind) {
	subs := b.subs[sessionID]
	if len(subs) == 0 {
		return
	}
	for _, kind := range kinds {
		u := b.snapshotLocked(sessionID, kind)
		for id, ch := range subs {
			select {
			case ch <- u:
			default:
				b.logger.Warn("subscriber lagging, snapshot dropped",
					"session", sessionID, "subscriber", id, "kind", kind.String())
			}
		}
	}
}

// Subscribers returns the number of live subscriptions of a session.
func (b *Backend) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionID])
}
