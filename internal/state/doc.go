// Package state implements the local state store of a board client.
//
// The Store is the single canonical in-memory copy of a session that every
// consumer reads. It is an explicit, injected container with a lifecycle:
// Initialize binds it to a session, Reset tears it down. Mutating it before
// Initialize fails with ErrNotInitialized.
//
// # Two card layers
//
// Cards are held in two layers:
//
//   - confirmed: the last authoritative snapshot, written by the
//     synchronizer through SetCards
//   - pending: local optimistic edits (position, payload, group) written by
//     the interaction controller
//
// The visible card is the pending copy when its UpdatedAt is strictly
// greater than the confirmed copy's, otherwise the confirmed copy. SetCards
// applies the last-write-wins rule: an incoming record replaces the local
// copy unless the local copy is strictly newer, and adopting an incoming
// record discards the pending edit it supersedes.
//
// Votes, groups and presence are replaced wholesale. Temporary optimistic
// votes are discarded by the next SetVotes. Temporary groups survive
// SetGroups until ConfirmGroup swaps in the authoritative id or
// DissolveGroup drops them.
//
// # Observers
//
// Subscribe registers a callback invoked after every change, outside the
// store lock, with the kind of collection that changed.
//
// Thread-safety: all methods are safe for concurrent use.
package state
