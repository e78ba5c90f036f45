// Package model defines the shared data model of the retro board.
//
// Records arriving from the backend carry plaintext metadata (positions,
// author names, timestamps) next to an opaque encrypted payload. The
// decrypted, typed form of those records (Card, Group) is what the local
// state store holds and what every consumer reads.
//
// # Identity
//
// All identifiers are opaque strings assigned by the backend, except the
// temporary ids of optimistic votes (prefixed with TempIDPrefix) which only
// live in local state until the next authoritative snapshot replaces them.
//
// # Time
//
// Timestamps are Unix milliseconds. Card.UpdatedAt is the per-card
// last-write-wins key: it only increases, and any write to content or
// position bumps it.
package model
