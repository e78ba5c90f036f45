package state

import "errors"

var (
	// ErrNotInitialized is returned by mutations issued before Initialize
	// or after Reset.
	ErrNotInitialized = errors.New("state: store not initialized")

	// ErrCardNotFound is returned by optimistic patches on unknown cards.
	ErrCardNotFound = errors.New("state: card not found")

	// ErrGroupNotFound is returned by optimistic patches on unknown groups.
	ErrGroupNotFound = errors.New("state: group not found")
)
