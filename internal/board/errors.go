package board

import "errors"

var (
	// ErrNotReady is returned when an action needs the session key and it
	// has not been derived yet. Callers should ask the user to retry
	// shortly.
	ErrNotReady = errors.New("board: encryption not ready, try again shortly")

	// ErrNoSession is returned when no session is active.
	ErrNoSession = errors.New("board: no active session")

	// ErrNoDrag is returned when ending a drag that was never started.
	ErrNoDrag = errors.New("board: no drag in progress")

	// ErrEmptyContent is returned when adding a card without content.
	ErrEmptyContent = errors.New("board: card content is empty")

	// ErrUnknownColor is returned for colors outside the card palette.
	ErrUnknownColor = errors.New("board: unknown card color")
)
