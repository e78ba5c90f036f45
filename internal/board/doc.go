// Package board implements the interaction controller of the retro board.
//
// Every user action follows the same shape: check preconditions, apply
// the change to the local state store immediately, then confirm it with the
// backend through a fire-and-forget task. A failed confirmation is logged
// and reported on the dispatcher's result channel; it never rolls back the
// optimistic change. The next authoritative snapshot converges the store
// through the last-write-wins merge. The one exception is a group whose
// creation failed: it has no authoritative copy, so it is dissolved locally.
//
// A group created by a drop lives in the store under a temporary id until
// the backend assigns the real one. Tasks that target such a group wait for
// that assignment before calling the backend.
//
// Content is only ever sent encrypted. Actions that need the session key
// fail with ErrNotReady before touching the store when the key has not been
// derived yet.
//
// The Controller also owns the transient interaction state of the canvas:
// the active drag and the active pan gesture.
package board
