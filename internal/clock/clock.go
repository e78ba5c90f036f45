// Package clock provides the time sources of the client.
//
// Timestamps are Unix milliseconds. Card.UpdatedAt is the per-card
// last-write-wins key, so every write is stamped through a Stamper, which
// guarantees that a record's stamp strictly increases even when the wall
// clock stalls or steps backwards.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock returns the current time in Unix milliseconds.
type Clock interface {
	Now() int64
}

// System is the wall clock.
type System struct{}

// Now returns time.Now in Unix milliseconds.
func (System) Now() int64 {
	return time.Now().UnixMilli()
}

// Func adapts a function to Clock.
type Func func() int64

// Now calls f.
func (f Func) Now() int64 { return f() }

// Stamper issues per-record write timestamps derived from a Clock.
//
// Thread-safety: Stamper is safe for concurrent use (atomic operations).
type Stamper struct {
	src  Clock
	last atomic.Int64
}

// NewStamper creates a stamper over src. A nil src means System.
func NewStamper(src Clock) *Stamper {
	if src == nil {
		src = System{}
	}
	return &Stamper{src: src}
}

// Now returns the underlying clock reading without stamping.
func (s *Stamper) Now() int64 {
	return s.src.Now()
}

// Stamp returns the timestamp for a write to a record whose previous
// stamp is prev (0 for a new record): the clock reading, or prev+1 when the
// clock has not moved past prev.
func (s *Stamper) Stamp(prev int64) int64 {
	next := s.src.Now()
	if next <= prev {
		next = prev + 1
	}
	for {
		last := s.last.Load()
		if next <= last || s.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Last returns the greatest stamp issued so far, or 0.
func (s *Stamper) Last() int64 {
	return s.last.Load()
}
