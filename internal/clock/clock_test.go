package clock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStamper_FollowsClock(t *testing.T) {
	now := int64(1000)
	s := NewStamper(Func(func() int64 { return now }))

	assert.Equal(t, int64(1000), s.Stamp(0))
	now = 2000
	assert.Equal(t, int64(2000), s.Stamp(1000))
}

func TestStamper_FrozenClock(t *testing.T) {
	s := NewStamper(Func(func() int64 { return 1000 }))

	prev := s.Stamp(0)
	for i := 0; i < 3; i++ {
		next := s.Stamp(prev)
		assert.Equal(t, prev+1, next)
		prev = next
	}
}

func TestStamper_ClockStepsBack(t *testing.T) {
	now := int64(5000)
	s := NewStamper(Func(func() int64 { return now }))

	prev := s.Stamp(0)
	now = 100
	assert.Equal(t, int64(5001), s.Stamp(prev))
	assert.Equal(t, int64(100), s.Stamp(0), "new records follow the clock")
}

func TestStamper_ExceedsPrevious(t *testing.T) {
	s := NewStamper(Func(func() int64 { return 1000 }))

	// A record last written by a client whose clock runs ahead.
	assert.Equal(t, int64(9001), s.Stamp(9000))
	assert.Equal(t, int64(9001), s.Last())
}

func TestStamper_LastIsMaximum(t *testing.T) {
	s := NewStamper(Func(func() int64 { return 42 }))

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(prev int64) {
			defer wg.Done()
			s.Stamp(prev)
		}(i * 10)
	}
	wg.Wait()

	assert.Equal(t, int64(491), s.Last())
}

func TestSystem(t *testing.T) {
	assert.Positive(t, System{}.Now())
	assert.NotNil(t, NewStamper(nil))
}
