package ids

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	var g UUIDv7Generator
	a := g.Generate()
	b := g.Generate()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSequence(t *testing.T) {
	g := NewSequence("card")
	assert.Equal(t, "card-1", g.Generate())
	assert.Equal(t, "card-2", g.Generate())

	assert.Equal(t, "id-1", NewSequence("").Generate())
}
