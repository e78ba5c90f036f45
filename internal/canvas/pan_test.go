package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theonlysinjin/team-retro/internal/model"
)

func TestPan(t *testing.T) {
	var p Pan
	_, ok := p.Move(model.Position{})
	assert.False(t, ok)

	p.Begin(model.Position{X: 100, Y: 100}, model.Position{X: -50, Y: -50})
	assert.True(t, p.Active())

	off, ok := p.Move(model.Position{X: 102, Y: 101})
	require.True(t, ok)
	assert.Equal(t, model.Position{X: -48, Y: -49}, off)

	off, _ = p.Move(model.Position{X: 90, Y: 130})
	assert.Equal(t, model.Position{X: -60, Y: -20}, off)

	assert.True(t, p.End())
	assert.False(t, p.Active())
}

func TestPan_BelowThresholdNotMoved(t *testing.T) {
	var p Pan
	p.Begin(model.Position{}, model.Position{})
	p.Move(model.Position{X: 3, Y: -3})
	assert.False(t, p.End())
}

func TestWheel(t *testing.T) {
	assert.Equal(t, model.Position{X: 90, Y: 70}, Wheel(model.Position{X: 100, Y: 100}, 10, 30))
}

func TestCenterOffset(t *testing.T) {
	assert.Equal(t, model.Position{X: 80, Y: -190}, CenterOffset(Size{W: 1440, H: 900}, 1280))
}
