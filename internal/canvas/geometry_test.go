package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theonlysinjin/team-retro/internal/model"
)

func TestRect_Intersect(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Rect
		want   Rect
		wantOK bool
	}{
		{"overlap", Rect{0, 0, 10, 10}, Rect{5, 5, 10, 10}, Rect{5, 5, 5, 5}, true},
		{"contained", Rect{0, 0, 10, 10}, Rect{2, 2, 3, 3}, Rect{2, 2, 3, 3}, true},
		{"touching edges", Rect{0, 0, 10, 10}, Rect{10, 0, 10, 10}, Rect{}, false},
		{"disjoint", Rect{0, 0, 10, 10}, Rect{20, 20, 1, 1}, Rect{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Intersect(tt.b)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRect_UnionExpand(t *testing.T) {
	r := Rect{0, 0, 10, 10}.Union(Rect{20, 5, 10, 10})
	assert.Equal(t, Rect{0, 0, 30, 15}, r)
	assert.Equal(t, Rect{-2, -2, 34, 19}, r.Expand(2))
	assert.Equal(t, model.Position{X: 30, Y: 15}, r.Max())
	assert.True(t, r.Contains(model.Position{X: 30, Y: 15}))
	assert.False(t, r.Contains(model.Position{X: 31, Y: 0}))
}

func TestFrame(t *testing.T) {
	f := Frame{
		Container: model.Position{X: 0, Y: 64},
		Offset:    model.Position{X: -200, Y: 50},
	}
	viewport := model.Position{X: 300, Y: 400}

	assert.Equal(t, model.Position{X: 300, Y: 336}, f.ToContainer(viewport))
	assert.Equal(t, model.Position{X: 500, Y: 286}, f.ToCanvas(viewport))
	assert.Equal(t, viewport, f.ToViewport(f.ToCanvas(viewport)))
}
