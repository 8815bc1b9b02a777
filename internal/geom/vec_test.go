package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampToWorld(t *testing.T) {
	bounds := Rect{Min: V(0, 0), Max: V(100, 50)}

	tests := []struct {
		name   string
		pos    Vec2
		radius float64
		want   Vec2
	}{
		{"inside", V(50, 25), 5, V(50, 25)},
		{"left edge", V(-10, 25), 5, V(5, 25)},
		{"bottom right", V(200, 200), 5, V(95, 45)},
		{"radius wider than height", V(200, 200), 30, V(70, 200)},
		{"radius wider than both", V(-3, 400), 60, V(-3, 400)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampToWorld(tt.pos, tt.radius, bounds))
		})
	}
}

func TestVecHelpers(t *testing.T) {
	assert.Equal(t, Vec2{}, Vec2{}.Norm())
	assert.InDelta(t, 1.0, V(3, 4).Norm().Len(), 1e-9)
	assert.InDelta(t, 2.0, V(3, 4).ClampLen(2).Len(), 1e-9)
	assert.Equal(t, V(1, 1), V(1, 1).ClampLen(5))
	assert.Equal(t, Vec2{}, V(1, 1).ClampLen(0))
	assert.True(t, Overlaps(V(0, 0), 1, V(2, 0), 1))
	assert.False(t, Overlaps(V(0, 0), 1, V(2.01, 0), 1))
}
