package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stopline-worker-go/internal/models"
)

func TestOrientation(t *testing.T) {
	p1 := models.Point{X: 0, Y: 0}
	p2 := models.Point{X: 100, Y: 0}

	t.Run("zero on the line", func(t *testing.T) {
		assert.Zero(t, Orientation(p1, p2, models.Point{X: 50, Y: 0}))
		assert.Zero(t, Orientation(p1, p2, models.Point{X: -30, Y: 0}))
		assert.Zero(t, Orientation(p1, p2, models.Point{X: 250, Y: 0}))
	})

	t.Run("symmetric points have opposite signs", func(t *testing.T) {
		above := Orientation(p1, p2, models.Point{X: 40, Y: 10})
		below := Orientation(p1, p2, models.Point{X: 40, Y: -10})
		assert.Greater(t, above, 0.0)
		assert.Less(t, below, 0.0)
		assert.Equal(t, above, -below)
	})

	t.Run("reversing the line flips the sign", func(t *testing.T) {
		pt := models.Point{X: 12, Y: 7}
		assert.Equal(t, Orientation(p1, p2, pt), -Orientation(p2, p1, pt))
	})

	t.Run("slanted line", func(t *testing.T) {
		line := models.StopLine{P1: models.Point{X: 83, Y: 168}, P2: models.Point{X: 357, Y: 160}}
		assert.Zero(t, Side(line, line.P1))
		assert.Zero(t, Side(line, models.Point{X: 220, Y: 164}))

		front := Side(line, models.Point{X: 200, Y: 100})
		back := Side(line, models.Point{X: 200, Y: 250})
		assert.True(t, Crossed(front, back))
	})
}

func TestCrossed(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur float64
		want      bool
	}{
		{"positive to negative", 5, -3, true},
		{"negative to positive", -0.5, 2, true},
		{"same side positive", 1, 9, false},
		{"same side negative", -1, -9, false},
		{"onto the line", 4, 0, false},
		{"off the line", 0, -4, false},
		{"both zero", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Crossed(tt.prev, tt.cur))
		})
	}
}
