package helpers

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		err  bool
	}{
		{in: "#FF0000", want: color.RGBA{R: 255, A: 255}},
		{in: "00ff7f", want: color.RGBA{G: 255, B: 127, A: 255}},
		{in: " #102030 ", want: color.RGBA{R: 16, G: 32, B: 48, A: 255}},
		{in: "#FFF", err: true},
		{in: "#GG0000", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDarkColor(t *testing.T) {
	assert.True(t, IsDarkColor(color.RGBA{R: 255, A: 255}))
	assert.False(t, IsDarkColor(color.RGBA{G: 255, A: 255}))
	assert.False(t, IsDarkColor(color.RGBA{R: 255, G: 255, B: 255, A: 255}))
}

func TestProgressText(t *testing.T) {
	assert.Equal(t, "progress: 12/300", ProgressText(12, 300))
	assert.Equal(t, "progress: 12", ProgressText(12, 0))
}
