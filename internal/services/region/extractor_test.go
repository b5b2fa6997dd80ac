package region

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stopline-worker-go/internal/models"
)

func TestExtract(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 50, 50))

	t.Run("oversized box is clamped to the frame", func(t *testing.T) {
		img, ok := Extract(frame, 5, 5, 100, 100)
		require.True(t, ok)
		assert.Equal(t, image.Rect(0, 0, 50, 50), img.Bounds())
	})

	t.Run("box inside the frame", func(t *testing.T) {
		img, ok := Extract(frame, 25, 20, 10, 6)
		require.True(t, ok)
		assert.Equal(t, image.Rect(20, 17, 30, 23), img.Bounds())
	})

	t.Run("box partly outside on the right", func(t *testing.T) {
		img, ok := Extract(frame, 48, 10, 10, 10)
		require.True(t, ok)
		assert.Equal(t, image.Rect(43, 5, 50, 15), img.Bounds())
	})

	t.Run("box entirely outside", func(t *testing.T) {
		img, ok := Extract(frame, 200, 200, 20, 20)
		assert.False(t, ok)
		assert.Nil(t, img)

		_, ok = Extract(frame, -100, 10, 20, 20)
		assert.False(t, ok)
	})

	t.Run("zero sized box", func(t *testing.T) {
		_, ok := Extract(frame, 10, 10, 0, 10)
		assert.False(t, ok)
	})

	t.Run("negative size", func(t *testing.T) {
		_, ok := Extract(frame, 10, 10, -8, 10)
		assert.False(t, ok)
	})

	t.Run("nil frame", func(t *testing.T) {
		_, ok := Extract(nil, 10, 10, 5, 5)
		assert.False(t, ok)
	})

	t.Run("non finite input", func(t *testing.T) {
		_, ok := Extract(frame, math.NaN(), 10, 5, 5)
		assert.False(t, ok)
		_, ok = Extract(frame, 10, 10, math.Inf(1), 5)
		assert.False(t, ok)
	})
}

func TestExtractDetection(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))
	det := models.Detection{Center: models.Point{X: 32, Y: 24}, Width: 16, Height: 8}

	img, ok := ExtractDetection(frame, det)
	require.True(t, ok)
	assert.Equal(t, image.Rect(24, 20, 40, 28), img.Bounds())
}

func TestClampBoxOffsetBounds(t *testing.T) {
	bounds := image.Rect(10, 10, 30, 30)

	r, ok := ClampBox(bounds, 12, 12, 10, 10)
	require.True(t, ok)
	assert.Equal(t, image.Rect(10, 10, 17, 17), r)
}
