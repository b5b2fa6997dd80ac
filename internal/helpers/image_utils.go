package helpers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/rs/zerolog/log"
)

// JPEG quality settings
const (
	HighQuality   = 95
	MediumQuality = 75
	LowQuality    = 50
)

// JPEGEncoder is implemented by frames that can encode themselves natively
type JPEGEncoder interface {
	EncodeJPEG(quality int) ([]byte, error)
}

// EncodeJPEG encodes img, preferring the image's own encoder when it has one
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}
	if enc, ok := img.(JPEGEncoder); ok {
		return enc.EncodeJPEG(quality)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// isJPEGData checks if the byte slice contains JPEG data by checking magic bytes
func isJPEGData(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	// JPEG magic bytes: FF D8
	return data[0] == 0xFF && data[1] == 0xD8
}

// Snapshot downsizes img to maxWidth (keeping aspect ratio) and encodes it as JPEG
func Snapshot(img image.Image, maxWidth, quality int) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// Don't upscale images
	scale := 1.0
	if maxWidth > 0 && width > maxWidth {
		scale = float64(maxWidth) / float64(width)
	}

	if scale < 1.0 {
		newWidth := max(1, int(float64(width)*scale))
		newHeight := max(1, int(float64(height)*scale))
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		for y := 0; y < newHeight; y++ {
			for x := 0; x < newWidth; x++ {
				srcX := bounds.Min.X + int(float64(x)/scale)
				srcY := bounds.Min.Y + int(float64(y)/scale)
				resized.Set(x, y, img.At(srcX, srcY))
			}
		}
		img = resized
	}

	data, err := EncodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Int("compressed_size", len(data)).
		Int("quality", quality).
		Msg("Snapshot encoded")
	return data, nil
}

// SnapshotB64 returns a base64 encoded snapshot, or nil when data is not JPEG
func SnapshotB64(data []byte) *string {
	if !isJPEGData(data) {
		return nil
	}
	s := base64.StdEncoding.EncodeToString(data)
	return &s
}
