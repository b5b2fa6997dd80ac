package helpers

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHexColor converts a color string like "#RRGGBB" to color.RGBA
func ParseHexColor(s string) (color.RGBA, error) {
	var c color.RGBA
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return c, fmt.Errorf("invalid color length: %s", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// IsDarkColor uses perceived luminance with a mid-range threshold
func IsDarkColor(c color.RGBA) bool {
	luminance := 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
	return luminance < 128
}

// ProgressText renders "progress: cur/total", or just the frame number when
// the total is unknown
func ProgressText(cur, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("progress: %d", cur)
	}
	return fmt.Sprintf("progress: %d/%d", cur, total)
}
