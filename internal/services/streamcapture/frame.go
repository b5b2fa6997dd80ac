package streamcapture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

// MatFrame exposes a decoded BGR Mat as an image. The RGBA copy used for
// cropping is built on first use and dropped when the source advances.
type MatFrame struct {
	mat    *gocv.Mat
	raster *image.RGBA
}

// NewMatFrame wraps mat without taking ownership
func NewMatFrame(mat *gocv.Mat) *MatFrame {
	return &MatFrame{mat: mat}
}

func (f *MatFrame) reset() {
	f.raster = nil
}

// Mat returns the underlying Mat for drawing
func (f *MatFrame) Mat() *gocv.Mat {
	return f.mat
}

func (f *MatFrame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.mat.Cols(), f.mat.Rows())
}

func (f *MatFrame) ColorModel() color.Model {
	return color.RGBAModel
}

func (f *MatFrame) At(x, y int) color.Color {
	img := f.rgba()
	if img == nil {
		return color.RGBA{}
	}
	return img.At(x, y)
}

// SubImage returns a view of r on the RGBA copy of the frame
func (f *MatFrame) SubImage(r image.Rectangle) image.Image {
	img := f.rgba()
	if img == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	return img.SubImage(r)
}

// EncodeJPEG encodes the whole frame with OpenCV
func (f *MatFrame) EncodeJPEG(quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *f.mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()
	return bytes.Clone(buf.GetBytes()), nil
}

func (f *MatFrame) rgba() *image.RGBA {
	if f.raster != nil {
		return f.raster
	}

	img, err := f.mat.ToImage()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to convert frame to image")
		return nil
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	f.raster = rgba
	return rgba
}
