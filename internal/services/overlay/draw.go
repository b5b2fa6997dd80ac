// Package overlay renders the stop line, tracked vehicles and session
// counters onto frames and writes the annotated video.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"stopline-worker-go/internal/helpers"
	"stopline-worker-go/internal/models"
)

var (
	trackingColor = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	recordedColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	otherColor    = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	white         = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// DrawTextEnhanced draws text on a dark padded background
func DrawTextEnhanced(mat *gocv.Mat, text string, x, y int, textColor color.RGBA, fontScale float64, thickness int) {
	fontFace := gocv.FontHersheySimplex
	textSize := gocv.GetTextSize(text, fontFace, fontScale, thickness)

	padding := 8
	bgRect := image.Rect(x-padding, y-textSize.Y-padding, x+textSize.X+padding, y+padding)
	gocv.Rectangle(mat, bgRect, color.RGBA{R: 0, G: 0, B: 0, A: 200}, -1)
	gocv.Rectangle(mat, bgRect, color.RGBA{R: 40, G: 40, B: 40, A: 255}, 1)

	gocv.PutText(mat, text, image.Pt(x+1, y+1), fontFace, fontScale, color.RGBA{A: 100}, thickness)
	gocv.PutText(mat, text, image.Pt(x, y), fontFace, fontScale, textColor, thickness)
}

// DrawStopLine draws the stop line with small end markers
func DrawStopLine(mat *gocv.Mat, line models.StopLine, lineColor color.RGBA) {
	if mat == nil {
		return
	}
	p1 := image.Pt(int(line.P1.X), int(line.P1.Y))
	p2 := image.Pt(int(line.P2.X), int(line.P2.Y))
	gocv.Line(mat, p1, p2, lineColor, 3)
	gocv.Circle(mat, p1, 5, lineColor, -1)
	gocv.Circle(mat, p2, 5, lineColor, -1)
}

// DrawDetections boxes tracked vehicles of the class of interest. Tracks
// already logged are drawn in green.
func DrawDetections(mat *gocv.Mat, ann models.FrameAnnotation) {
	if mat == nil {
		return
	}

	for _, d := range ann.Detections {
		rect := image.Rect(
			int(d.Center.X-d.Width/2), int(d.Center.Y-d.Height/2),
			int(d.Center.X+d.Width/2), int(d.Center.Y+d.Height/2),
		)

		boxColor := otherColor
		label := ""
		if d.HasTrack() && d.ClassID == ann.ClassID {
			boxColor = trackingColor
			label = fmt.Sprintf("#%d", *d.TrackID)
			if ann.IsRecorded != nil && ann.IsRecorded(*d.TrackID) {
				boxColor = recordedColor
			}
		}

		gocv.Rectangle(mat, rect, boxColor, 2)
		gocv.Circle(mat, image.Pt(int(d.Center.X), int(d.Center.Y)), 3, boxColor, -1)
		if label != "" {
			gocv.PutText(mat, label, image.Pt(rect.Min.X, rect.Min.Y-6), gocv.FontHersheySimplex, 0.5, boxColor, 1)
		}
	}
}

// DrawStatus draws the crossing counter and the progress line
func DrawStatus(mat *gocv.Mat, ann models.FrameAnnotation, textColor color.RGBA) {
	if mat == nil {
		return
	}
	if helpers.IsDarkColor(textColor) {
		textColor = white
	}

	y := 30
	DrawTextEnhanced(mat, fmt.Sprintf("crossings: %d", ann.Crossings), 15, y, textColor, 0.7, 2)
	y += 35
	DrawTextEnhanced(mat, helpers.ProgressText(ann.Meta.FrameID, ann.Meta.Total), 15, y, white, 0.6, 2)
}
