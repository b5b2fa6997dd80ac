// Package geometry answers "which side of the stop line" questions.
package geometry

import "stopline-worker-go/internal/models"

// Orientation returns the 2D cross product of (p2-p1) and (pt-p1).
// The result is positive on one side of the directed line p1->p2, negative
// on the other and exactly zero for points on the line.
func Orientation(p1, p2, pt models.Point) float64 {
	return (p2.X-p1.X)*(pt.Y-p1.Y) - (p2.Y-p1.Y)*(pt.X-p1.X)
}

// Side is Orientation against a stop line
func Side(line models.StopLine, pt models.Point) float64 {
	return Orientation(line.P1, line.P2, pt)
}

// Crossed reports a strict sign flip between two orientations. A zero on
// either side never counts.
func Crossed(prev, cur float64) bool {
	return prev*cur < 0
}
