package view

import (
	"fmt"
	"strings"
)

// verticalDamping shrinks the sparkline's vertical span so micro-moves
// in a flat price do not render as cliffs.
const verticalDamping = 0.8

// Point is one sparkline vertex in output coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sparkline projects a price buffer onto a width x height canvas.
// Values are normalized against the buffer's own min/max, damped, and
// vertically centered; Y grows downward like SVG coordinates.
func Sparkline(values []float64, width, height float64) []Point {
	if len(values) == 0 || width <= 0 || height <= 0 {
		return nil
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	span := max - min
	points := make([]Point, len(values))
	step := 0.0
	if len(values) > 1 {
		step = width / float64(len(values)-1)
	}

	for i, v := range values {
		norm := 0.5
		if span > 0 {
			norm = (v - min) / span
		}
		// damp around the vertical center
		norm = 0.5 + (norm-0.5)*verticalDamping
		points[i] = Point{
			X: float64(i) * step,
			Y: height - norm*height,
		}
	}
	return points
}

// Polyline renders sparkline points as an SVG polyline attribute value.
func Polyline(points []Point) string {
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.2f,%.2f", p.X, p.Y)
	}
	return b.String()
}
