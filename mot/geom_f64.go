package mot

import (
	"image"
	"math"
)

// Rectangle is an axis-aligned box in pixel coordinates.
// (X, Y) is the top-left corner.
type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect creates rectangle from top-left corner and its size
func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// NewRectFromCorners creates rectangle from (x1, y1) top-left and (x2, y2) bottom-right corners.
// No validation is done here: see NewDetection
func NewRectFromCorners(x1, y1, x2, y2 float64) Rectangle {
	return Rectangle{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

// NewRectFromCenter creates rectangle centered at the given point
func NewRectFromCenter(center Point, width, height float64) Rectangle {
	return Rectangle{
		X:      center.X - width/2.0,
		Y:      center.Y - height/2.0,
		Width:  width,
		Height: height,
	}
}

// NewRectFrom converts integer image rectangle
func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// Corners returns (x1, y1, x2, y2)
func (rect Rectangle) Corners() (float64, float64, float64, float64) {
	return rect.X, rect.Y, rect.X + rect.Width, rect.Y + rect.Height
}

// Center returns center of the rectangle
func (rect Rectangle) Center() Point {
	return Point{
		X: rect.X + rect.Width/2.0,
		Y: rect.Y + rect.Height/2.0,
	}
}

// Diagonal returns length of the rectangle's diagonal
func (rect Rectangle) Diagonal() float64 {
	return math.Sqrt(rect.Width*rect.Width + rect.Height*rect.Height)
}

// Area returns rectangle's area
func (rect Rectangle) Area() float64 {
	return rect.Width * rect.Height
}

// ImageRect rounds rectangle to integer image coordinates. Useful for cropping regions for embedders.
func (rect Rectangle) ImageRect() image.Rectangle {
	x1, y1, x2, y2 := rect.Corners()
	return image.Rect(int(math.Round(x1)), int(math.Round(y1)), int(math.Round(x2)), int(math.Round(y2)))
}

type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: float64(point.X),
		Y: float64(point.Y),
	}
}

// lerp linearly interpolates between p1 (t=0) and p2 (t=1)
func lerp(p1, p2 Point, t float64) Point {
	return Point{
		X: p1.X + (p2.X-p1.X)*t,
		Y: p1.Y + (p2.Y-p1.Y)*t,
	}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}
