package mot

import (
	"image"
	"math"
)

// MinHeight is the smallest box height the motion models will carry.
// Width is derived as area/height, so height never reaches zero.
const MinHeight = 1e-3

// Rectangle is an axis-aligned box in frame pixels anchored at its top-left corner.
type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// NewRectFromCenter builds a box from center form: center, area and height.
// Height is floored at MinHeight and area at MinHeight², so the derived width stays finite.
func NewRectFromCenter(cx, cy, area, height float64) Rectangle {
	height = math.Max(height, MinHeight)
	area = math.Max(area, MinHeight*MinHeight)
	width := area / height
	return Rectangle{
		X:      cx - width/2.0,
		Y:      cy - height/2.0,
		Width:  width,
		Height: height,
	}
}

// Center returns box's center
func (r Rectangle) Center() Point {
	return Point{
		X: r.X + r.Width/2.0,
		Y: r.Y + r.Height/2.0,
	}
}

// Area returns box's area
func (r Rectangle) Area() float64 {
	return r.Width * r.Height
}

// IsValid reports whether every field is finite and both dimensions are positive.
func (r Rectangle) IsValid() bool {
	for _, v := range [4]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width > 0 && r.Height > 0
}

// Image returns the pixel rectangle covering the box (fractional edges are widened outwards).
func (r Rectangle) Image() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)),
		int(math.Ceil(r.Y+r.Height)),
	)
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
