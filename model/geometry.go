package model

import (
	"image"
	"math"
)

// BBox represents a bounding box (rectangle) in image coordinates
type BBox struct {
	X      float64 // Left
	Y      float64 // Top (image coordinate system, Y grows downward)
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from coordinates
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// BBoxFromRect converts an integer pixel rectangle to a bounding box
func BBoxFromRect(r image.Rectangle) BBox {
	r = r.Canon()
	return BBox{
		X:      float64(r.Min.X),
		Y:      float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}
}

// IsFinite reports whether every coordinate is a finite number
func (b BBox) IsFinite() bool {
	for _, v := range [4]float64{b.X, b.Y, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Rect converts the box to the smallest integer rectangle covering it
func (b BBox) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(b.X)),
		int(math.Floor(b.Y)),
		int(math.Ceil(b.X+b.Width)),
		int(math.Ceil(b.Y+b.Height)),
	)
}
