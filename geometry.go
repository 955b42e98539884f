// geometry.go
package main

import (
	"errors"
	"math"
)

// ErrDegenerateRect is returned when a rectangle with zero (or non-finite)
// width or height is used where a scale factor has to be derived from it.
var ErrDegenerateRect = errors.New("degenerate rectangle")

// RectF is an axis-aligned rectangle in floating-point coordinates.
// Top grows downwards, as on every surface we paint to.
type RectF struct {
	Left, Top, Right, Bottom float64
}

func (r RectF) Width() float64  { return r.Right - r.Left }
func (r RectF) Height() float64 { return r.Bottom - r.Top }

// IsDegenerate reports whether r cannot serve as the source or target of a
// scale transform.
func (r RectF) IsDegenerate() bool {
	w, h := r.Width(), r.Height()
	return !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0)
}

// lerpRect interpolates every edge of a towards b by t.
func lerpRect(a, b RectF, t float64) RectF {
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	lerp := func(x, y float64) float64 { return x + (y-x)*t }
	return RectF{
		Left:   lerp(a.Left, b.Left),
		Top:    lerp(a.Top, b.Top),
		Right:  lerp(a.Right, b.Right),
		Bottom: lerp(a.Bottom, b.Bottom),
	}
}

// Rect is an integer pixel rectangle covering [X0,X1) x [Y0,Y1).
type Rect struct {
	X0, Y0, X1, Y1 int
}

func (r Rect) Width() int  { return r.X1 - r.X0 }
func (r Rect) Height() int { return r.Y1 - r.Y0 }
func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Adjusted moves each edge by the given delta.
func (r Rect) Adjusted(dx0, dy0, dx1, dy1 int) Rect {
	return Rect{X0: r.X0 + dx0, Y0: r.Y0 + dy0, X1: r.X1 + dx1, Y1: r.Y1 + dy1}
}

// roundRectF snaps every edge to the nearest pixel boundary. Rounding the
// edges rather than the size keeps neighbouring bands sharing a boundary.
func roundRectF(r RectF) Rect {
	return Rect{
		X0: int(math.Round(r.Left)),
		Y0: int(math.Round(r.Top)),
		X1: int(math.Round(r.Right)),
		Y1: int(math.Round(r.Bottom)),
	}
}

// Transform is a scale + translate affine map. No rotation or shear.
type Transform struct {
	SX, SY float64
	TX, TY float64
}

func (t Transform) Map(x, y float64) (float64, float64) {
	return t.SX*x + t.TX, t.SY*y + t.TY
}

// MapRect maps both corners of r and returns the normalized result.
func (t Transform) MapRect(r RectF) RectF {
	x0, y0 := t.Map(r.Left, r.Top)
	x1, y1 := t.Map(r.Right, r.Bottom)
	return RectF{
		Left:   math.Min(x0, x1),
		Top:    math.Min(y0, y1),
		Right:  math.Max(x0, x1),
		Bottom: math.Max(y0, y1),
	}
}

// getTransform returns the map that places data exactly onto win: the
// top-left corners coincide and so do the bottom-right ones.
func getTransform(win, data RectF) (Transform, error) {
	if data.IsDegenerate() || win.IsDegenerate() {
		return Transform{}, ErrDegenerateRect
	}
	sx := win.Width() / data.Width()
	sy := win.Height() / data.Height()
	return Transform{
		SX: sx,
		SY: sy,
		TX: win.Left - sx*data.Left,
		TY: win.Top - sy*data.Top,
	}, nil
}
