// color.go
package main

import (
	"fmt"
	"image/color"

	"github.com/cespare/xxhash/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	backgroundColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor    = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// colorFromString derives a stable color from a frame name. The name is
// hashed with 64-bit xxHash (seed 0), so the same name gets the same color
// on every run and platform. Hue comes from bits 0-7, saturation from bits
// 8-15 and value from bits 16-23; saturation and value are kept in
// [55, 254] so bands never wash out to white or black.
func colorFromString(name string) color.RGBA {
	hash := xxhash.Sum64String(name)

	h := (hash & 0xff) % 255
	s := ((hash>>8)&0xff)%200 + 55
	v := ((hash>>16)&0xff)%200 + 55

	r, g, b := colorful.Hsv(float64(h), float64(s)/255, float64(v)/255).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
