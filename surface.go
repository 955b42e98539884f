// surface.go
package main

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// halfBlock shows the upper pixel of a cell in the foreground color and the
// lower one in the background color.
const halfBlock = "▀"

// rasterize paints a frame into an image of its own size. Bands are drawn
// in order and clipped to the frame.
func rasterize(frame Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(frame.Width, 0), max(frame.Height, 0)))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: frame.Background}, image.Point{}, draw.Src)

	for _, b := range frame.Bands {
		r := image.Rect(b.Rect.X0, b.Rect.Y0, b.Rect.X1, b.Rect.Y1).Intersect(img.Bounds())
		if r.Empty() {
			continue
		}
		draw.Draw(img, r, &image.Uniform{C: b.Fill}, image.Point{}, draw.Src)
	}
	return img
}

// renderTerminal draws a frame as text, two vertical pixels per cell. The
// frame should be twice as tall as the number of rows wanted; an odd last
// pixel row is padded with the background.
func renderTerminal(frame Frame) string {
	img := rasterize(frame)
	rows := (frame.Height + 1) / 2

	at := func(x, y int) color.RGBA {
		if y >= frame.Height {
			return frame.Background
		}
		return img.RGBAAt(x, y)
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		if row > 0 {
			b.WriteString("\n")
		}
		x := 0
		for x < frame.Width {
			top, bottom := at(x, 2*row), at(x, 2*row+1)

			// Emit runs of identical cells with a single style.
			run := 1
			for x+run < frame.Width && at(x+run, 2*row) == top && at(x+run, 2*row+1) == bottom {
				run++
			}

			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexColor(top))).
				Background(lipgloss.Color(hexColor(bottom)))
			b.WriteString(style.Render(strings.Repeat(halfBlock, run)))
			x += run
		}
	}
	return b.String()
}
