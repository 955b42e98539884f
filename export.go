// export.go
package main

import (
	"fmt"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"
)

// canvas works in millimetres; frames are in 96 dpi pixels.
const mmPerPixel = 25.4 / 96

type exportFormat string

const (
	formatPDF exportFormat = "pdf"
	formatSVG exportFormat = "svg"
	formatPNG exportFormat = "png"
)

func formatFromPath(path string) (exportFormat, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch f := exportFormat(ext); f {
	case formatPDF, formatSVG, formatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want .pdf, .svg or .png)", filepath.Ext(path))
	}
}

// exportFrame writes a painted frame in the given format. Vector formats
// outline every band with a one pixel dark stroke.
func exportFrame(w io.Writer, frame Frame, format exportFormat) error {
	if frame.Width <= 0 || frame.Height <= 0 {
		return fmt.Errorf("cannot export a %dx%d frame", frame.Width, frame.Height)
	}

	if format == formatPNG {
		if err := png.Encode(w, rasterize(frame)); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		return nil
	}

	width := float64(frame.Width) * mmPerPixel
	height := float64(frame.Height) * mmPerPixel

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	// Top-left origin, like the frame.
	ctx.SetCoordSystem(canvas.CartesianIV)
	drawFrame(ctx, frame)

	switch format {
	case formatPDF:
		writer := pdf.New(w, width, height, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	case formatSVG:
		writer := svg.New(w, width, height, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	return nil
}

func drawFrame(ctx *canvas.Context, frame Frame) {
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.SetFillColor(frame.Background)
	ctx.DrawPath(0, 0, canvas.Rectangle(float64(frame.Width)*mmPerPixel, float64(frame.Height)*mmPerPixel))

	ctx.SetStrokeColor(outlineColor)
	ctx.SetStrokeWidth(mmPerPixel)
	for _, b := range frame.Bands {
		ctx.SetFillColor(b.Fill)
		x := float64(b.Rect.X0) * mmPerPixel
		y := float64(b.Rect.Y0) * mmPerPixel
		ctx.DrawPath(x, y, canvas.Rectangle(float64(b.Rect.Width())*mmPerPixel, float64(b.Rect.Height())*mmPerPixel))
	}
}
