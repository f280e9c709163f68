// internal/paper/render.go
package paper

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"hp82240-service/internal/decoder"
)

// Margins of the paper around the printable area, in printer dots
const (
	PadLeft      = 22
	PadRight     = 19
	PadTopBottom = 10
)

var palette = color.Palette{color.White, color.Black}

// RenderOptions controls how paper is drawn
type RenderOptions struct {
	// Scale enlarges every dot to Scale x Scale pixels
	Scale int
	// Border draws a one pixel frame around the paper
	Border bool
}

// Render stacks the bitmaps top to bottom on a white strip of paper
func Render(bitmaps []decoder.Bitmap, opts RenderOptions) *image.Paletted {
	border := 0
	if opts.Border {
		border = 1
	}
	width := decoder.Columns + PadLeft + PadRight + 2*border
	height := len(bitmaps)*decoder.Rows + 2*PadTopBottom + 2*border

	img := image.NewPaletted(image.Rect(0, 0, width, height), palette)
	for y, bm := range bitmaps {
		top := PadTopBottom + border + y*decoder.Rows
		for col := 0; col < decoder.Columns; col++ {
			for row := 0; row < decoder.Rows; row++ {
				if bm[col][row] {
					img.SetColorIndex(PadLeft+border+col, top+row, 1)
				}
			}
		}
	}
	if opts.Border {
		for x := 0; x < width; x++ {
			img.SetColorIndex(x, 0, 1)
			img.SetColorIndex(x, height-1, 1)
		}
		for y := 0; y < height; y++ {
			img.SetColorIndex(0, y, 1)
			img.SetColorIndex(width-1, y, 1)
		}
	}

	if opts.Scale <= 1 {
		return img
	}
	scaled := image.NewPaletted(image.Rect(0, 0, width*opts.Scale, height*opts.Scale), palette)
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
	return scaled
}

// EncodePNG renders the bitmaps and writes them as PNG
func EncodePNG(w io.Writer, bitmaps []decoder.Bitmap, opts RenderOptions) error {
	return png.Encode(w, Render(bitmaps, opts))
}

// Bitmaps extracts the bitmaps of lines
func Bitmaps(lines []Line) []decoder.Bitmap {
	out := make([]decoder.Bitmap, len(lines))
	for i, line := range lines {
		out[i] = line.Bitmap
	}
	return out
}
