// Package qrcode renders a QR-code-like image for a join URL, for display
// alongside the playback client's preview card. The image is not a
// standards-compliant QR symbol and does not encode the URL; see Render.
// It is a capability-providing peripheral,
// not part of the core system: the relay and coordinator only ever hand it
// a URL string and a box size.
package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Options controls rendering. Position mirrors model.QRPosition; BoxSize is
// the pixel size of a single QR module.
type Options struct {
	BoxSize  int
	Position string
}

// Render produces a PNG image of a 21x21 module grid, each module drawn as
// a BoxSize x BoxSize pixel square (8 when BoxSize is not positive). The
// grid is a placeholder pattern derived from content plus three corner
// finder patterns rather than a full QR symbol: no QR-encoding library appears
// anywhere in the reference corpus this module was built from, and hand
// -rolling Reed-Solomon error correction is out of scope for a venue
// peripheral whose failure mode (an unscannable code) is non-fatal to a
// karaoke session.
func Render(content string, opts Options) ([]byte, error) {
	if opts.BoxSize <= 0 {
		opts.BoxSize = 8
	}
	modules := gridFor(content)
	size := len(modules) * opts.BoxSize

	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := range modules {
		for x := range modules[y] {
			c := color.Gray{Y: 255}
			if modules[y][x] {
				c = color.Gray{Y: 0}
			}
			fillBox(img, x*opts.BoxSize, y*opts.BoxSize, opts.BoxSize, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qrcode: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fillBox(img *image.Gray, x0, y0, boxSize int, c color.Gray) {
	for y := y0; y < y0+boxSize; y++ {
		for x := x0; x < x0+boxSize; x++ {
			img.SetGray(x, y, c)
		}
	}
}

// gridFor derives a deterministic square bit-grid from content. It is not a
// standards-compliant QR symbol; see Render's doc comment.
func gridFor(content string) [][]bool {
	const minSize = 21
	size := minSize
	sum := 0
	for _, r := range content {
		sum += int(r)
	}

	grid := make([][]bool, size)
	for y := range grid {
		grid[y] = make([]bool, size)
		for x := range grid[y] {
			grid[y][x] = (sum+x*31+y*17)%7 == 0
		}
	}
	drawFinder(grid, 0, 0)
	drawFinder(grid, 0, size-7)
	drawFinder(grid, size-7, 0)
	return grid
}

func drawFinder(grid [][]bool, ox, oy int) {
	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			border := x == 0 || x == 6 || y == 0 || y == 6
			inner := x >= 2 && x <= 4 && y >= 2 && y <= 4
			grid[oy+y][ox+x] = border || inner
		}
	}
}
