package marker

import (
	"image"
	"image/color"

	"github.com/cardforge/cardforge/pkg/errors"
)

// Encode returns the dictionary pattern for the given identity.
// Identities outside the dictionary fail with UNKNOWN_IDENTITY.
func (d *Dictionary) Encode(identity int) (Matrix, error) {
	if identity < 0 || identity >= len(d.Words) {
		return Matrix{}, errors.New(errors.ErrCodeUnknownIdentity,
			"identity %d outside dictionary of %d entries", identity, len(d.Words))
	}
	return d.Words[identity], nil
}

// Render draws the matrix with its solid one-cell black border, each cell
// exactly cellPx pixels square. Output is pure black and white with no
// anti-aliasing; the decoder depends on binary fidelity.
func Render(m Matrix, cellPx int) *image.Gray {
	cells := m.N + 2
	size := cells * cellPx
	img := image.NewGray(image.Rect(0, 0, size, size))

	for cy := 0; cy < cells; cy++ {
		for cx := 0; cx < cells; cx++ {
			v := color.Gray{Y: 0}
			border := cy == 0 || cx == 0 || cy == cells-1 || cx == cells-1
			if !border && m.At(cy-1, cx-1) {
				v = color.Gray{Y: 255}
			}
			for y := cy * cellPx; y < (cy+1)*cellPx; y++ {
				for x := cx * cellPx; x < (cx+1)*cellPx; x++ {
					img.SetGray(x, y, v)
				}
			}
		}
	}
	return img
}
