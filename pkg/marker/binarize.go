package marker

import (
	"image"
	"image/draw"
)

// bitmap is a binary image where set pixels are "dark" (marker ink).
type bitmap struct {
	w, h int
	bits []bool
}

func (b *bitmap) at(x, y int) bool {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return false
	}
	return b.bits[y*b.w+x]
}

func (b *bitmap) set(x, y int) { b.bits[y*b.w+x] = true }

// toGray converts any image to 8-bit grayscale.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	g := image.NewGray(bounds)
	draw.Draw(g, bounds, img, bounds.Min, draw.Src)
	return g
}

// otsuThreshold finds the global threshold minimizing intra-class variance.
// Good enough for the flat lighting of a scanned or photographed sheet; the
// cell sampler re-votes per cell, which absorbs moderate gradients.
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	bounds := g.Bounds()
	total := bounds.Dx() * bounds.Dy()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[g.GrayAt(x, y).Y]++
		}
	}

	sum := 0.0
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var best float64
	var threshold uint8
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(i)
		}
	}
	return threshold
}

// binarize marks pixels at or below the threshold as dark.
func binarize(g *image.Gray, threshold uint8) *bitmap {
	bounds := g.Bounds()
	b := &bitmap{w: bounds.Dx(), h: bounds.Dy(), bits: make([]bool, bounds.Dx()*bounds.Dy())}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if g.GrayAt(x, y).Y <= threshold {
				b.bits[i] = true
			}
			i++
		}
	}
	return b
}
