package marker

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// homography computes the 3×3 projective transform mapping each src point
// onto the corresponding dst point, with h33 fixed to 1. Four point pairs
// give the standard 8×8 direct linear system.
func homography(src, dst [4]Point) (*mat.Dense, bool) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, false
	}

	out := mat.NewDense(3, 3, []float64{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	})
	return out, true
}

// project applies a homography to a point.
func project(h *mat.Dense, p Point) Point {
	x := h.At(0, 0)*p.X + h.At(0, 1)*p.Y + h.At(0, 2)
	y := h.At(1, 0)*p.X + h.At(1, 1)*p.Y + h.At(1, 2)
	w := h.At(2, 0)*p.X + h.At(2, 1)*p.Y + h.At(2, 2)
	if math.Abs(w) < 1e-12 {
		return Point{}
	}
	return Point{x / w, y / w}
}
