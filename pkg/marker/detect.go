package marker

import (
	"image"
	"math"
)

// Detection is one decoded fiducial: its dictionary identity and the four
// outer-border corners in image coordinates, clockwise starting from the
// marker's own top-left (pattern orientation, not image orientation).
type Detection struct {
	ID      int
	Corners [4]Point
}

// Center returns the centroid of the detection's corners.
func (d Detection) Center() Point { return centroid(d.Corners) }

// minContourLen discards contours too short to be a legible marker; a
// marker at the minimum usable cell size has a far longer boundary.
const minContourLen = 40

// maxBitErrors is the per-marker tolerance during dictionary lookup. The
// dictionary's minimum rotation distance keeps a single flipped bit
// unambiguous.
const maxBitErrors = 1

// Detect scans an image for fiducial markers from the default dictionary.
// It returns zero or more detections; an image without marker structure
// yields an empty slice, never an error. Candidates that fail the border
// check or decode outside the dictionary are dropped silently.
func Detect(img image.Image) []Detection {
	return DetectWithDictionary(img, DefaultDictionary())
}

// DetectWithDictionary is Detect against a caller-supplied dictionary.
//
// The pipeline is a sequence of pure stages: grayscale conversion, Otsu
// binarization, boundary tracing, quad approximation with sub-pixel corner
// refinement, perspective unwarp, per-cell bit sampling, and dictionary
// lookup under all four rotations. Each stage tolerates the moderate
// rotation and perspective of a photographed sheet.
func DetectWithDictionary(img image.Image, dict *Dictionary) []Detection {
	gray := toGray(img)
	bm := binarize(gray, otsuThreshold(gray))
	contours := traceContours(bm, minContourLen)

	var dets []Detection
	for _, contour := range contours {
		quad, cornerIdx, ok := approxQuad(contour)
		if !ok {
			continue
		}
		quad = refineCorners(contour, quad, cornerIdx)
		quad = clockwise(quad)

		m, ok := sampleGrid(bm, quad, dict.N)
		if !ok {
			continue
		}
		id, rot, ok := dict.Lookup(m, maxBitErrors)
		if !ok {
			continue
		}

		// The sampled grid equals the dictionary word rotated rot times
		// clockwise, so the pattern's top-left outer corner sits at quad
		// index rot.
		var corners [4]Point
		for i := 0; i < 4; i++ {
			corners[i] = quad[(i+rot)%4]
		}
		dets = append(dets, Detection{ID: id, Corners: corners})
	}
	return dets
}

// sampleGrid unwarps the quad onto the canonical (N+2)×(N+2) cell grid and
// samples each cell by majority vote over a 3×3 sub-grid. ok is false when
// the solid border does not check out, which rejects both noise quads and
// the inner-edge contour of a real marker.
func sampleGrid(bm *bitmap, quad [4]Point, n int) (Matrix, bool) {
	cells := float64(n + 2)
	canonical := [4]Point{{0, 0}, {cells, 0}, {cells, cells}, {0, cells}}
	h, ok := homography(canonical, quad)
	if !ok {
		return Matrix{}, false
	}

	dark := func(cx, cy float64) bool {
		votes := 0
		for _, dy := range []float64{-0.2, 0, 0.2} {
			for _, dx := range []float64{-0.2, 0, 0.2} {
				p := project(h, Point{cx + dx, cy + dy})
				if bm.at(int(p.X+0.5), int(p.Y+0.5)) {
					votes++
				}
			}
		}
		return votes >= 5
	}

	// Border check: every border cell must sample dark.
	total := n + 2
	misses := 0
	for i := 0; i < total; i++ {
		for _, cell := range [][2]int{{i, 0}, {i, total - 1}, {0, i}, {total - 1, i}} {
			if !dark(float64(cell[0])+0.5, float64(cell[1])+0.5) {
				misses++
			}
		}
	}
	if misses > 1 {
		return Matrix{}, false
	}

	m := NewMatrix(n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			// Payload rows map to grid y, columns to grid x; white = true.
			m.Set(r, c, !dark(float64(c)+1.5, float64(r)+1.5))
		}
	}
	return m, true
}

// refineCorners replaces each approximate corner with the intersection of
// least-squares lines fitted to the contour runs on its two adjacent edges,
// giving sub-pixel estimates. Corners whose edges are too short to fit keep
// their pixel-accurate position.
func refineCorners(contour []Point, quad [4]Point, cornerIdx [4]int) [4]Point {
	n := len(contour)
	lines := make([]line, 4)
	usable := true
	for i := 0; i < 4; i++ {
		a, b := cornerIdx[i], cornerIdx[(i+1)%4]
		span := b - a
		if span < 0 {
			span += n
		}
		// Inset the run to keep corner pixels out of the fit.
		inset := span / 6
		if span-2*inset < 4 {
			usable = false
			break
		}
		pts := make([]Point, 0, span-2*inset)
		for k := inset; k <= span-inset; k++ {
			pts = append(pts, contour[(a+k)%n])
		}
		l, ok := fitLine(pts)
		if !ok {
			usable = false
			break
		}
		lines[i] = l
	}
	if !usable {
		return quad
	}

	var out [4]Point
	for i := 0; i < 4; i++ {
		// Corner i+1 is the meeting of edge i and edge i+1.
		p, ok := intersect(lines[i], lines[(i+1)%4])
		if !ok || p.dist(quad[(i+1)%4]) > 5 {
			return quad
		}
		out[(i+1)%4] = p
	}
	return out
}

// line is nx*x + ny*y = c with (nx, ny) unit normal.
type line struct {
	nx, ny, c float64
}

// fitLine computes a total least-squares line through the points using the
// principal direction of their covariance.
func fitLine(pts []Point) (line, bool) {
	if len(pts) < 2 {
		return line{}, false
	}
	var mx, my float64
	for _, p := range pts {
		mx += p.X
		my += p.Y
	}
	mx /= float64(len(pts))
	my /= float64(len(pts))

	var sxx, syy, sxy float64
	for _, p := range pts {
		dx, dy := p.X-mx, p.Y-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 && syy == 0 {
		return line{}, false
	}

	// Largest-eigenvector angle of the 2×2 covariance matrix.
	theta := 0.5 * math.Atan2(2*sxy, sxx-syy)
	dirX, dirY := math.Cos(theta), math.Sin(theta)
	// If the orthogonal direction explains more variance, flip.
	if dirX*dirX*sxx+2*dirX*dirY*sxy+dirY*dirY*syy <
		dirY*dirY*sxx-2*dirX*dirY*sxy+dirX*dirX*syy {
		dirX, dirY = -dirY, dirX
	}
	nx, ny := -dirY, dirX
	return line{nx: nx, ny: ny, c: nx*mx + ny*my}, true
}

func intersect(a, b line) (Point, bool) {
	det := a.nx*b.ny - a.ny*b.nx
	if det == 0 {
		return Point{}, false
	}
	return Point{
		X: (a.c*b.ny - a.ny*b.c) / det,
		Y: (a.nx*b.c - a.c*b.nx) / det,
	}, true
}
