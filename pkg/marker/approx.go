package marker

import "math"

// approxQuad reduces a closed contour to four corner points using
// Douglas-Peucker simplification. ok is false when the contour does not
// simplify to a convex quadrilateral. cornerIdx holds the contour indices
// of the chosen corners, used later for sub-pixel refinement.
func approxQuad(contour []Point) (quad [4]Point, cornerIdx [4]int, ok bool) {
	if len(contour) < 8 {
		return quad, cornerIdx, false
	}

	perimeter := 0.0
	for i := range contour {
		perimeter += contour[i].dist(contour[(i+1)%len(contour)])
	}

	// A square's corners survive simplification at a few percent of the
	// perimeter while edge jitter does not.
	idx := simplifyClosed(contour, 0.04*perimeter)
	if len(idx) != 4 {
		return quad, cornerIdx, false
	}

	for i, ci := range idx {
		quad[i] = contour[ci]
		cornerIdx[i] = ci
	}
	if !isConvexQuad(quad) {
		return quad, cornerIdx, false
	}
	return quad, cornerIdx, true
}

// simplifyClosed runs Douglas-Peucker on a closed curve. The curve is split
// at its two mutually farthest points, each half simplified independently.
// Returned values are indices into the input, in traversal order.
func simplifyClosed(pts []Point, epsilon float64) []int {
	// Anchor at the two farthest-apart points; both are necessarily
	// retained by any reasonable simplification of a closed curve.
	a, b := farthestPair(pts)
	if a > b {
		a, b = b, a
	}

	var out []int
	out = append(out, a)
	out = append(out, dpSegment(pts, a, b, epsilon)...)
	out = append(out, b)
	// Second half wraps around the end of the slice.
	out = append(out, dpSegmentWrapped(pts, b, a+len(pts), epsilon)...)
	return out
}

func farthestPair(pts []Point) (int, int) {
	// The contour sizes here are small enough for the quadratic scan.
	bestA, bestB := 0, 0
	best := -1.0
	step := 1
	if len(pts) > 400 {
		step = len(pts) / 400
	}
	for i := 0; i < len(pts); i += step {
		for j := i + 1; j < len(pts); j += step {
			if d := pts[i].dist(pts[j]); d > best {
				best = d
				bestA, bestB = i, j
			}
		}
	}
	return bestA, bestB
}

// dpSegment simplifies the open polyline pts[a..b] and returns the retained
// interior indices.
func dpSegment(pts []Point, a, b int, epsilon float64) []int {
	if b-a < 2 {
		return nil
	}
	maxDist := -1.0
	maxIdx := -1
	for i := a + 1; i < b; i++ {
		if d := pointLineDist(pts[i], pts[a], pts[b]); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist <= epsilon {
		return nil
	}
	left := dpSegment(pts, a, maxIdx, epsilon)
	right := dpSegment(pts, maxIdx, b, epsilon)
	out := append(left, maxIdx)
	return append(out, right...)
}

// dpSegmentWrapped is dpSegment over indices that wrap past the end of the
// closed contour; returned indices are reduced modulo len(pts).
func dpSegmentWrapped(pts []Point, a, b int, epsilon float64) []int {
	n := len(pts)
	at := func(i int) Point { return pts[i%n] }
	if b-a < 2 {
		return nil
	}
	maxDist := -1.0
	maxIdx := -1
	for i := a + 1; i < b; i++ {
		if d := pointLineDist(at(i), at(a), at(b)); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist <= epsilon {
		return nil
	}
	left := dpSegmentWrapped(pts, a, maxIdx, epsilon)
	right := dpSegmentWrapped(pts, maxIdx, b, epsilon)
	out := append(left, maxIdx%n)
	return append(out, right...)
}

// pointLineDist is the perpendicular distance from p to the line through a
// and b.
func pointLineDist(p, a, b Point) float64 {
	l := a.dist(b)
	if l == 0 {
		return p.dist(a)
	}
	return math.Abs(cross(a, b, p)) / l
}
