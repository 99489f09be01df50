package marker

import "math"

// Point is a sub-pixel image coordinate.
type Point struct {
	X, Y float64
}

func (p Point) add(q Point) Point      { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) sub(q Point) Point      { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) scale(s float64) Point  { return Point{p.X * s, p.Y * s} }
func (p Point) dist(q Point) float64   { return math.Hypot(p.X-q.X, p.Y-q.Y) }
func cross(o, a, b Point) float64      { return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X) }

// polygonArea returns the absolute shoelace area of a closed polygon.
func polygonArea(pts []Point) float64 {
	sum := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// isConvexQuad reports whether the four points form a convex quadrilateral
// (all cross products share a sign).
func isConvexQuad(q [4]Point) bool {
	pos, neg := false, false
	for i := 0; i < 4; i++ {
		c := cross(q[i], q[(i+1)%4], q[(i+2)%4])
		if c > 0 {
			pos = true
		}
		if c < 0 {
			neg = true
		}
	}
	return pos != neg
}

// clockwise reorders a convex quad to clockwise winding in image
// coordinates (y grows downward), starting from its current first vertex.
func clockwise(q [4]Point) [4]Point {
	// Edge sum negative means clockwise in a y-down frame.
	sum := 0.0
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += (q[j].X - q[i].X) * (q[j].Y + q[i].Y)
	}
	if sum < 0 {
		return q
	}
	return [4]Point{q[0], q[3], q[2], q[1]}
}

// centroid returns the mean of the four corners.
func centroid(q [4]Point) Point {
	var c Point
	for _, p := range q {
		c = c.add(p)
	}
	return c.scale(0.25)
}

// boundingBoxArea returns the area of the axis-aligned bounding box of the
// corners. Used to discard line-noise detections before corner assignment.
func boundingBoxArea(q [4]Point) float64 {
	minX, minY := q[0].X, q[0].Y
	maxX, maxY := q[0].X, q[0].Y
	for _, p := range q[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return (maxX - minX) * (maxY - minY)
}
