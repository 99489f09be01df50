package marker

// traceContours extracts the boundaries of dark regions using
// Moore-neighbor tracing. Only contours with at least minLen boundary
// pixels are returned; shorter ones are line noise at any usable marker
// size.
func traceContours(b *bitmap, minLen int) [][]Point {
	visited := make([]bool, b.w*b.h)
	var contours [][]Point

	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			if !b.at(x, y) || b.at(x-1, y) || visited[y*b.w+x] {
				continue
			}
			c := traceFrom(b, visited, x, y)
			if len(c) >= minLen {
				contours = append(contours, c)
			}
		}
	}
	return contours
}

// dirs8 enumerates the 8-neighborhood clockwise in image coordinates
// (y grows downward), starting at west.
var dirs8 = [8][2]int{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

func dirIndex(dx, dy int) int {
	for i, d := range dirs8 {
		if d[0] == dx && d[1] == dy {
			return i
		}
	}
	return 0
}

// traceFrom walks the boundary starting at (sx, sy), whose west neighbor is
// known to be light. The walk terminates when it re-enters the start pixel
// from the same direction it originally left, or after a safety cap.
func traceFrom(b *bitmap, visited []bool, sx, sy int) []Point {
	var contour []Point

	cx, cy := sx, sy
	// Backtrack starts at the light west neighbor.
	bx, by := sx-1, sy

	contour = append(contour, Point{float64(cx), float64(cy)})
	visited[cy*b.w+cx] = true

	limit := 4 * (b.w + b.h) * 4 // generous perimeter cap

	for step := 0; step < limit; step++ {
		start := dirIndex(bx-cx, by-cy)
		found := false
		for k := 1; k <= 8; k++ {
			i := (start + k) % 8
			nx, ny := cx+dirs8[i][0], cy+dirs8[i][1]
			if b.at(nx, ny) {
				// New backtrack is the last light neighbor considered.
				j := (start + k - 1) % 8
				bx, by = cx+dirs8[j][0], cy+dirs8[j][1]
				cx, cy = nx, ny
				found = true
				break
			}
		}
		if !found {
			// Isolated pixel.
			return contour
		}
		if cx == sx && cy == sy {
			return contour
		}
		contour = append(contour, Point{float64(cx), float64(cy)})
		visited[cy*b.w+cx] = true
	}
	return contour
}
