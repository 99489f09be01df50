package marker

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
)

// whiteCanvas returns a white image of the given size.
func whiteCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// pasteMarker renders identity id at cellPx and pastes it at (x, y).
func pasteMarker(t *testing.T, dst draw.Image, id, cellPx, x, y int) {
	t.Helper()
	m, err := DefaultDictionary().Encode(id)
	if err != nil {
		t.Fatal(err)
	}
	raster := Render(m, cellPx)
	r := raster.Bounds().Add(image.Pt(x, y))
	draw.Draw(dst, r, raster, image.Point{}, draw.Src)
}

func TestDetectEmptyImage(t *testing.T) {
	if dets := Detect(whiteCanvas(200, 200)); len(dets) != 0 {
		t.Errorf("Detect(blank) = %d detections, want 0", len(dets))
	}
}

func TestDetectSingleMarker(t *testing.T) {
	const (
		cellPx = 20
		offX   = 30
		offY   = 40
	)
	canvas := whiteCanvas(260, 260)
	pasteMarker(t, canvas, 7, cellPx, offX, offY)

	dets := Detect(canvas)
	if len(dets) != 1 {
		t.Fatalf("Detect() = %d detections, want 1", len(dets))
	}
	d := dets[0]
	if d.ID != 7 {
		t.Errorf("ID = %d, want 7", d.ID)
	}

	side := float64((DefaultSize + 2) * cellPx)
	wantCenter := Point{offX + side/2, offY + side/2}
	if got := d.Center(); got.dist(wantCenter) > 2 {
		t.Errorf("Center() = %+v, want near %+v", got, wantCenter)
	}

	// Corners start at the pattern's top-left and run clockwise.
	want := [4]Point{
		{offX, offY},
		{offX + side, offY},
		{offX + side, offY + side},
		{offX, offY + side},
	}
	for i := range want {
		if d.Corners[i].dist(want[i]) > 3 {
			t.Errorf("Corners[%d] = %+v, want near %+v", i, d.Corners[i], want[i])
		}
	}
}

func TestDetectAllIdentities(t *testing.T) {
	const cellPx = 14
	for id := 0; id < DefaultCount; id++ {
		canvas := whiteCanvas(180, 180)
		pasteMarker(t, canvas, id, cellPx, 25, 25)

		dets := Detect(canvas)
		if len(dets) != 1 {
			t.Fatalf("identity %d: %d detections, want 1", id, len(dets))
		}
		if dets[0].ID != id {
			t.Errorf("identity %d decoded as %d", id, dets[0].ID)
		}
	}
}

// rotate90 rotates an image 90 degrees clockwise.
func rotate90(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.Y-1-y, x-b.Min.X, src.At(x, y))
		}
	}
	return dst
}

func TestDetectRotatedMarker(t *testing.T) {
	const cellPx = 20
	canvas := whiteCanvas(260, 300)
	pasteMarker(t, canvas, 11, cellPx, 30, 40)

	upright := Detect(canvas)
	if len(upright) != 1 {
		t.Fatalf("upright: %d detections", len(upright))
	}

	rotated := Detect(rotate90(canvas))
	if len(rotated) != 1 {
		t.Fatalf("rotated: %d detections", len(rotated))
	}
	if rotated[0].ID != 11 {
		t.Errorf("rotated ID = %d, want 11", rotated[0].ID)
	}

	// Corner 0 is pattern-relative, so it tracks the physical corner: the
	// upright TL at (30,40) lands at (imageHeight-1-40, 30) after a
	// clockwise turn.
	wantTL := Point{300 - 1 - 40, 30}
	if got := rotated[0].Corners[0]; got.dist(wantTL) > 4 {
		t.Errorf("rotated Corners[0] = %+v, want near %+v", got, wantTL)
	}
}

func TestDetectMultipleMarkers(t *testing.T) {
	const cellPx = 16
	canvas := whiteCanvas(500, 400)
	positions := map[int]image.Point{
		0: {30, 30},
		1: {340, 30},
		2: {30, 240},
		3: {340, 240},
	}
	for id, p := range positions {
		pasteMarker(t, canvas, id, cellPx, p.X, p.Y)
	}

	dets := Detect(canvas)
	if len(dets) != 4 {
		t.Fatalf("%d detections, want 4", len(dets))
	}

	seen := make(map[int]bool)
	for _, d := range dets {
		if seen[d.ID] {
			t.Errorf("identity %d detected twice", d.ID)
		}
		seen[d.ID] = true
		want := positions[d.ID]
		side := float64((DefaultSize + 2) * cellPx)
		wantCenter := Point{float64(want.X) + side/2, float64(want.Y) + side/2}
		if d.Center().dist(wantCenter) > 2 {
			t.Errorf("identity %d center = %+v, want near %+v", d.ID, d.Center(), wantCenter)
		}
	}
}

func TestAssignCorners(t *testing.T) {
	quad := func(x, y, side float64) [4]Point {
		return [4]Point{{x, y}, {x + side, y}, {x + side, y + side}, {x, y + side}}
	}
	dets := []Detection{
		{ID: 3, Corners: quad(400, 300, 50)}, // bottom-right
		{ID: 0, Corners: quad(10, 10, 50)},   // top-left
		{ID: 2, Corners: quad(10, 300, 50)},  // bottom-left
		{ID: 1, Corners: quad(400, 10, 50)},  // top-right
	}

	set := AssignCorners(dets, MinCornerArea)
	if set.Found() != 4 {
		t.Fatalf("Found() = %d, want 4", set.Found())
	}
	if set.TopLeft.ID != 0 || set.TopRight.ID != 1 || set.BottomLeft.ID != 2 || set.BottomRight.ID != 3 {
		t.Errorf("assignment = TL %d TR %d BL %d BR %d",
			set.TopLeft.ID, set.TopRight.ID, set.BottomLeft.ID, set.BottomRight.ID)
	}
}

func TestAssignCornersAreaFilter(t *testing.T) {
	tiny := Detection{ID: 9, Corners: [4]Point{{0, 0}, {5, 0}, {5, 5}, {0, 5}}}
	big := Detection{ID: 1, Corners: [4]Point{{100, 100}, {150, 100}, {150, 150}, {100, 150}}}

	set := AssignCorners([]Detection{tiny, big}, MinCornerArea)
	if set.Found() != 4 {
		t.Fatalf("Found() = %d, want 4 (one detection claims all corners)", set.Found())
	}
	if set.TopLeft.ID != 1 {
		t.Errorf("tiny detection survived the area filter: TL = %d", set.TopLeft.ID)
	}
}

func TestClockwiseWinding(t *testing.T) {
	// Traversal TL, TR, BR, BL is clockwise in a y-down image frame.
	cw := [4]Point{{30, 40}, {169, 40}, {169, 179}, {30, 179}}
	ccw := [4]Point{{30, 40}, {30, 179}, {169, 179}, {169, 40}}

	if got := clockwise(cw); got != cw {
		t.Errorf("clockwise(cw) = %+v, want unchanged", got)
	}
	if got := clockwise(ccw); got != cw {
		t.Errorf("clockwise(ccw) = %+v, want %+v", got, cw)
	}
}

func TestOtsuSeparatesBimodal(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := uint8(230)
			if x < 5 {
				v = 25
			}
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
	th := otsuThreshold(g)
	if th < 25 || th >= 230 {
		t.Errorf("otsuThreshold = %d, want inside (25, 230)", th)
	}
}

func TestFitLineAndIntersect(t *testing.T) {
	horiz := []Point{{0, 10}, {1, 10}, {2, 10}, {3, 10}, {4, 10}}
	vert := []Point{{20, 0}, {20, 1}, {20, 2}, {20, 3}}

	lh, ok := fitLine(horiz)
	if !ok {
		t.Fatal("fitLine(horizontal) failed")
	}
	lv, ok := fitLine(vert)
	if !ok {
		t.Fatal("fitLine(vertical) failed")
	}

	p, ok := intersect(lh, lv)
	if !ok {
		t.Fatal("intersect failed")
	}
	if math.Abs(p.X-20) > 1e-9 || math.Abs(p.Y-10) > 1e-9 {
		t.Errorf("intersection = %+v, want (20, 10)", p)
	}
}
