package marker

// CornerSet assigns detections to the four corners of a printed layout.
// A nil entry means no detection classified to that corner.
type CornerSet struct {
	TopLeft     *Detection
	TopRight    *Detection
	BottomLeft  *Detection
	BottomRight *Detection
}

// Found counts the assigned corners.
func (s CornerSet) Found() int {
	n := 0
	for _, d := range []*Detection{s.TopLeft, s.TopRight, s.BottomLeft, s.BottomRight} {
		if d != nil {
			n++
		}
	}
	return n
}

// MinCornerArea is the default bounding-box area threshold below which a
// detection is treated as line noise.
const MinCornerArea = 100.0

// AssignCorners classifies detections by position on the sheet:
// top-left minimizes x+y, top-right maximizes x-y, bottom-left maximizes
// y-x, bottom-right maximizes x+y. Ties keep the first detection in scan
// order. Detections whose bounding-box area is below minArea are discarded
// before classification.
func AssignCorners(dets []Detection, minArea float64) CornerSet {
	var set CornerSet
	var tl, tr, bl, br float64

	for i := range dets {
		d := &dets[i]
		if boundingBoxArea(d.Corners) < minArea {
			continue
		}
		c := d.Center()
		if set.TopLeft == nil || c.X+c.Y < tl {
			set.TopLeft, tl = d, c.X+c.Y
		}
		if set.TopRight == nil || c.X-c.Y > tr {
			set.TopRight, tr = d, c.X-c.Y
		}
		if set.BottomLeft == nil || c.Y-c.X > bl {
			set.BottomLeft, bl = d, c.Y-c.X
		}
		if set.BottomRight == nil || c.X+c.Y > br {
			set.BottomRight, br = d, c.X+c.Y
		}
	}
	return set
}
