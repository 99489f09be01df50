// Package calib verifies registration between a printed sheet and its
// digital layout. A photograph or scan of the sheet is searched for the
// four corner fiducials; an affine fit from detected marker centers to
// expected grid-cell centers then yields millimeter-level registration
// error per corner.
//
// This is an offline verification tool, not a runtime dependency of
// rendering.
package calib

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/marker"
	"github.com/cardforge/cardforge/pkg/sheet"
)

// CornerError is the registration result for one layout corner.
type CornerError struct {
	Identity  int
	Detected  bool
	ErrorMm   float64 // residual after the affine fit
	PhotoX    float64 // detected center in photo pixels
	PhotoY    float64
	ExpectedX float64 // expected center in sheet pixels
	ExpectedY float64
}

// Report summarizes a calibration check.
type Report struct {
	Corners []CornerError
	Found   int
	RMSMm   float64
}

// Verify detects the corner fiducials in a photographed sheet and reports
// the registration error against the expected grid geometry. At least three
// corners must be found to fit the transform.
func Verify(photo image.Image, grid sheet.Grid, pxPerMm float64) (Report, error) {
	return VerifyWithDictionary(photo, grid, pxPerMm, marker.DefaultDictionary())
}

// VerifyWithDictionary is Verify against a caller-supplied dictionary.
func VerifyWithDictionary(photo image.Image, grid sheet.Grid, pxPerMm float64, dict *marker.Dictionary) (Report, error) {
	if pxPerMm <= 0 {
		return Report{}, errors.New(errors.ErrCodeInvalidInput, "pxPerMm must be positive")
	}

	dets := marker.DetectWithDictionary(photo, dict)
	set := marker.AssignCorners(dets, marker.MinCornerArea)

	corners := []struct {
		det *marker.Detection
		mc  sheet.MarkerCell
	}{
		{set.TopLeft, grid.MarkerCells()[0]},
		{set.TopRight, grid.MarkerCells()[1]},
		{set.BottomLeft, grid.MarkerCells()[2]},
		{set.BottomRight, grid.MarkerCells()[3]},
	}

	report := Report{Found: set.Found()}

	// Point pairs for the fit: photo center -> expected sheet center.
	var src, dst []point
	for _, c := range corners {
		ex, ey := grid.CellCenter(c.mc.Col, c.mc.Row)
		ce := CornerError{Identity: c.mc.Identity, ExpectedX: ex, ExpectedY: ey}
		if c.det != nil && c.det.ID == c.mc.Identity {
			ce.Detected = true
			center := c.det.Center()
			ce.PhotoX, ce.PhotoY = center.X, center.Y
			src = append(src, point{center.X, center.Y})
			dst = append(dst, point{ex, ey})
		}
		report.Corners = append(report.Corners, ce)
	}

	if len(src) < 3 {
		return report, errors.New(errors.ErrCodeNotFound,
			"need at least 3 corner fiducials to fit, found %d", len(src))
	}

	fit, ok := fitAffine(src, dst)
	if !ok {
		return report, errors.New(errors.ErrCodeInternal, "affine fit is degenerate")
	}

	// Residuals in sheet space, converted to millimeters.
	var sumSq float64
	n := 0
	for i := range report.Corners {
		ce := &report.Corners[i]
		if !ce.Detected {
			continue
		}
		mapped := fit.apply(point{ce.PhotoX, ce.PhotoY})
		dx := mapped.x - ce.ExpectedX
		dy := mapped.y - ce.ExpectedY
		ce.ErrorMm = math.Hypot(dx, dy) / pxPerMm
		sumSq += ce.ErrorMm * ce.ErrorMm
		n++
	}
	report.RMSMm = math.Sqrt(sumSq / float64(n))
	return report, nil
}

type point struct{ x, y float64 }

// affine is x' = a*x + b*y + c, y' = d*x + e*y + f.
type affine struct{ a, b, c, d, e, f float64 }

func (t affine) apply(p point) point {
	return point{t.a*p.x + t.b*p.y + t.c, t.d*p.x + t.e*p.y + t.f}
}

// fitAffine computes the least-squares affine transform mapping src onto
// dst. Three or more point pairs give an overdetermined system solved by
// QR.
func fitAffine(src, dst []point) (affine, bool) {
	n := len(src)
	a := mat.NewDense(2*n, 6, nil)
	b := mat.NewVecDense(2*n, nil)
	for i := 0; i < n; i++ {
		a.SetRow(2*i, []float64{src[i].x, src[i].y, 1, 0, 0, 0})
		a.SetRow(2*i+1, []float64{0, 0, 0, src[i].x, src[i].y, 1})
		b.SetVec(2*i, dst[i].x)
		b.SetVec(2*i+1, dst[i].y)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return affine{}, false
	}
	return affine{
		a: x.AtVec(0), b: x.AtVec(1), c: x.AtVec(2),
		d: x.AtVec(3), e: x.AtVec(4), f: x.AtVec(5),
	}, true
}
