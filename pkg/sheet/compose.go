package sheet

import (
	"context"
	"image"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"
	xdraw "golang.org/x/image/draw"

	"github.com/cardforge/cardforge/pkg/canonical"
	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/marker"
)

// CardRenderer draws the card for one grid cell. cell counts card cells
// (fiducial cells excluded) left-to-right, top-to-bottom. The returned
// image is scaled into the cell, so renderers may draw at any resolution.
type CardRenderer func(ctx context.Context, cell int) (image.Image, error)

// Params configures one sheet composition.
type Params struct {
	WidthMm  float64
	HeightMm float64
	PxPerMm  float64 // defaults to canonical.DefaultPxPerMm
	Cols     int
	Rows     int
	GapMm    float64
	MarginMm float64

	// Dict supplies the fiducial patterns; nil means the default
	// dictionary.
	Dict *marker.Dictionary

	Logger *log.Logger
}

// Compose renders a full sheet: background fill, one card per non-fiducial
// cell, then the four corner fiducials. Later draws may overlap earlier
// ones but are never clipped by grid bounds, so markers stay fully inside
// the sheet even under rounding.
func Compose(ctx context.Context, p Params, renderCard CardRenderer) (image.Image, Grid, error) {
	if p.PxPerMm <= 0 {
		p.PxPerMm = canonical.DefaultPxPerMm
	}
	logger := p.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	dict := p.Dict
	if dict == nil {
		dict = marker.DefaultDictionary()
	}

	sheetW := canonical.MmToPx(p.WidthMm, p.PxPerMm)
	sheetH := canonical.MmToPx(p.HeightMm, p.PxPerMm)
	grid, err := ComputeGrid(sheetW, sheetH,
		p.Cols, p.Rows,
		canonical.MmToPx(p.GapMm, p.PxPerMm),
		canonical.MmToPx(p.MarginMm, p.PxPerMm))
	if err != nil {
		return nil, Grid{}, err
	}

	// Card cells in compositing order.
	type placement struct {
		rect Rect
		cell int
	}
	var cards []placement
	cell := 0
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			if grid.IsMarkerCell(col, row) {
				continue
			}
			cards = append(cards, placement{rect: grid.CellRect(col, row), cell: cell})
			cell++
		}
	}

	// Fan out card rendering; compositing below keeps the declared order.
	rendered := make([]image.Image, len(cards))
	g, gctx := errgroup.WithContext(ctx)
	for i, pl := range cards {
		i, pl := i, pl
		g.Go(func() error {
			img, err := renderCard(gctx, pl.cell)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "card %d", pl.cell)
			}
			rendered[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Grid{}, err
	}

	dc := gg.NewContext(int(math.Round(sheetW)), int(math.Round(sheetH)))
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for i, pl := range cards {
		if rendered[i] == nil {
			continue
		}
		drawInto(dc.Image().(*image.RGBA), rendered[i], pl.rect, xdraw.CatmullRom)
	}

	markers := 0
	for _, mc := range grid.MarkerCells() {
		pattern, err := dict.Encode(mc.Identity)
		if err != nil {
			return nil, Grid{}, err
		}
		rect := grid.CellRect(mc.Col, mc.Row)
		cellPx := int(rect.W) / (dict.N + 2)
		if cellPx < 1 {
			return nil, Grid{}, errors.New(errors.ErrCodeInvalidGrid,
				"grid cell %.1fpx too small for a legible fiducial", rect.W)
		}
		raster := marker.Render(pattern, cellPx)
		// Nearest neighbor only: anti-aliased edges would corrupt the
		// decoder's bit sampling.
		drawInto(dc.Image().(*image.RGBA), raster, rect, xdraw.NearestNeighbor)
		markers++
	}

	logger.Debug("composed sheet",
		"cards", len(cards), "markers", markers,
		"cell_px", grid.Cell)

	return dc.Image(), grid, nil
}

// drawInto scales src into the destination rectangle. The rectangle is
// rounded outward as little as possible; draws are clipped by the sheet
// only, never by grid bounds.
func drawInto(dst *image.RGBA, src image.Image, r Rect, kernel xdraw.Interpolator) {
	dr := image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.W)), int(math.Round(r.Y+r.H)),
	)
	kernel.Scale(dst, dr, src, src.Bounds(), xdraw.Over, nil)
}
