// Package sheet implements the print-layout engine: exact N-up grid
// placement of rendered cards on a physical sheet, with fiducial markers at
// known grid cells for optical registration.
package sheet

import (
	"github.com/cardforge/cardforge/pkg/errors"
)

// Grid is the derived placement geometry of an N-up layout. It is computed,
// never stored: cell size and offsets stay floating point so accumulated
// rounding error across many cells remains under one device pixel.
type Grid struct {
	Cols, Rows int
	Cell       float64 // square cell side
	Gap        float64
	Margin     float64
	OffsetX    float64 // grid origin, centering the grid on the sheet
	OffsetY    float64
	SheetW     float64
	SheetH     float64
}

// Rect is an axis-aligned placement rectangle.
type Rect struct {
	X, Y, W, H float64
}

// ComputeGrid derives the centered grid for a sheet. All parameters share
// one unit (millimeters or pixels; the grid does not care).
//
// The cell side is the minimum of the width-constrained and
// height-constrained candidates, so the grid overflows in neither axis; the
// whole grid is then centered with floating-point offsets.
func ComputeGrid(sheetW, sheetH float64, cols, rows int, gap, margin float64) (Grid, error) {
	if cols < 1 || rows < 1 {
		return Grid{}, errors.New(errors.ErrCodeInvalidGrid, "grid must have at least one cell, got %dx%d", cols, rows)
	}
	if sheetW <= 0 || sheetH <= 0 {
		return Grid{}, errors.New(errors.ErrCodeInvalidGrid, "sheet dimensions must be positive, got %gx%g", sheetW, sheetH)
	}
	if gap < 0 || margin < 0 {
		return Grid{}, errors.New(errors.ErrCodeInvalidGrid, "gap and margin cannot be negative")
	}

	availW := sheetW - 2*margin - float64(cols-1)*gap
	availH := sheetH - 2*margin - float64(rows-1)*gap
	if availW <= 0 || availH <= 0 {
		return Grid{}, errors.New(errors.ErrCodeInvalidGrid,
			"grid %dx%d with gap %g and margin %g does not fit %gx%g sheet",
			cols, rows, gap, margin, sheetW, sheetH)
	}

	byWidth := availW / float64(cols)
	byHeight := availH / float64(rows)
	cell := byWidth
	if byHeight < cell {
		cell = byHeight
	}

	totalW := float64(cols)*cell + float64(cols-1)*gap
	totalH := float64(rows)*cell + float64(rows-1)*gap

	return Grid{
		Cols: cols, Rows: rows,
		Cell: cell, Gap: gap, Margin: margin,
		OffsetX: (sheetW - totalW) / 2,
		OffsetY: (sheetH - totalH) / 2,
		SheetW:  sheetW, SheetH: sheetH,
	}, nil
}

// CellRect returns the placement of the cell at (col, row).
func (g Grid) CellRect(col, row int) Rect {
	return Rect{
		X: g.OffsetX + float64(col)*(g.Cell+g.Gap),
		Y: g.OffsetY + float64(row)*(g.Cell+g.Gap),
		W: g.Cell,
		H: g.Cell,
	}
}

// CellCenter returns the center point of the cell at (col, row).
func (g Grid) CellCenter(col, row int) (float64, float64) {
	r := g.CellRect(col, row)
	return r.X + r.W/2, r.Y + r.H/2
}

// Width is the grid's total extent along x, excluding margins.
func (g Grid) Width() float64 {
	return float64(g.Cols)*g.Cell + float64(g.Cols-1)*g.Gap
}

// Height is the grid's total extent along y, excluding margins.
func (g Grid) Height() float64 {
	return float64(g.Rows)*g.Cell + float64(g.Rows-1)*g.Gap
}

// MarkerCell identifies one fiducial cell and its dictionary identity.
type MarkerCell struct {
	Col, Row int
	Identity int
}

// MarkerCells returns the four corner cells of the grid with their fixed
// identities: 0 top-left, 1 top-right, 2 bottom-left, 3 bottom-right.
// Distinct identities keep the corners individually distinguishable after
// detection.
func (g Grid) MarkerCells() []MarkerCell {
	return []MarkerCell{
		{Col: 0, Row: 0, Identity: 0},
		{Col: g.Cols - 1, Row: 0, Identity: 1},
		{Col: 0, Row: g.Rows - 1, Identity: 2},
		{Col: g.Cols - 1, Row: g.Rows - 1, Identity: 3},
	}
}

// IsMarkerCell reports whether (col, row) is one of the fiducial cells.
func (g Grid) IsMarkerCell(col, row int) bool {
	for _, m := range g.MarkerCells() {
		if m.Col == col && m.Row == row {
			return true
		}
	}
	return false
}
