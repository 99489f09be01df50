package sheet

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/marker"
)

// solidCard returns a renderer producing solid-color cards and recording
// which cells were requested.
func solidCard(mu *sync.Mutex, seen map[int]bool) CardRenderer {
	return func(ctx context.Context, cell int) (image.Image, error) {
		mu.Lock()
		seen[cell] = true
		mu.Unlock()
		img := image.NewRGBA(image.Rect(0, 0, 50, 50))
		for y := 0; y < 50; y++ {
			for x := 0; x < 50; x++ {
				img.Set(x, y, color.RGBA{R: 220, G: 40, B: 40, A: 255})
			}
		}
		return img, nil
	}
}

func TestCompose(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]bool)

	params := Params{
		WidthMm:  80,
		HeightMm: 60,
		PxPerMm:  10,
		Cols:     4,
		Rows:     3,
		GapMm:    2,
		MarginMm: 5,
	}
	img, grid, err := Compose(context.Background(), params, solidCard(&mu, seen))
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if img.Bounds().Dx() != 800 || img.Bounds().Dy() != 600 {
		t.Errorf("sheet size = %v, want 800x600", img.Bounds())
	}

	// Four corner cells are fiducials, the other eight carry cards,
	// numbered contiguously.
	if len(seen) != 8 {
		t.Errorf("%d cells rendered, want 8", len(seen))
	}
	for cell := 0; cell < 8; cell++ {
		if !seen[cell] {
			t.Errorf("cell %d never requested", cell)
		}
	}

	// A card cell center is card-colored; the sheet margin stays white.
	cx, cy := grid.CellCenter(1, 0) // (1,0) is not a marker cell
	r, _, _, _ := img.At(int(cx), int(cy)).RGBA()
	if r>>8 != 220 {
		t.Errorf("card pixel red = %d, want 220", r>>8)
	}
	r, g, b, _ := img.At(2, 2).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Error("margin pixel not white")
	}
}

func TestComposeMarkersDetectable(t *testing.T) {
	params := Params{
		WidthMm:  80,
		HeightMm: 60,
		PxPerMm:  10,
		Cols:     4,
		Rows:     3,
		GapMm:    2,
		MarginMm: 5,
	}
	img, grid, err := Compose(context.Background(), params, func(ctx context.Context, cell int) (image.Image, error) {
		return nil, nil // blank cards keep the scene clean
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	dets := marker.Detect(img)
	if len(dets) != 4 {
		t.Fatalf("%d markers detected on composed sheet, want 4", len(dets))
	}

	set := marker.AssignCorners(dets, marker.MinCornerArea)
	if set.Found() != 4 {
		t.Fatalf("AssignCorners found %d corners", set.Found())
	}

	// Identities land where the grid placed them.
	checks := []struct {
		det      *marker.Detection
		identity int
		col, row int
	}{
		{set.TopLeft, 0, 0, 0},
		{set.TopRight, 1, grid.Cols - 1, 0},
		{set.BottomLeft, 2, 0, grid.Rows - 1},
		{set.BottomRight, 3, grid.Cols - 1, grid.Rows - 1},
	}
	for _, c := range checks {
		if c.det.ID != c.identity {
			t.Errorf("corner (%d, %d) decoded identity %d, want %d", c.col, c.row, c.det.ID, c.identity)
		}
		wantX, wantY := grid.CellCenter(c.col, c.row)
		center := c.det.Center()
		// The marker fills the cell from its top-left, so its center sits
		// within the cell even if not exactly at the cell center.
		rect := grid.CellRect(c.col, c.row)
		if center.X < rect.X || center.X > rect.X+rect.W || center.Y < rect.Y || center.Y > rect.Y+rect.H {
			t.Errorf("identity %d center %+v outside cell at (%v, %v)", c.identity, center, wantX, wantY)
		}
	}
}

func TestComposeRejectsImpossibleGrid(t *testing.T) {
	_, _, err := Compose(context.Background(), Params{
		WidthMm: 10, HeightMm: 10, PxPerMm: 10,
		Cols: 2, Rows: 2, MarginMm: 8,
	}, func(ctx context.Context, cell int) (image.Image, error) {
		return nil, nil
	})
	if err == nil {
		t.Fatal("Compose() error = nil for an impossible grid")
	}
	if !errors.Is(err, errors.ErrCodeInvalidGrid) {
		t.Errorf("code = %v, want INVALID_GRID", errors.GetCode(err))
	}
}

func TestComposeCardErrorPropagates(t *testing.T) {
	renderErr := errors.New(errors.ErrCodeInternal, "render blew up")
	_, _, err := Compose(context.Background(), Params{
		WidthMm: 80, HeightMm: 60, PxPerMm: 10,
		Cols: 4, Rows: 3, GapMm: 2, MarginMm: 5,
	}, func(ctx context.Context, cell int) (image.Image, error) {
		return nil, renderErr
	})
	if err == nil {
		t.Fatal("Compose() error = nil, want card error")
	}
}
