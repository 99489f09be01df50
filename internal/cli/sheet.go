package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardforge/cardforge/pkg/render"
	"github.com/cardforge/cardforge/pkg/sheet"
	"github.com/cardforge/cardforge/pkg/template"
)

// sheetOpts holds the command-line flags for the sheet command.
type sheetOpts struct {
	output  string  // output PNG path
	data    string  // JSON array of per-card data
	cols    int     // grid columns
	rows    int     // grid rows
	gap     float64 // cell gap in mm
	margin  float64 // outer margin in mm
	width   float64 // sheet width in mm
	height  float64 // sheet height in mm
	pxPerMm float64 // raster density
	scale   float64 // rsvg raster scale for individual cards
}

// sheetCommand creates the sheet command. It renders one card per data
// record, lays them out on an N-up grid with corner fiducials, and writes
// the composed sheet as a PNG.
//
// Geometry defaults come from the configuration file and can be overridden
// per invocation.
func (c *CLI) sheetCommand() *cobra.Command {
	var opts sheetOpts

	cmd := &cobra.Command{
		Use:   "sheet [template-id]",
		Short: "Compose an N-up print sheet with calibration markers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applySheetDefaults(cmd, &opts, cfg.Sheet.WidthMm, cfg.Sheet.HeightMm, cfg.Sheet.PxPerMm,
				cfg.Grid.Cols, cfg.Grid.Rows, cfg.Grid.GapMm, cfg.Grid.MarginMm)
			return c.runSheet(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "sheet.png", "output PNG file")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "JSON array of per-card data")
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "grid columns")
	cmd.Flags().IntVar(&opts.rows, "rows", 0, "grid rows")
	cmd.Flags().Float64Var(&opts.gap, "gap", -1, "cell gap in mm")
	cmd.Flags().Float64Var(&opts.margin, "margin", -1, "outer margin in mm")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "sheet width in mm")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "sheet height in mm")
	cmd.Flags().Float64Var(&opts.pxPerMm, "px-per-mm", 0, "raster density in pixels per mm")
	cmd.Flags().Float64Var(&opts.scale, "scale", defaultPNGScale, "raster scale for individual cards")

	return cmd
}

// applySheetDefaults fills unset geometry flags from the configuration.
func applySheetDefaults(cmd *cobra.Command, opts *sheetOpts, w, h, ppm float64, cols, rows int, gap, margin float64) {
	if opts.cols == 0 {
		opts.cols = cols
	}
	if opts.rows == 0 {
		opts.rows = rows
	}
	if !cmd.Flags().Changed("gap") {
		opts.gap = gap
	}
	if !cmd.Flags().Changed("margin") {
		opts.margin = margin
	}
	if opts.width == 0 {
		opts.width = w
	}
	if opts.height == 0 {
		opts.height = h
	}
	if opts.pxPerMm == 0 {
		opts.pxPerMm = ppm
	}
}

func (c *CLI) runSheet(cmd *cobra.Command, id string, opts *sheetOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	tpl, err := store.Load(ctx, id)
	if err != nil {
		return err
	}

	cards, err := loadSheetData(opts.data)
	if err != nil {
		return err
	}
	logger.Infof("Composing %dx%d sheet: %d cards", opts.cols, opts.rows, len(cards))

	r := c.newRenderer(logger)
	renderCard := func(ctx context.Context, cell int) (image.Image, error) {
		if cell >= len(cards) {
			return nil, nil // leave trailing cells blank
		}
		result, err := r.RenderPass(ctx, tpl, cards[cell])
		if err != nil {
			return nil, err
		}
		raster, err := render.ToPNG(ctx, result.Doc, opts.scale)
		if err != nil {
			return nil, err
		}
		return png.Decode(bytes.NewReader(raster))
	}

	img, grid, err := sheet.Compose(ctx, sheet.Params{
		WidthMm:  opts.width,
		HeightMm: opts.height,
		PxPerMm:  opts.pxPerMm,
		Cols:     opts.cols,
		Rows:     opts.rows,
		GapMm:    opts.gap,
		MarginMm: opts.margin,
		Logger:   logger,
	}, renderCard)
	if err != nil {
		return err
	}

	f, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Composed %dx%d sheet", grid.Cols, grid.Rows))
	printKeyValue("cell", fmt.Sprintf("%.1f px", grid.Cell))
	printFile(opts.output)
	return nil
}

// loadSheetData reads the per-card data array. An empty path yields a single
// empty record so the sheet still shows the template defaults.
func loadSheetData(path string) ([]template.CardData, error) {
	if path == "" {
		return []template.CardData{{}}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cards []template.CardData
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("decode sheet data %s: %w", path, err)
	}
	return cards, nil
}
