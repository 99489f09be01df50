package cli

import (
	"fmt"
	"image"
	_ "image/jpeg" // photographed sheets commonly arrive as JPEG
	_ "image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardforge/cardforge/pkg/calib"
	"github.com/cardforge/cardforge/pkg/canonical"
	"github.com/cardforge/cardforge/pkg/sheet"
)

// calibrateOpts holds the command-line flags for the calibrate command.
// The grid geometry must match the one used when the sheet was composed.
type calibrateOpts struct {
	cols    int
	rows    int
	gap     float64
	margin  float64
	width   float64
	height  float64
	pxPerMm float64
	maxErr  float64 // acceptance threshold in mm
}

// calibrateCommand creates the calibrate command. It detects the corner
// fiducials in a scanned or photographed sheet and reports the registration
// error of each corner against the expected layout geometry.
func (c *CLI) calibrateCommand() *cobra.Command {
	var opts calibrateOpts

	cmd := &cobra.Command{
		Use:   "calibrate [photo]",
		Short: "Measure registration error on a printed sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyCalibrateDefaults(cmd, &opts,
				cfg.Sheet.WidthMm, cfg.Sheet.HeightMm, cfg.Sheet.PxPerMm,
				cfg.Grid.Cols, cfg.Grid.Rows, cfg.Grid.GapMm, cfg.Grid.MarginMm)
			return c.runCalibrate(cmd, args[0], &opts)
		},
	}

	cmd.Flags().IntVar(&opts.cols, "cols", 0, "grid columns")
	cmd.Flags().IntVar(&opts.rows, "rows", 0, "grid rows")
	cmd.Flags().Float64Var(&opts.gap, "gap", -1, "cell gap in mm")
	cmd.Flags().Float64Var(&opts.margin, "margin", -1, "outer margin in mm")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "sheet width in mm")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "sheet height in mm")
	cmd.Flags().Float64Var(&opts.pxPerMm, "px-per-mm", 0, "raster density in pixels per mm")
	cmd.Flags().Float64Var(&opts.maxErr, "max-error", 0.5, "acceptable per-corner error in mm")

	return cmd
}

func applyCalibrateDefaults(cmd *cobra.Command, opts *calibrateOpts, w, h, ppm float64, cols, rows int, gap, margin float64) {
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

func (c *CLI) runCalibrate(cmd *cobra.Command, input string, opts *calibrateOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	photo, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", input, err)
	}

	grid, err := sheet.ComputeGrid(
		canonical.MmToPx(opts.width, opts.pxPerMm),
		canonical.MmToPx(opts.height, opts.pxPerMm),
		opts.cols, opts.rows,
		canonical.MmToPx(opts.gap, opts.pxPerMm),
		canonical.MmToPx(opts.margin, opts.pxPerMm))
	if err != nil {
		return err
	}

	logger.Infof("Detecting fiducials in %s", input)
	report, err := calib.Verify(photo, grid, opts.pxPerMm)
	if err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Found %d of %d corners", report.Found, len(report.Corners)))
	for _, corner := range report.Corners {
		label := fmt.Sprintf("corner %d", corner.Identity)
		if !corner.Detected {
			printWarning("%s: not detected", label)
			continue
		}
		line := fmt.Sprintf("%s: %.3f mm at (%.1f, %.1f)", label, corner.ErrorMm, corner.PhotoX, corner.PhotoY)
		if corner.ErrorMm > opts.maxErr {
			printWarning("%s", line)
		} else {
			printDetail("%s", line)
		}
	}
	printKeyValue("rms", fmt.Sprintf("%.3f mm", report.RMSMm))

	if report.RMSMm > opts.maxErr {
		printError("Registration error exceeds %.2f mm, re-check printer scaling", opts.maxErr)
		return fmt.Errorf("registration error %.3f mm exceeds %.2f mm", report.RMSMm, opts.maxErr)
	}
	printSuccess("Sheet registration within %.2f mm", opts.maxErr)
	return nil
}
