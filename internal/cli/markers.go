package cli

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardforge/cardforge/pkg/marker"
)

// markersCommand creates the markers command group: debug tools for the
// fiducial dictionary and detector.
func (c *CLI) markersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markers",
		Short: "Inspect, render, and detect fiducial markers",
	}

	cmd.AddCommand(c.markersListCommand())
	cmd.AddCommand(c.markersRenderCommand())
	cmd.AddCommand(c.markersDetectCommand())
	cmd.AddCommand(c.markersSearchCommand())

	return cmd
}

func (c *CLI) markersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the marker dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dict := marker.DefaultDictionary()
			printKeyValue("size", fmt.Sprintf("%dx%d", dict.N, dict.N))
			printKeyValue("identities", fmt.Sprintf("%d", len(dict.Words)))
			printKeyValue("min dist", fmt.Sprintf("%d", dict.MinDist))
			return nil
		},
	}
}

func (c *CLI) markersRenderCommand() *cobra.Command {
	var (
		identity int
		cellPx   int
		output   string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one marker pattern as a PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dict := marker.DefaultDictionary()
			pattern, err := dict.Encode(identity)
			if err != nil {
				return err
			}
			img := marker.Render(pattern, cellPx)

			path := output
			if path == "" {
				path = fmt.Sprintf("marker-%d.png", identity)
			}
			f, err := openOutput(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := png.Encode(f, img); err != nil {
				return err
			}
			printFile(path)
			return nil
		},
	}

	cmd.Flags().IntVar(&identity, "id", 0, "marker identity to render")
	cmd.Flags().IntVar(&cellPx, "cell-px", 20, "pixels per pattern cell")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output PNG file (default marker-<id>.png)")

	return cmd
}

func (c *CLI) markersSearchCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search for spare identities beyond the production dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			dict := marker.GenerateDictionary(marker.DefaultSize, marker.DefaultCount)
			base := len(dict.Words)
			added := dict.Extend(count)

			prog.done(fmt.Sprintf("Searched for %d spare identities", count))
			if added < count {
				printWarning("found %d of %d requested", added, count)
			}
			for id := base; id < base+added; id++ {
				printDetail("identity %d available", id)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 4, "spare identities to search for")

	return cmd
}

func (c *CLI) markersDetectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [image]",
		Short: "Detect markers in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			img, _, err := image.Decode(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			logger.Debugf("Scanning %dx%d image", img.Bounds().Dx(), img.Bounds().Dy())
			dets := marker.Detect(img)
			if len(dets) == 0 {
				printWarning("no markers found")
				return nil
			}
			printInfo("%d markers", len(dets))
			for _, d := range dets {
				center := d.Center()
				printDetail("id %-3d at (%.1f, %.1f)", d.ID, center.X, center.Y)
			}
			return nil
		},
	}
}
