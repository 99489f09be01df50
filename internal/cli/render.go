package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardforge/cardforge/pkg/render"
	"github.com/cardforge/cardforge/pkg/template"
)

const defaultPNGScale = 4.0 // raster density for PNG export

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output string  // output file path; derived from template name when empty
	data   string  // card data JSON file
	format string  // svg, pdf, or png; derived from the output extension when empty
	scale  float64 // raster scale factor for PNG output
}

// renderCommand creates the render command. It loads a template, binds the
// card data into it, and writes the result as SVG, PDF, or PNG.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{scale: defaultPNGScale}

	cmd := &cobra.Command{
		Use:   "render [template-id]",
		Short: "Render a template with card data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (extension selects the format)")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "card data JSON file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), pdf, png")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "raster scale for png output")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, id string, opts *renderOpts) error {
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
	logger.Infof("Rendering %q: %d fields", tpl.Name, len(tpl.Fields))

	data, err := loadCardData(opts.data)
	if err != nil {
		return err
	}

	r := c.newRenderer(logger)
	result, err := r.RenderPass(ctx, tpl, data)
	if err != nil {
		return err
	}

	format, path, err := resolveOutput(opts.format, opts.output, tpl.Name)
	if err != nil {
		return err
	}

	out := result.Doc
	switch format {
	case "svg":
	case "pdf":
		out, err = render.ToPDF(ctx, result.Doc)
	case "png":
		out, err = render.ToPNG(ctx, result.Doc, opts.scale)
	}
	if err != nil {
		return err
	}

	f, err := openOutput(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(out); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Rendered %q", tpl.Name))
	printFile(path)
	return nil
}

// loadCardData reads a card data JSON file. An empty path yields empty data,
// which renders the template with its defaults.
func loadCardData(path string) (template.CardData, error) {
	if path == "" {
		return template.CardData{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data template.CardData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode card data %s: %w", path, err)
	}
	return data, nil
}

// validRenderFormats is the set of supported single-card output formats.
var validRenderFormats = map[string]bool{"svg": true, "pdf": true, "png": true}

// resolveOutput reconciles the --format and --output flags. The explicit
// format wins; otherwise the output extension decides; otherwise svg.
func resolveOutput(format, output, name string) (string, string, error) {
	if format == "" {
		if ext := strings.TrimPrefix(filepath.Ext(output), "."); ext != "" {
			format = ext
		} else {
			format = "svg"
		}
	}
	if !validRenderFormats[format] {
		return "", "", fmt.Errorf("invalid format: %s (must be 'svg', 'pdf', or 'png')", format)
	}
	if output == "" {
		output = name + "." + format
	}
	return format, output, nil
}
