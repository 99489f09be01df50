package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardforge/cardforge/pkg/design"
	"github.com/cardforge/cardforge/pkg/template"
)

// importOpts holds the command-line flags for the import command.
type importOpts struct {
	name   string // template name; defaults to the input file base name
	svg    bool   // treat the input as a vector document instead of a design export
	output string // optionally write the compiled document to this path
}

// importCommand creates the import command. It accepts either a visual
// editor design export (JSON) or a ready-made vector document (--svg),
// compiles it into a template, and saves the template in the store.
func (c *CLI) importCommand() *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Compile a design into a data-bound template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "template name (default: input file name)")
	cmd.Flags().BoolVar(&opts.svg, "svg", false, "input is a vector document, not a design export")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also write the compiled document to this file")

	return cmd
}

func (c *CLI) runImport(cmd *cobra.Command, input string, opts *importOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	name := opts.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	doc := data
	if !opts.svg {
		d, err := design.Decode(data)
		if err != nil {
			return fmt.Errorf("decode design %s: %w", input, err)
		}
		logger.Debugf("Compiling design: %d objects, %gx%g %s", len(d.Objects), d.Width, d.Height, d.Unit)
		compiled, err := design.Compile(d)
		if err != nil {
			return err
		}
		doc = compiled.Bytes()
	}

	tpl, err := template.New(name, doc)
	if err != nil {
		return err
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	id, err := store.Save(ctx, tpl)
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, doc, 0o644); err != nil {
			return err
		}
		printFile(opts.output)
	}

	prog.done(fmt.Sprintf("Imported %q", name))
	printKeyValue("template", id)
	printKeyValue("size", fmt.Sprintf("%gx%g %s", tpl.Width, tpl.Height, tpl.Unit))
	if len(tpl.Fonts) > 0 {
		printKeyValue("fonts", strings.Join(tpl.Fonts, ", "))
	}
	printFieldList(tpl.Fields)
	return nil
}

// printFieldList prints the field table shared by import and fields list.
func printFieldList(fields []template.FieldDefinition) {
	if len(fields) == 0 {
		printDetail("no fields")
		return
	}
	printInfo("%d fields", len(fields))
	for _, f := range fields {
		extra := ""
		switch f.Kind {
		case template.KindText:
			if f.FontFamily != "" {
				extra = fmt.Sprintf("%s %g", f.FontFamily, f.FontSize)
			}
		case template.KindImage:
			extra = string(f.Fit)
		case template.KindBarcode:
			extra = f.BarcodeType
		}
		line := fmt.Sprintf("%-20s %-8s %s", f.ID, f.Kind, extra)
		if f.AutoDetected {
			line += " (detected)"
		}
		printDetail("%s", line)
	}
}
