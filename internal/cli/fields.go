package cli

import (
	"github.com/spf13/cobra"

	"github.com/cardforge/cardforge/pkg/template"
)

// fieldsCommand creates the fields command group for inspecting and editing
// a template's field bindings. Edits load the template, apply the change,
// and save it back, so they are last-writer-wins across processes.
func (c *CLI) fieldsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List and edit a template's field bindings",
	}

	cmd.AddCommand(c.fieldsListCommand())
	cmd.AddCommand(c.fieldsAddCommand())
	cmd.AddCommand(c.fieldsRenameCommand())
	cmd.AddCommand(c.fieldsRemoveCommand())

	return cmd
}

func (c *CLI) fieldsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [template-id]",
		Short: "List the fields of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			tpl, err := store.Load(ctx, args[0])
			if err != nil {
				return err
			}
			printKeyValue("template", tpl.ID)
			printKeyValue("name", tpl.Name)
			printFieldList(tpl.Fields)
			return nil
		},
	}
}

func (c *CLI) fieldsAddCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "add [template-id]",
		Short: "Add a field to a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			tpl, err := store.Load(ctx, args[0])
			if err != nil {
				return err
			}
			fields, seq, def, err := template.AddField(tpl.Fields, tpl.FieldSeq, template.FieldKind(kind))
			if err != nil {
				return err
			}
			tpl.Fields = fields
			tpl.FieldSeq = seq
			if _, err := store.Save(ctx, tpl); err != nil {
				return err
			}
			printSuccess("Added %s field %s", def.Kind, def.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "text", "field kind: text, image, or barcode")
	return cmd
}

func (c *CLI) fieldsRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename [template-id] [old-id] [new-id]",
		Short: "Rename a field, migrating any bound data",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			tpl, err := store.Load(ctx, args[0])
			if err != nil {
				return err
			}
			fields, _, err := template.RenameField(tpl.Fields, nil, args[1], args[2])
			if err != nil {
				return err
			}
			tpl.Fields = fields
			if _, err := store.Save(ctx, tpl); err != nil {
				return err
			}
			printSuccess("Renamed %s to %s", args[1], args[2])
			return nil
		},
	}
}

func (c *CLI) fieldsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [template-id] [field-id]",
		Short: "Remove a field and any bound data",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			tpl, err := store.Load(ctx, args[0])
			if err != nil {
				return err
			}
			fields, _, err := template.RemoveField(tpl.Fields, nil, args[1])
			if err != nil {
				return err
			}
			tpl.Fields = fields
			if _, err := store.Save(ctx, tpl); err != nil {
				return err
			}
			printSuccess("Removed field %s", args[1])
			return nil
		},
	}
}
