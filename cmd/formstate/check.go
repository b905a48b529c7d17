package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <field> <value>",
		Short: "Validate a single field value, including its remote check",
		Long: `Sets the field to value and validates it the way leaving the field would.
Other fields can be seeded with --set for rules that read them. Exits
non-zero when the value is rejected.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ff, err := readFormFlags(cmd)
			if err != nil {
				return err
			}
			name, value := args[0], args[1]

			ctx := cmd.Context()
			rt, err := a.runtime(ctx, ff.label())
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			f, err := rt.buildForm(ctx, ff)
			if err != nil {
				return err
			}
			if err := f.SetValue(name, value); err != nil {
				return err
			}
			if err := f.HandleBlur(ctx, name); err != nil {
				return err
			}

			desc, _ := f.Field(name)
			if msg := f.Snapshot().VisibleError(name); msg != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", desc.DisplayLabel(), msg)
				return errInvalid
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", desc.DisplayLabel())
			return err
		},
	}

	addFormFlags(cmd)
	return cmd
}
