package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

func newFillCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a form interactively and submit it",
		Long: `Prompts for every field, validating each value when it is entered. Remote
checks run after the local rules pass. Fields rejected by the backend are
asked for again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ff, err := readFormFlags(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			attempts, _ := cmd.Flags().GetInt("max-attempts")
			secret, _ := cmd.Flags().GetStringSlice("secret")

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

			session, err := tui.NewSession(f,
				tui.WithPromptDriver(tui.NewSurveyDriver(cmd.ErrOrStderr())),
				tui.WithOutputFormat(format),
				tui.WithMaxAttempts(attempts),
				tui.WithSecretFields(secret...),
				tui.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			out, err := session.Run(ctx)
			if errors.Is(err, tui.ErrDeclined) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Submission cancelled")
				return nil
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	addFormFlags(cmd)
	cmd.Flags().StringP("output", "o", string(tui.OutputFormatJSON), "Output format for the submitted values: json, form or pretty")
	cmd.Flags().Int("max-attempts", 3, "Prompts per field and submission rounds before giving up (0 for unlimited)")
	cmd.Flags().StringSlice("secret", nil, "Fields whose input is masked")
	return cmd
}

func parseOutputFormat(raw string) (tui.OutputFormat, error) {
	switch format := tui.OutputFormat(raw); format {
	case tui.OutputFormatJSON, tui.OutputFormatFormURLEncoded, tui.OutputFormatPrettyText:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q", raw)
	}
}
