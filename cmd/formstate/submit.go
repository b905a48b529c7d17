package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

var (
	// errInvalid reports values that did not pass validation.
	errInvalid = errors.New("form is invalid")
	// errNoSubmitter reports a form definition without a submit path.
	errNoSubmitter = errors.New("no submit endpoint configured")
)

func newSubmitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate the given values and submit them without prompting",
		Long: `Validates every field with the values given through --set, including
remote checks, and submits the form when all fields are valid. Field
errors are written to stderr.`,
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
			if !f.CanSubmit() {
				return errNoSubmitter
			}
			if err := validateAll(ctx, f); err != nil {
				return err
			}
			if !f.AllFieldsValid() {
				reportProblems(cmd.ErrOrStderr(), f)
				return errInvalid
			}

			values := f.Values()
			if err := f.HandleSubmit(ctx); err != nil {
				snap := f.Snapshot()
				if snap.SubmitError != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), snap.SubmitError)
				}
				reportProblems(cmd.ErrOrStderr(), f)
				return err
			}

			out, err := tui.Encode(format, f.Fields(), values)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Form submission successful")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	addFormFlags(cmd)
	cmd.Flags().StringP("output", "o", string(tui.OutputFormatJSON), "Output format for the submitted values: json, form or pretty")
	return cmd
}

// validateAll blurs every field in declaration order.
func validateAll(ctx context.Context, f *form.Form) error {
	for _, desc := range f.Fields() {
		if err := f.HandleBlur(ctx, desc.Name); err != nil {
			return err
		}
	}
	return nil
}

// reportProblems writes one "Label: message" line per invalid field and
// returns how many were written.
func reportProblems(w io.Writer, f *form.Form) int {
	snap := f.Snapshot()
	n := 0
	for _, desc := range f.Fields() {
		msg := snap.VisibleError(desc.Name)
		if msg == "" && desc.Required && strings.TrimSpace(snap.Values[desc.Name]) == "" {
			msg = "Required"
		}
		if msg == "" {
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", desc.DisplayLabel(), msg)
		n++
	}
	return n
}
