package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/internal/config"
	"github.com/goliatone/go-formstate/internal/logging"
)

// app carries the state shared by every subcommand.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "formstate",
		Short: "Fill, check and submit forms from the terminal",
		Long: `formstate drives form definitions against a backend. Values are validated
as they are entered, remote checks run when a field is left and the result
is submitted to the configured endpoint.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	root.PersistentFlags().StringSlice("env-file", nil, "Environment files to load (default .env when present)")
	root.PersistentFlags().String("base-uri", "", "Backend base URI (overrides FORMSTATE_BASE_URI)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "Log format: text or json")

	root.AddCommand(newFillCmd(a), newSubmitCmd(a), newCheckCmd(a), newLintCmd(a))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("base-uri") {
		cfg.BaseURI, _ = cmd.Flags().GetString("base-uri")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat, _ = cmd.Flags().GetString("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.Logger(
		logging.WithOutput(cmd.ErrOrStderr()),
		logging.WithAttr(slog.String("command", cmd.Name())),
	)
	return nil
}
