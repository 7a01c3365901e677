// Package main implements the sprintd CLI: it runs the simulated
// delivery team over a requirement document and renders the resulting
// engineering package.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sprintd/internal/config"
	"github.com/fyrsmithlabs/sprintd/internal/logging"
	"github.com/fyrsmithlabs/sprintd/internal/provider"
	"github.com/fyrsmithlabs/sprintd/internal/sprint"
)

var (
	configPath string
	jsonOutput bool
	followUps  []string
	// version is stamped by release builds via
	// -ldflags "-X main.version=...".
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sprintd",
	Short: "Simulated delivery team for requirement documents",
	Long: `sprintd runs a simulated software delivery team (one architect, three
developers, three testers) over a free-text requirement document and
produces architecture decisions, implementation plans with code
scaffolds, and test plans, scripts, and summaries.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run <requirements-file>",
	Short: "Run the team over a requirement document",
	Long: `Run one sprint over the requirement document, then one additional
sprint per --follow-up instruction.

The run exits 0 whenever it completes, even if a sprint was not
accepted by the review gate; it exits non-zero only when it fails
before producing any sprint record (empty document, configuration
errors).

Examples:
  # One sprint, human-readable summary
  sprintd run requirements.md

  # Machine-parseable output
  sprintd run requirements.md --json

  # Steer two more sprints after the first
  sprintd run requirements.md \
    --follow-up "prioritize security hardening" \
    --follow-up "add an accessibility audit"

  # Per-role providers from a config file
  sprintd run requirements.md --config sprintd.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runTeam,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to sprintd config file (YAML)")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the structured JSON report instead of the summary")
	runCmd.Flags().StringArrayVar(&followUps, "follow-up", nil, "follow-up instruction applied as an extra sprint (repeatable)")
	rootCmd.AddCommand(runCmd)
}

func runTeam(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Fields: cfg.Logging.Fields,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bindings, err := provider.Resolve(cfg.Providers)
	if err != nil {
		return fmt.Errorf("resolving providers: %w", err)
	}

	var backend provider.Backend
	if cfg.Backend.Mode == config.BackendModeLive {
		backend = provider.NewLLMBackend(cfg.Backend)
	} else {
		backend = provider.NewTemplateBackend()
	}

	document, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading requirement document: %w", err)
	}

	controller := sprint.NewController(bindings, backend, logger)
	ctx = logging.WithRunID(ctx, controller.RunID())

	if _, err := controller.Run(ctx, string(document)); err != nil {
		// No sprint record exists yet; this failure is fatal.
		return fmt.Errorf("run failed: %w", err)
	}

	for _, instruction := range followUps {
		if _, err := controller.FollowUp(ctx, instruction); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error(ctx, "follow-up sprint failed", zap.Error(err))
			break
		}
	}

	report := controller.Report()

	if jsonOutput {
		data, err := sprint.RenderJSON(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		fmt.Fprint(cmd.OutOrStdout(), sprint.Summarize(report))
	}

	for _, rec := range report.Sprints {
		if !rec.Accepted {
			logger.Warn(ctx, "sprint was not accepted", zap.Int("sprint", rec.SprintNumber))
		}
	}
	return nil
}
