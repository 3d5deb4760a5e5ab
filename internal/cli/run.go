package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/moreevents/internal/metrics"
	"github.com/roach88/moreevents/internal/scenario"
	"github.com/roach88/moreevents/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Metrics  bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its trace",
		Long: `Run a scenario and print the trace of the session.

Controllers restore their stored configuration from --db before the
scenario configures them, and persist steps write to it. Without --db the
run uses a fresh in-memory store.

Exit codes:
  0 - all expectations held
  1 - an expectation failed or the scenario is invalid
  2 - command error (unreadable file, database error)

Example:
  moreevents run ./scenarios/lift.yaml
  moreevents run --db ./controllers.db --lang de ./scenarios/lift.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite settings database")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print trigger and replication metrics after the trace")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	sc, err := scenario.LoadFile(path)
	if err != nil {
		return loadFailure(formatter, err)
	}

	runOpts := scenario.Options{Logger: log, Language: opts.Language}
	if opts.Database != "" {
		st, err := store.Open(opts.Database, store.WithLogger(log))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		runOpts.Store = st
	}

	reg := prometheus.NewRegistry()
	if opts.Metrics {
		runOpts.Metrics = metrics.New(reg)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	formatter.VerboseLog("running %s (%d controllers, %d steps)", sc.Name, len(sc.Controllers), len(sc.Steps))
	result, err := scenario.Run(ctx, sc, runOpts)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario failed", err)
	}

	render := func(w io.Writer) error {
		if err := scenario.WriteTrace(w, result.Trace); err != nil {
			return err
		}
		if opts.Metrics {
			return writeMetrics(w, reg)
		}
		return nil
	}

	if !result.Pass {
		failed := func(w io.Writer) error {
			if err := render(w); err != nil {
				return err
			}
			for _, msg := range result.Errors {
				fmt.Fprintf(w, "✗ %s\n", msg)
			}
			return nil
		}
		if err := formatter.Failure("E_FAILED", fmt.Sprintf("%d expectation(s) failed", len(result.Errors)), result, failed); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d expectation(s) failed", sc.Name, len(result.Errors)))
	}
	return formatter.Success(result, render)
}

// signalContext returns a context cancelled on interrupt or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// writeMetrics prints the gathered metrics in the Prometheus text format.
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	fmt.Fprintln(w)
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

// loadFailure reports a scenario that could not be loaded. Unreadable files
// are command errors; invalid scenarios are failures.
func loadFailure(formatter *OutputFormatter, err error) error {
	le, ok := asLoadError(err)
	if !ok {
		_ = formatter.Error("E010", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	_ = formatter.Error(le.Code, le.Error(), nil)
	if le.Code == scenario.ErrCodeRead {
		return WrapExitError(ExitCommandError, "failed to read scenario", err)
	}
	return WrapExitError(ExitFailure, "invalid scenario", err)
}
