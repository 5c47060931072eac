package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tabflow/internal/config"
	"tabflow/internal/session"
	"tabflow/internal/watch"
)

type inputFlags struct {
	input string
	show  int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Input dataset (overrides input.path)")
	cmd.Flags().IntVar(&f.show, "show", 5, "Number of sample rows to print, 0 disables the sample")
}

func (f *inputFlags) apply(cmd *cobra.Command, a *app) {
	if f.input != "" {
		a.cfg.Input.Path = f.input
	}
	if cmd.Flags().Changed("show") {
		a.cfg.Inspect.SampleRows = f.show
	}
}

func newRunCmd(a *app) *cobra.Command {
	var (
		in        inputFlags
		outputDir string
		format    string
		mode      string
		watchMode bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the input and run every configured job",
		Long: `Loads the input once, prints its schema and the first rows, then runs
every job and writes its output. With --watch the jobs are re-run each
time the input file changes, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.apply(cmd, a)
			if outputDir != "" {
				a.cfg.Output.Dir = outputDir
			}
			if format != "" {
				a.cfg.Output.Format = format
			}
			if mode != "" {
				a.cfg.Output.Mode = mode
			}
			if watchMode && a.cfg.Output.Mode == config.ModeError {
				return errors.New("--watch re-writes outputs: set --mode overwrite or ignore")
			}

			sess, err := session.New(a.cfg, a.logger, session.WithOutput(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer func() {
				if err := sess.Stop(); err != nil {
					a.logger.Warn("Failed to stop session", zap.Error(err))
				}
			}()

			ctx := cmd.Context()
			err = runOnce(ctx, sess, cmd.OutOrStdout())
			if !watchMode {
				return err
			}

			w := watch.New(a.cfg.Input.Path, watch.DefaultDebounce, a.logger)
			return w.Run(ctx, func(ctx context.Context) error {
				return runOnce(ctx, sess, cmd.OutOrStdout())
			})
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (overrides output.dir)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: csv or xlsx (overrides output.format)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Write mode: overwrite, error or ignore (overrides output.mode)")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Re-run when the input file changes")
	return cmd
}

func runOnce(ctx context.Context, sess *session.Session, out io.Writer) error {
	report, err := sess.Run(ctx)
	if err != nil {
		return err
	}
	if err := report.Print(out); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}
	return nil
}
