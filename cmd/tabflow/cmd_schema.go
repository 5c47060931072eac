package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tabflow/internal/session"
)

func newSchemaCmd(a *app) *cobra.Command {
	var in inputFlags

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the inferred schema and sample rows without running jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.apply(cmd, a)

			sess, err := session.New(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := sess.Stop(); err != nil {
					a.logger.Warn("Failed to stop session", zap.Error(err))
				}
			}()

			df, err := sess.Load(cmd.Context())
			if err != nil {
				return err
			}
			return sess.Inspect(cmd.OutOrStdout(), df, a.cfg.Inspect.SampleRows)
		},
	}

	in.register(cmd)
	return cmd
}
