package cli

import (
	"github.com/spf13/cobra"
)

func newResetCmd(app *App) *cobra.Command {
	var (
		yes          bool
		progressOnly bool
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all data in the workspace (or only progression with --progress-only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, app, usagef("refusing to reset without --yes"))
			}
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			if progressOnly {
				p, err := st.Progress.Reset(cmd.Context())
				if err != nil {
					return writeErr(cmd, app, err)
				}
				return writeData(cmd, app, p, func() string { return "progression reset" })
			}
			if err := s.ClearAll(cmd.Context()); err != nil {
				return writeErr(cmd, app, err)
			}
			app.logger.Info("workspace reset", "dir", s.Dir)
			return writeData(cmd, app, map[string]any{"reset": true, "dir": s.Dir}, func() string { return "all data erased" })
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	cmd.Flags().BoolVar(&progressOnly, "progress-only", false, "Only reset points and level")
	return cmd
}
