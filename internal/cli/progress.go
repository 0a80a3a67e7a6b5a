package cli

import (
	"momentum-cli/internal/render"

	"github.com/spf13/cobra"
)

func newProgressCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show points and level",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			p, err := st.Progress.Get(cmd.Context())
			if err != nil {
				return writeErr(cmd, app, err)
			}
			snap := st.Progress.Snapshot(p)
			return writeData(cmd, app, snap, func() string { return render.Progress(snap) })
		},
	}
}
