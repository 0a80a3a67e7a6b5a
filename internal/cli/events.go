package cli

import (
	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	var (
		entityID string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the mutation audit log, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			evs, err := s.Events(cmd.Context(), entityID, limit)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, evs, nil)
		},
	}
	cmd.Flags().StringVar(&entityID, "entity", "", "Only events for this entity id")
	cmd.Flags().IntVar(&limit, "limit", 50, "Max events (0 = all)")
	return cmd
}
