package cli

import (
	"momentum-cli/internal/mutate"
	"momentum-cli/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	var spaceName string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize local storage (workspace-first) and optionally a first space",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			prog, err := st.Progress.Get(cmd.Context())
			if err != nil {
				return writeErr(cmd, app, err)
			}

			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, app, err)
			}
			changed := false
			if app.Workspace != "" && cfg.CurrentWorkspace == "" {
				cfg.CurrentWorkspace = app.Workspace
				changed = true
			}

			var created any
			if spaceName != "" {
				sp, err := mutate.CreateSpace(cmd.Context(), st, spaceName)
				if err != nil {
					return writeErr(cmd, app, err)
				}
				cfg.CurrentSpace = sp.ID
				changed = true
				created = sp
			}
			if changed {
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, app, err)
				}
			}

			return writeData(cmd, app, map[string]any{
				"dir":        s.Dir,
				"workspace":  app.Workspace,
				"sqlitePath": s.SQLitePath(),
				"space":      created,
				"progress":   prog,
			}, nil, "momentum spaces create --name <name> --use")
		},
	}
	cmd.Flags().StringVar(&spaceName, "space-name", "", "Also create a first space with this name and make it current")
	return cmd
}
