package cli

import (
	"os"

	"momentum-cli/internal/store"

	"github.com/spf13/cobra"
)

func newWorkspaceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Workspace management (one SQLite store per workspace)",
	}
	cmd.AddCommand(newWorkspaceListCmd(app))
	cmd.AddCommand(newWorkspaceUseCmd(app))
	cmd.AddCommand(newWorkspaceCurrentCmd(app))
	return cmd
}

func newWorkspaceListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces under the config dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := store.ListWorkspaces()
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, ws, nil)
		},
	}
}

func newWorkspaceUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set the current workspace (creates its directory)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeWorkspaceName(args[0])
			if err != nil {
				return writeErr(cmd, app, usagef("%v", err))
			}
			dir, err := store.WorkspaceDir(name)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return writeErr(cmd, app, err)
			}
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if cfg.CurrentWorkspace != name {
				// Spaces belong to a workspace; the selection does not carry over.
				cfg.CurrentSpace = ""
			}
			cfg.CurrentWorkspace = name
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, map[string]any{"workspace": name, "dir": dir}, nil,
				"momentum init", "momentum spaces list")
		},
	}
}

func newWorkspaceCurrentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the resolved workspace and store dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, map[string]any{
				"workspace":    app.Workspace,
				"dir":          dir,
				"currentSpace": app.cfg.CurrentSpace,
			}, nil)
		},
	}
}
