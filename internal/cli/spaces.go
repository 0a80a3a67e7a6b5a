package cli

import (
	"fmt"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/mutate"
	"momentum-cli/internal/store"

	"github.com/spf13/cobra"
)

func newSpacesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "spaces",
		Aliases: []string{"space"},
		Short:   "Spaces group actions, logs, todos and problems",
	}
	cmd.AddCommand(newSpacesCreateCmd(app))
	cmd.AddCommand(newSpacesListCmd(app))
	cmd.AddCommand(newSpacesUseCmd(app))
	cmd.AddCommand(newSpacesDeleteCmd(app))
	return cmd
}

func newSpacesCreateCmd(app *App) *cobra.Command {
	var (
		name string
		use  bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a space",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			sp, err := mutate.CreateSpace(cmd.Context(), st, name)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if use {
				if err := setCurrentSpace(sp.ID); err != nil {
					return writeErr(cmd, app, err)
				}
			}
			return writeData(cmd, app, sp, func() string {
				return fmt.Sprintf("created space %s (%s)\n", sp.Name, sp.ID)
			}, "momentum actions create --space "+sp.ID+" --name <name>")
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Space name (required)")
	cmd.Flags().BoolVar(&use, "use", false, "Make the new space current")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newSpacesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List spaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			spaces, err := mutate.ListSpaces(cmd.Context(), st)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, spaces, func() string { return spacesText(spaces, app.cfg.CurrentSpace) })
		},
	}
}

func spacesText(spaces []model.Space, current string) string {
	if len(spaces) == 0 {
		return "no spaces yet\n"
	}
	var b strings.Builder
	for _, sp := range spaces {
		mark := " "
		if sp.ID == current {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s\n", mark, sp.ID, sp.Name)
	}
	return b.String()
}

func newSpacesUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id|name>",
		Short: "Set the current space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			sp, err := mutate.ResolveSpace(cmd.Context(), st, args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if err := setCurrentSpace(sp.ID); err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, sp, func() string {
				return fmt.Sprintf("current space: %s (%s)\n", sp.Name, sp.ID)
			})
		},
	}
}

func newSpacesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a space and everything recorded in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			sp, err := mutate.DeleteSpace(cmd.Context(), st, args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if app.cfg.CurrentSpace == sp.ID {
				if err := setCurrentSpace(""); err != nil {
					return writeErr(cmd, app, err)
				}
			}
			return writeData(cmd, app, sp, func() string {
				return fmt.Sprintf("deleted space %s (%s)\n", sp.Name, sp.ID)
			})
		},
	}
}

func setCurrentSpace(id string) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return err
	}
	cfg.CurrentSpace = id
	return store.SaveConfig(cfg)
}
