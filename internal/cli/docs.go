package cli

import (
	"fmt"

	"momentum-cli/internal/docs"
	"momentum-cli/internal/render"

	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show the built-in guide",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				topics := docs.Topics()
				return writeData(cmd, app, map[string]any{"topics": topics}, func() string {
					out := ""
					for _, t := range topics {
						out += fmt.Sprintf("%-12s %s\n", t.Name, t.Title)
					}
					return out
				}, "momentum docs <topic>")
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, app, usagef("unknown docs topic: %q (run `momentum docs` to list topics)", topic))
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			return writeData(cmd, app, map[string]any{"topic": topic, "markdown": body}, func() string {
				return render.Markdown(body, render.DefaultWidth)
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no JSON envelope)")
	return cmd
}
