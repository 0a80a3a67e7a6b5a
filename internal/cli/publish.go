package cli

import (
	"fmt"
	"strings"

	"momentum-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newPublishCmd(app *App) *cobra.Command {
	var (
		to              string
		overwrite       bool
		includeDisabled bool
		stdout          bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Export the current space as markdown files",
		Example: strings.TrimSpace(`
  momentum publish --to ./export
  momentum publish --stdout > home.md
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			sp, err := currentSpace(cmd, app, st)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if stdout {
				md, err := publish.RenderSpaceMarkdown(cmd.Context(), st, sp.ID, publish.RenderOptions{
					IncludeDisabled: includeDisabled,
					ActivityLimit:   app.cfg.Timeline.DefaultLimit,
				})
				if err != nil {
					return writeErr(cmd, app, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			if strings.TrimSpace(to) == "" {
				return writeErr(cmd, app, usagef("--to or --stdout is required"))
			}

			res, err := publish.WriteSpace(cmd.Context(), st, sp.ID, to, publish.WriteOptions{
				IncludeDisabled: includeDisabled,
				Overwrite:       overwrite,
				ActivityLimit:   app.cfg.Timeline.DefaultLimit,
			})
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, res, func() string { return strings.Join(res.Written, "\n") })
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&includeDisabled, "include-disabled", false, "Also export disabled actions")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the space overview instead of writing files")
	return cmd
}
