package cli

import (
	"strings"
	"time"

	"momentum-cli/internal/model"
	"momentum-cli/internal/mutate"
	"momentum-cli/internal/render"
	"momentum-cli/internal/timeline"

	"github.com/spf13/cobra"
)

func newTimelineCmd(app *App) *cobra.Command {
	var (
		limit int
		kinds []string
	)
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Recent activity in the current space, newest first",
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
			if !cmd.Flags().Changed("limit") {
				limit = app.cfg.Timeline.DefaultLimit
			}
			opts := timeline.Options{Limit: limit}
			for _, k := range kinds {
				kind, err := parseTimelineKind(k)
				if err != nil {
					return writeErr(cmd, app, err)
				}
				opts.Kinds = append(opts.Kinds, kind)
			}

			items, err := mutate.Timeline(cmd.Context(), st, sp.ID, opts)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, items, func() string {
				return render.Timeline(items, time.Now(), render.DefaultWidth)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max items (default from config, 50)")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Only these kinds: action,data-entry,todo,problem")
	return cmd
}

func parseTimelineKind(s string) (model.TimelineKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "action", "actions", "log":
		return model.TimelineAction, nil
	case "data-entry", "data", "entry":
		return model.TimelineDataEntry, nil
	case "todo", "todos":
		return model.TimelineTodo, nil
	case "problem", "problems":
		return model.TimelineProblem, nil
	default:
		return "", usagef("--kind: unknown timeline kind %q", s)
	}
}
