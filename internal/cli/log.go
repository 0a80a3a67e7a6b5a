package cli

import (
	"strings"
	"time"

	"momentum-cli/internal/mutate"
	"momentum-cli/internal/render"
	"momentum-cli/internal/schema"

	"github.com/spf13/cobra"
)

func newLogCmd(app *App) *cobra.Command {
	var (
		stepID   string
		outcome  string
		notes    string
		duration time.Duration
		logs     bool
	)
	cmd := &cobra.Command{
		Use:   "log <action-id>",
		Short: "Record a completion (whole action or one checklist step)",
		Example: strings.TrimSpace(`
  momentum log act-...
  momentum log act-... --step stp-... --notes "slow start"
  momentum log act-... --step stp-... --outcome skipped
  momentum log act-... --duration 25m
  momentum log act-... --list
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			if logs {
				out, err := mutate.ListActionLogs(cmd.Context(), st, "", args[0])
				if err != nil {
					return writeErr(cmd, app, err)
				}
				return writeData(cmd, app, out, nil)
			}

			in := mutate.RecordCompletionInput{ActionDefinitionID: args[0]}
			if strings.TrimSpace(stepID) != "" {
				o, err := schema.ParseStepOutcome(outcome)
				if err != nil {
					return writeErr(cmd, app, usagef("--outcome: %v", err))
				}
				in.CompletedStepID = &stepID
				in.StepOutcome = &o
			} else if cmd.Flags().Changed("outcome") {
				return writeErr(cmd, app, usagef("--outcome requires --step"))
			}
			if cmd.Flags().Changed("notes") {
				in.Notes = &notes
			}
			if cmd.Flags().Changed("duration") {
				if duration < 0 {
					return writeErr(cmd, app, usagef("--duration must not be negative"))
				}
				ms := duration.Milliseconds()
				in.DurationMs = &ms
			}

			res, err := mutate.RecordCompletion(cmd.Context(), st, in)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			app.logger.Debug("completion recorded", "action", res.Log.ActionDefinitionID, "points", res.Log.PointsAwarded)

			name := res.Log.ActionDefinitionID
			if def, ok, err := st.Actions.Get(cmd.Context(), res.Log.ActionDefinitionID); err == nil && ok {
				name = def.Name
			}
			return writeData(cmd, app, res, func() string { return render.Recorded(name, res) })
		},
	}
	cmd.Flags().StringVar(&stepID, "step", "", "Checklist step id (multi-step actions)")
	cmd.Flags().StringVar(&outcome, "outcome", "completed", "Step outcome: completed|skipped")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Elapsed time for timer actions (e.g. 25m, 1h30m)")
	cmd.Flags().BoolVar(&logs, "list", false, "List this action's logs instead of recording one")
	return cmd
}
