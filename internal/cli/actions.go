package cli

import (
	"fmt"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/mutate"
	"momentum-cli/internal/render"

	"github.com/spf13/cobra"
)

func newActionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "actions",
		Aliases: []string{"action"},
		Short:   "Define, inspect and arrange actions",
	}
	cmd.AddCommand(newActionsCreateCmd(app))
	cmd.AddCommand(newActionsUpdateCmd(app))
	cmd.AddCommand(newActionsDeleteCmd(app))
	cmd.AddCommand(newActionsListCmd(app))
	cmd.AddCommand(newActionsShowCmd(app))
	cmd.AddCommand(newActionsEnableCmd(app, true))
	cmd.AddCommand(newActionsEnableCmd(app, false))
	cmd.AddCommand(newActionsReorderCmd(app))
	return cmd
}

func newActionsCreateCmd(app *App) *cobra.Command {
	var (
		file        string
		name        string
		description string
		variant     string
		points      int
		order       int
		steps       []string
		fields      []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an action from flags or a YAML/JSON definition file",
		Example: strings.TrimSpace(`
  momentum actions create --name "Drink water" --points 2
  momentum actions create --name "Morning routine" --variant multi-step --points 20 --step "Stretch:5" --step "Journal:5"
  momentum actions create --name "Sleep log" --variant data-entry --points 3 --field "hours:Hours slept:number:required"
  momentum actions create --file routine.yaml
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			var in mutate.CreateActionInput
			if file != "" {
				if err := readDefinition(cmd, file, &in); err != nil {
					return writeErr(cmd, app, err)
				}
			} else {
				if strings.TrimSpace(name) == "" {
					return writeErr(cmd, app, usagef("--name or --file is required"))
				}
				v, err := variantFlag(variant)
				if err != nil {
					return writeErr(cmd, app, err)
				}
				in = mutate.CreateActionInput{Name: name, Variant: v, PointsForCompletion: points}
				if cmd.Flags().Changed("description") {
					in.Description = &description
				}
				if cmd.Flags().Changed("order") {
					in.Order = &order
				}
				if in.Steps, err = parseStepFlags(steps); err != nil {
					return writeErr(cmd, app, err)
				}
				if in.FormFields, err = parseFieldFlags(fields); err != nil {
					return writeErr(cmd, app, err)
				}
			}
			if strings.TrimSpace(in.SpaceID) == "" {
				sp, err := currentSpace(cmd, app, st)
				if err != nil {
					return writeErr(cmd, app, err)
				}
				in.SpaceID = sp.ID
			}

			def, err := mutate.CreateAction(cmd.Context(), st, in)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			app.logger.Debug("action created", "id", def.ID, "variant", def.Variant())
			return writeData(cmd, app, def, func() string { return render.Action(def, nil, render.DefaultWidth) },
				"momentum log "+def.ID)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Definition file (YAML or JSON; - for stdin)")
	cmd.Flags().StringVar(&name, "name", "", "Action name")
	cmd.Flags().StringVar(&description, "description", "", "Description (markdown)")
	cmd.Flags().StringVar(&variant, "variant", "single", "single|multi-step|timer|data-entry")
	cmd.Flags().IntVar(&points, "points", 0, "Points for completion")
	cmd.Flags().IntVar(&order, "order", 0, "Display order within the space")
	cmd.Flags().StringArrayVar(&steps, "step", nil, stepFlagHelp())
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Form field as name[:label[:type[:required]]] (repeatable)")
	return cmd
}

func newActionsUpdateCmd(app *App) *cobra.Command {
	var (
		file             string
		name             string
		description      string
		clearDescription bool
		variant          string
		points           int
		order            int
		steps            []string
		fields           []string
	)
	cmd := &cobra.Command{
		Use:   "update <action-id>",
		Short: "Merge changes into an action (steps/fields given here replace the list)",
		Long: strings.TrimSpace(`
Scalar flags change only what they name. --step and --field replace the whole list;
use --file with step/field ids to keep existing ids (and their history) stable.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			var in mutate.UpdateActionInput
			if file != "" {
				if err := readDefinition(cmd, file, &in); err != nil {
					return writeErr(cmd, app, err)
				}
			}
			in.ID = args[0]

			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = &name
			}
			switch {
			case clearDescription:
				in.Description = mutate.OptionalString{Set: true}
			case flags.Changed("description"):
				in.Description = mutate.OptionalString{Set: true, Value: &description}
			}
			if flags.Changed("variant") {
				v, err := variantFlag(variant)
				if err != nil {
					return writeErr(cmd, app, err)
				}
				in.Variant = &v
			}
			if flags.Changed("points") {
				in.PointsForCompletion = &points
			}
			if flags.Changed("order") {
				in.Order = &order
			}
			if len(steps) > 0 {
				if in.Steps, err = parseStepFlags(steps); err != nil {
					return writeErr(cmd, app, err)
				}
			}
			if len(fields) > 0 {
				if in.FormFields, err = parseFieldFlags(fields); err != nil {
					return writeErr(cmd, app, err)
				}
			}

			def, err := mutate.UpdateAction(cmd.Context(), st, in)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, def, func() string { return render.Action(def, nil, render.DefaultWidth) })
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Partial definition file (YAML or JSON; - for stdin)")
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description (markdown)")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "Remove the description")
	cmd.Flags().StringVar(&variant, "variant", "", "Switch variant (lists that do not apply are dropped)")
	cmd.Flags().IntVar(&points, "points", 0, "Points for completion")
	cmd.Flags().IntVar(&order, "order", 0, "Display order within the space")
	cmd.Flags().StringArrayVar(&steps, "step", nil, stepFlagHelp())
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Form field as name[:label[:type[:required]]] (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("description", "clear-description")
	return cmd
}

func newActionsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <action-id>",
		Short: "Delete an action and the logs and entries recorded against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			res, err := mutate.DeleteAction(cmd.Context(), st, args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, res, func() string {
				return fmt.Sprintf("deleted %s (%d logs, %d data entries)", res.Action.Name, res.DeletedLogs, res.DeletedDataEntries)
			})
		},
	}
}

func newActionsListCmd(app *App) *cobra.Command {
	var enabledOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the current space's actions in display order",
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
			defs, err := mutate.ListActions(cmd.Context(), st, sp.ID)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if enabledOnly {
				kept := make([]model.ActionDefinition, 0, len(defs))
				for _, d := range defs {
					if d.IsEnabled {
						kept = append(kept, d)
					}
				}
				defs = kept
			}
			return writeData(cmd, app, defs, func() string { return render.ActionList(defs, render.DefaultWidth) })
		},
	}
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "Only enabled actions")
	return cmd
}

type actionView struct {
	Action    model.ActionDefinition `json:"action"`
	Checklist []mutate.StepState     `json:"checklist,omitempty"`
	Logs      int                    `json:"logCount"`
}

func newActionsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <action-id>",
		Short: "Show an action with its checklist state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			id := strings.TrimSpace(args[0])
			def, ok, err := st.Actions.Get(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if !ok {
				return writeErr(cmd, app, mutate.NotFoundError{Kind: "action", ID: id})
			}
			logs, err := mutate.ListActionLogs(cmd.Context(), st, def.SpaceID, def.ID)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			view := actionView{Action: def, Checklist: mutate.ChecklistState(def, logs), Logs: len(logs)}
			return writeData(cmd, app, view, func() string { return render.Action(def, view.Checklist, render.DefaultWidth) },
				"momentum log "+def.ID)
		},
	}
}

func newActionsEnableCmd(app *App, enabled bool) *cobra.Command {
	use, short := "enable <action-id>", "Allow new logs for an action"
	if !enabled {
		use, short = "disable <action-id>", "Stop accepting logs for an action (history is kept)"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			def, err := mutate.SetActionEnabled(cmd.Context(), st, args[0], enabled)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, def, func() string { return render.Action(def, nil, render.DefaultWidth) })
		},
	}
}

func newActionsReorderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <action-id>...",
		Short: "Move the given actions to the front, in that order",
		Args:  cobra.MinimumNArgs(1),
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
			defs, err := mutate.ReorderActions(cmd.Context(), st, sp.ID, args)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, defs, func() string { return render.ActionList(defs, render.DefaultWidth) })
		},
	}
}
