package cli

import (
	"fmt"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/mutate"

	"github.com/spf13/cobra"
)

func newProblemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "problems",
		Aliases: []string{"problem"},
		Short:   "Track obstacles that get in the way of actions",
	}
	cmd.AddCommand(newProblemsAddCmd(app))
	cmd.AddCommand(newProblemsListCmd(app))
	cmd.AddCommand(newProblemsResolveCmd(app))
	return cmd
}

func newProblemsAddCmd(app *App) *cobra.Command {
	var (
		problemType string
		description string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a problem in the current space",
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
			p, err := mutate.AddProblem(cmd.Context(), st, sp.ID, problemType, description)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, p, func() string { return problemLine(p) })
		},
	}
	cmd.Flags().StringVar(&problemType, "type", "", "Problem type, e.g. blocker or distraction (required)")
	cmd.Flags().StringVar(&description, "description", "", "What happened")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newProblemsListCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open problems (--all includes resolved)",
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
			problems, err := mutate.ListProblems(cmd.Context(), st, sp.ID, all)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, problems, func() string {
				if len(problems) == 0 {
					return "no problems"
				}
				lines := make([]string, 0, len(problems))
				for _, p := range problems {
					lines = append(lines, problemLine(p))
				}
				return strings.Join(lines, "\n")
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include resolved problems")
	return cmd
}

func newProblemsResolveCmd(app *App) *cobra.Command {
	var reopen bool
	cmd := &cobra.Command{
		Use:   "resolve <problem-id>",
		Short: "Mark a problem resolved (--unresolve reopens it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			p, err := mutate.ResolveProblem(cmd.Context(), st, args[0], !reopen)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, p, func() string { return problemLine(p) })
		},
	}
	cmd.Flags().BoolVar(&reopen, "unresolve", false, "Reopen instead of resolving")
	return cmd
}

func problemLine(p model.Problem) string {
	state := "open"
	if p.Resolved {
		state = "resolved"
	}
	line := fmt.Sprintf("[%s] %s", state, p.Type)
	if p.Description != "" {
		line += ": " + p.Description
	}
	return line + "  " + p.ID
}
