package cli

import (
	"fmt"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/mutate"
	"momentum-cli/internal/statusutil"

	"github.com/spf13/cobra"
)

func newTodosCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todos",
		Aliases: []string{"todo"},
		Short:   "A small todo/doing/done board per space",
	}
	cmd.AddCommand(newTodosAddCmd(app))
	cmd.AddCommand(newTodosListCmd(app))
	cmd.AddCommand(newTodosSetStatusCmd(app))
	return cmd
}

func newTodosAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <description>",
		Short: "Add a todo to the current space",
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
			t, err := mutate.AddTodo(cmd.Context(), st, sp.ID, strings.Join(args, " "))
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, t, func() string { return todoLine(t) },
				"momentum todos set-status "+t.ID+" doing")
		},
	}
}

func newTodosListCmd(app *App) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos in the current space",
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
			statuses, err := statusutil.ParseTodoStatuses(status)
			if err != nil {
				return writeErr(cmd, app, usagef("--status: %v", err))
			}
			todos, err := mutate.ListTodos(cmd.Context(), st, sp.ID, statuses...)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, todos, func() string {
				if len(todos) == 0 {
					return "no todos"
				}
				lines := make([]string, 0, len(todos))
				for _, t := range todos {
					lines = append(lines, todoLine(t))
				}
				return strings.Join(lines, "\n")
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Comma-separated statuses to include (todo,doing,done)")
	return cmd
}

func newTodosSetStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <todo-id> <status>",
		Short: "Move a todo to todo, doing or done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			res, err := mutate.SetTodoStatus(cmd.Context(), st, args[0], args[1])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, res, func() string { return todoLine(res.Todo) })
		},
	}
}

func todoLine(t model.Todo) string {
	box := "[ ]"
	switch {
	case statusutil.IsEndState(t.Status):
		box = "[x]"
	case t.Status == model.TodoStatusDoing:
		box = "[~]"
	}
	return fmt.Sprintf("%s %s  %s", box, t.Description, t.ID)
}
