package mutate

import (
	"context"
	"testing"

	"momentum-cli/internal/model"
	"momentum-cli/internal/timeline"

	"github.com/stretchr/testify/require"
)

func TestSetTodoStatus_StampsCompletion(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStores(t)

	todo, err := AddTodo(ctx, st, "spc-1", "  Call the bank ")
	require.NoError(t, err)
	require.Equal(t, "Call the bank", todo.Description)
	require.Equal(t, model.TodoStatusTodo, todo.Status)
	require.True(t, todo.CreatedAt.Equal(todo.LastModifiedDate))

	_, err = SetTodoStatus(ctx, st, todo.ID, "nope")
	require.ErrorIs(t, err, ErrInvalidInput)

	res, err := SetTodoStatus(ctx, st, todo.ID, "DONE")
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Equal(t, model.TodoStatusDone, res.Todo.Status)
	require.NotNil(t, res.Todo.CompletionDate)
	require.True(t, res.Todo.LastModifiedDate.After(todo.CreatedAt))

	same, err := SetTodoStatus(ctx, st, todo.ID, "done")
	require.NoError(t, err)
	require.False(t, same.Changed)
	require.True(t, res.Todo.LastModifiedDate.Equal(same.Todo.LastModifiedDate))

	back, err := SetTodoStatus(ctx, st, todo.ID, "doing")
	require.NoError(t, err)
	require.Nil(t, back.Todo.CompletionDate)

	_, err = SetTodoStatus(ctx, st, "tdo-missing", "done")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListTodos_FiltersByStatus(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStores(t)
	a, err := AddTodo(ctx, st, "spc-1", "A")
	require.NoError(t, err)
	_, err = AddTodo(ctx, st, "spc-1", "B")
	require.NoError(t, err)
	_, err = AddTodo(ctx, st, "spc-2", "C")
	require.NoError(t, err)
	_, err = SetTodoStatus(ctx, st, a.ID, "doing")
	require.NoError(t, err)

	all, err := ListTodos(ctx, st, "spc-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "A", all[0].Description)

	doing, err := ListTodos(ctx, st, "spc-1", model.TodoStatusDoing)
	require.NoError(t, err)
	require.Len(t, doing, 1)
	require.Equal(t, a.ID, doing[0].ID)

	_, err = AddTodo(ctx, st, "spc-1", " ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestProblems(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStores(t)

	p, err := AddProblem(ctx, st, "spc-1", "blocker", "Gym closed")
	require.NoError(t, err)
	require.False(t, p.Resolved)

	resolved, err := ResolveProblem(ctx, st, p.ID, true)
	require.NoError(t, err)
	require.True(t, resolved.Resolved)
	require.True(t, resolved.LastModifiedDate.After(p.LastModifiedDate))

	open, err := ListProblems(ctx, st, "spc-1", false)
	require.NoError(t, err)
	require.Empty(t, open)
	all, err := ListProblems(ctx, st, "spc-1", true)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = AddProblem(ctx, st, "spc-1", "", "x")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = ResolveProblem(ctx, st, "prb-missing", true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSpaces_CreateResolveDelete(t *testing.T) {
	ctx := context.Background()
	st, s := newTestStores(t)

	home, err := CreateSpace(ctx, st, "Home")
	require.NoError(t, err)
	work, err := CreateSpace(ctx, st, "Work")
	require.NoError(t, err)

	got, err := ResolveSpace(ctx, st, "home")
	require.NoError(t, err)
	require.Equal(t, home.ID, got.ID)
	got, err = ResolveSpace(ctx, st, work.ID)
	require.NoError(t, err)
	require.Equal(t, "Work", got.Name)
	_, err = ResolveSpace(ctx, st, "Garden")
	require.ErrorIs(t, err, ErrNotFound)

	def := mustCreate(t, st, twoStepInput(home.ID))
	completeStep(t, st, def, def.Steps()[0].ID)
	_, err = AddTodo(ctx, st, home.ID, "Tidy")
	require.NoError(t, err)
	mustCreate(t, st, twoStepInput(work.ID))

	_, err = DeleteSpace(ctx, st, "Home")
	require.NoError(t, err)

	spaces, err := ListSpaces(ctx, st)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	require.Equal(t, work.ID, spaces[0].ID)

	logs, err := s.ActionLogs.All(ctx)
	require.NoError(t, err)
	require.Empty(t, logs)
	todos, err := s.Todos.All(ctx)
	require.NoError(t, err)
	require.Empty(t, todos)
	actions, err := s.Actions.All(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
}

func TestTimeline_ReadsEveryCollection(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStores(t)
	def := mustCreate(t, st, twoStepInput("spc-1"))
	completeStep(t, st, def, def.Steps()[0].ID)
	_, err := AddTodo(ctx, st, "spc-1", "Tidy")
	require.NoError(t, err)
	_, err = AddProblem(ctx, st, "spc-1", "energy", "Tired")
	require.NoError(t, err)

	items, err := Timeline(ctx, st, "spc-1", timeline.Options{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, model.TimelineProblem, items[0].Kind)
	require.Equal(t, model.TimelineAction, items[2].Kind)
	require.Equal(t, `Step "Stretch" completed`, items[2].Description)
}
