package mutate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/statusutil"
	"momentum-cli/internal/store"
)

// To-dos and problems live next to actions on a space's board. They are not
// scored; the timeline reads them.

type SetTodoStatusResult struct {
	Todo    model.Todo `json:"todo"`
	Changed bool       `json:"changed"`
}

func AddTodo(ctx context.Context, st Stores, spaceID, description string) (model.Todo, error) {
	spaceID = strings.TrimSpace(spaceID)
	description = strings.TrimSpace(description)
	if spaceID == "" {
		return model.Todo{}, invalidInput("space id is required")
	}
	if description == "" {
		return model.Todo{}, invalidInput("description is required")
	}
	now := st.now()
	t := model.Todo{
		ID:               store.NewID("tdo"),
		SpaceID:          spaceID,
		Description:      description,
		Status:           model.TodoStatusTodo,
		CreatedAt:        now,
		LastModifiedDate: now,
	}
	if err := st.Todos.Upsert(ctx, t); err != nil {
		return model.Todo{}, fmt.Errorf("save todo: %w", err)
	}
	if err := st.appendEvent(ctx, "todo.add", t.ID, t); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

// SetTodoStatus moves a to-do between columns. Moving into done stamps the
// completion date; moving out clears it. Setting the current status is a no-op.
func SetTodoStatus(ctx context.Context, st Stores, id, status string) (SetTodoStatusResult, error) {
	id = strings.TrimSpace(id)
	next, err := statusutil.NormalizeTodoStatus(status)
	if err != nil {
		return SetTodoStatusResult{}, InvalidInputError{Reason: err.Error()}
	}
	t, ok, err := st.Todos.Get(ctx, id)
	if err != nil {
		return SetTodoStatusResult{}, err
	}
	if !ok {
		return SetTodoStatusResult{}, NotFoundError{Kind: "todo", ID: id}
	}
	if t.Status == next {
		return SetTodoStatusResult{Todo: t}, nil
	}

	prev := t.Status
	now := st.now()
	t.Status = next
	t.LastModifiedDate = now
	if statusutil.IsEndState(next) {
		t.CompletionDate = &now
	} else {
		t.CompletionDate = nil
	}
	if err := st.Todos.Upsert(ctx, t); err != nil {
		return SetTodoStatusResult{}, fmt.Errorf("save todo: %w", err)
	}
	if err := st.appendEvent(ctx, "todo.set_status", t.ID, map[string]any{"from": prev, "to": next}); err != nil {
		return SetTodoStatusResult{}, err
	}
	return SetTodoStatusResult{Todo: t, Changed: true}, nil
}

// ListTodos returns a space's to-dos oldest first, optionally narrowed to some
// statuses.
func ListTodos(ctx context.Context, st Stores, spaceID string, statuses ...model.TodoStatus) ([]model.Todo, error) {
	all, err := st.Todos.BySpace(ctx, strings.TrimSpace(spaceID))
	if err != nil {
		return nil, err
	}
	if len(statuses) > 0 {
		want := map[model.TodoStatus]bool{}
		for _, s := range statuses {
			want[s] = true
		}
		filtered := all[:0]
		for _, t := range all {
			if want[t.Status] {
				filtered = append(filtered, t)
			}
		}
		all = filtered
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}

func AddProblem(ctx context.Context, st Stores, spaceID, problemType, description string) (model.Problem, error) {
	spaceID = strings.TrimSpace(spaceID)
	problemType = strings.TrimSpace(problemType)
	if spaceID == "" {
		return model.Problem{}, invalidInput("space id is required")
	}
	if problemType == "" {
		return model.Problem{}, invalidInput("problem type is required")
	}
	now := st.now()
	p := model.Problem{
		ID:               store.NewID("prb"),
		SpaceID:          spaceID,
		Description:      strings.TrimSpace(description),
		Type:             problemType,
		CreatedAt:        now,
		LastModifiedDate: now,
	}
	if err := st.Problems.Upsert(ctx, p); err != nil {
		return model.Problem{}, fmt.Errorf("save problem: %w", err)
	}
	if err := st.appendEvent(ctx, "problem.add", p.ID, p); err != nil {
		return model.Problem{}, err
	}
	return p, nil
}

func ResolveProblem(ctx context.Context, st Stores, id string, resolved bool) (model.Problem, error) {
	id = strings.TrimSpace(id)
	p, ok, err := st.Problems.Get(ctx, id)
	if err != nil {
		return model.Problem{}, err
	}
	if !ok {
		return model.Problem{}, NotFoundError{Kind: "problem", ID: id}
	}
	if p.Resolved == resolved {
		return p, nil
	}
	p.Resolved = resolved
	p.LastModifiedDate = st.now()
	if err := st.Problems.Upsert(ctx, p); err != nil {
		return model.Problem{}, fmt.Errorf("save problem: %w", err)
	}
	if err := st.appendEvent(ctx, "problem.resolve", p.ID, map[string]any{"resolved": resolved}); err != nil {
		return model.Problem{}, err
	}
	return p, nil
}

func ListProblems(ctx context.Context, st Stores, spaceID string, includeResolved bool) ([]model.Problem, error) {
	all, err := st.Problems.BySpace(ctx, strings.TrimSpace(spaceID))
	if err != nil {
		return nil, err
	}
	if !includeResolved {
		open := all[:0]
		for _, p := range all {
			if !p.Resolved {
				open = append(open, p)
			}
		}
		all = open
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}
