package timeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"momentum-cli/internal/model"

	"github.com/stretchr/testify/require"
)

type sliceLister[T any] struct {
	items   []T
	spaceOf func(T) string
}

func (l sliceLister[T]) BySpace(_ context.Context, spaceID string) ([]T, error) {
	var out []T
	for _, it := range l.items {
		if l.spaceOf(it) == spaceID {
			out = append(out, it)
		}
	}
	return out, nil
}

type fixture struct {
	actions  []model.ActionDefinition
	logs     []model.ActionLog
	entries  []model.DataEntryLog
	problems []model.Problem
	todos    []model.Todo
}

func (f fixture) sources() Sources {
	return Sources{
		Actions:     sliceLister[model.ActionDefinition]{f.actions, func(v model.ActionDefinition) string { return v.SpaceID }},
		ActionLogs:  sliceLister[model.ActionLog]{f.logs, func(v model.ActionLog) string { return v.SpaceID }},
		DataEntries: sliceLister[model.DataEntryLog]{f.entries, func(v model.DataEntryLog) string { return v.SpaceID }},
		Problems:    sliceLister[model.Problem]{f.problems, func(v model.Problem) string { return v.SpaceID }},
		Todos:       sliceLister[model.Todo]{f.todos, func(v model.Todo) string { return v.SpaceID }},
	}
}

var base = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func at(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

func ptr[T any](v T) *T { return &v }

func TestBuild_OrderAndLimit(t *testing.T) {
	f := fixture{
		actions: []model.ActionDefinition{{ID: "act-1", SpaceID: "spc-1", Name: "Water", Shape: model.SingleShape{}}},
		logs: []model.ActionLog{
			{ID: "log-1", SpaceID: "spc-1", ActionDefinitionID: "act-1", Timestamp: at(1)},
			{ID: "log-2", SpaceID: "spc-1", ActionDefinitionID: "act-1", Timestamp: at(5)},
			{ID: "log-3", SpaceID: "spc-2", ActionDefinitionID: "act-1", Timestamp: at(9)},
		},
		problems: []model.Problem{{ID: "prb-1", SpaceID: "spc-1", Type: "distraction", CreatedAt: at(0), LastModifiedDate: at(3)}},
		todos:    []model.Todo{{ID: "tdo-1", SpaceID: "spc-1", Description: "Call mum", Status: model.TodoStatusTodo, CreatedAt: at(5), LastModifiedDate: at(5)}},
	}

	items, err := Build(context.Background(), f.sources(), "spc-1", 0)
	require.NoError(t, err)
	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	// log-2 and tdo-1 share a timestamp; ties break by id descending.
	require.Equal(t, []string{"tdo-1", "log-2", "prb-1", "log-1"}, ids)

	items, err = Build(context.Background(), f.sources(), "spc-1", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "tdo-1", items[0].ID)
}

func TestBuild_EmptySpaceIsNotNil(t *testing.T) {
	items, err := Build(context.Background(), fixture{}.sources(), "spc-1", 10)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestBuild_DefaultLimit(t *testing.T) {
	var f fixture
	for i := 0; i < DefaultLimit+10; i++ {
		f.problems = append(f.problems, model.Problem{ID: "prb-" + strings.Repeat("x", i+1), SpaceID: "spc-1", LastModifiedDate: at(i)})
	}
	items, err := Build(context.Background(), f.sources(), "spc-1", -1)
	require.NoError(t, err)
	require.Len(t, items, DefaultLimit)
}

func TestBuildWith_Kinds(t *testing.T) {
	f := fixture{
		problems: []model.Problem{{ID: "prb-1", SpaceID: "spc-1", LastModifiedDate: at(1)}},
		todos:    []model.Todo{{ID: "tdo-1", SpaceID: "spc-1", CreatedAt: at(2), LastModifiedDate: at(2)}},
	}
	items, err := BuildWith(context.Background(), f.sources(), "spc-1", Options{Kinds: []model.TimelineKind{model.TimelineTodo}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, model.TimelineTodo, items[0].Kind)
}

func TestProjectActionLog(t *testing.T) {
	multi := model.ActionDefinition{ID: "act-1", SpaceID: "spc-1", Name: "Routine", Shape: model.MultiStepShape{Steps: []model.Step{
		{ID: "stp-a", Description: "Stretch", StepType: model.StepTypeDescription},
	}}}
	timer := model.ActionDefinition{ID: "act-2", SpaceID: "spc-1", Name: "Focus", Shape: model.TimerShape{}}
	f := fixture{
		actions: []model.ActionDefinition{multi, timer},
		logs: []model.ActionLog{
			{ID: "log-1", SpaceID: "spc-1", ActionDefinitionID: "act-1", Timestamp: at(1), PointsAwarded: 5,
				CompletedStepID: ptr("stp-a"), StepOutcome: ptr(model.StepCompleted), Notes: ptr(" felt good ")},
			{ID: "log-2", SpaceID: "spc-1", ActionDefinitionID: "act-1", Timestamp: at(2),
				CompletedStepID: ptr("stp-gone"), StepOutcome: ptr(model.StepSkipped)},
			{ID: "log-3", SpaceID: "spc-1", ActionDefinitionID: "act-2", Timestamp: at(3), PointsAwarded: 6,
				IsMultiStepFullCompletion: true, DurationMs: ptr(int64(3723000))},
			{ID: "log-4", SpaceID: "spc-1", ActionDefinitionID: "act-deleted", Timestamp: at(4)},
		},
	}
	items, err := Build(context.Background(), f.sources(), "spc-1", 0)
	require.NoError(t, err)
	byID := map[string]model.TimelineItem{}
	for _, it := range items {
		byID[it.ID] = it
	}

	require.Equal(t, "Routine", byID["log-1"].Title)
	require.Equal(t, `Step "Stretch" completed · felt good`, byID["log-1"].Description)
	require.Equal(t, 5, *byID["log-1"].PointsAwarded)

	require.Equal(t, "Step (removed step) skipped", byID["log-2"].Description)

	require.Equal(t, "Focus (Timer)", byID["log-3"].Title)
	require.Equal(t, "Duration: 1h 2m 3s", byID["log-3"].Description)
	require.True(t, *byID["log-3"].FullCompletion)

	require.Equal(t, "Unknown action", byID["log-4"].Title)
	require.Equal(t, model.TimelineAction, byID["log-4"].Kind)
}

func TestProjectDataEntry(t *testing.T) {
	form := model.ActionDefinition{ID: "act-1", SpaceID: "spc-1", Name: "Journal", Shape: model.DataEntryShape{Fields: []model.FormField{
		{ID: "fld-2", Name: "mood", Label: "Mood", Order: 1},
		{ID: "fld-1", Name: "entry", Label: "Entry", Order: 0},
	}}}
	long := strings.Repeat("é", 60)
	f := fixture{
		actions: []model.ActionDefinition{form},
		entries: []model.DataEntryLog{
			{ID: "dat-1", SpaceID: "spc-1", ActionDefinitionID: "act-1", Timestamp: at(1), Data: map[string]any{"entry": long, "mood": "ok"}, PointsAwarded: 3},
			{ID: "dat-2", SpaceID: "spc-1", ActionDefinitionID: "act-1", Timestamp: at(2), Data: map[string]any{"mood": "ok"}},
		},
	}
	items, err := Build(context.Background(), f.sources(), "spc-1", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "dat-2", items[0].ID)
	require.Equal(t, "Data submitted", items[0].Description)

	require.Equal(t, "Journal", items[1].Title)
	require.Equal(t, "Entry: "+strings.Repeat("é", 47)+"...", items[1].Description)
	require.Len(t, []rune(strings.TrimPrefix(items[1].Description, "Entry: ")), 50)
	require.Equal(t, model.TimelineDataEntry, items[1].Kind)
	require.Equal(t, 3, *items[1].PointsAwarded)
}

func TestProjectTodo(t *testing.T) {
	done := at(30)
	f := fixture{todos: []model.Todo{
		{ID: "tdo-1", SpaceID: "spc-1", Description: "Buy milk", Status: model.TodoStatusTodo, CreatedAt: at(1), LastModifiedDate: at(1)},
		{ID: "tdo-2", SpaceID: "spc-1", Description: "Pay rent", Status: model.TodoStatusDone, CreatedAt: at(1), CompletionDate: &done, LastModifiedDate: at(30)},
		{ID: "tdo-3", SpaceID: "spc-1", Description: "Fix bike", Status: model.TodoStatusDoing, CreatedAt: at(1), LastModifiedDate: at(20)},
	}}
	items, err := Build(context.Background(), f.sources(), "spc-1", 0)
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.Equal(t, "To-do: Pay rent", items[0].Title)
	require.Equal(t, "Completed on May 4, 2026", items[0].Description)
	require.Equal(t, "Status changed to doing", items[1].Description)
	require.Equal(t, "Added to board", items[2].Description)
	require.Equal(t, at(20), items[1].Timestamp)
}

func TestProjectProblem(t *testing.T) {
	f := fixture{problems: []model.Problem{
		{ID: "prb-1", SpaceID: "spc-1", Type: "blocker", Description: "No gym", Resolved: true, CreatedAt: at(1), LastModifiedDate: at(7)},
	}}
	items, err := Build(context.Background(), f.sources(), "spc-1", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Problem: blocker", items[0].Title)
	require.Equal(t, at(7), items[0].Timestamp)
	require.True(t, *items[0].Resolved)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 50))
	require.Equal(t, strings.Repeat("a", 50), truncate(strings.Repeat("a", 50), 50))
	require.Equal(t, strings.Repeat("a", 47)+"...", truncate(strings.Repeat("a", 51), 50))
	require.Equal(t, "ab", truncate("abcdef", 2))
}

func TestFormatDuration(t *testing.T) {
	tests := map[int64]string{
		0:        "0s",
		999:      "0s",
		45000:    "45s",
		60000:    "1m",
		61000:    "1m 1s",
		3600000:  "1h",
		3723000:  "1h 2m 3s",
		7200500:  "2h",
		-5000:    "0s",
		90061000: "25h 1m 1s",
	}
	for ms, want := range tests {
		require.Equal(t, want, FormatDuration(ms), "ms=%d", ms)
	}
}
