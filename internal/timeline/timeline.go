// Package timeline merges every event source of a space into one feed,
// newest first.
package timeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/schema"
)

const DefaultLimit = 50

const previewLen = 50

// Lister reads one collection for a space.
type Lister[T any] interface {
	BySpace(ctx context.Context, spaceID string) ([]T, error)
}

type Sources struct {
	Actions     Lister[model.ActionDefinition]
	ActionLogs  Lister[model.ActionLog]
	DataEntries Lister[model.DataEntryLog]
	Problems    Lister[model.Problem]
	Todos       Lister[model.Todo]
}

type Options struct {
	// Limit <= 0 means DefaultLimit.
	Limit int
	// Kinds restricts the feed when non-empty.
	Kinds []model.TimelineKind
}

func Build(ctx context.Context, src Sources, spaceID string, limit int) ([]model.TimelineItem, error) {
	return BuildWith(ctx, src, spaceID, Options{Limit: limit})
}

// BuildWith recomputes the feed from scratch on every call.
func BuildWith(ctx context.Context, src Sources, spaceID string, opts Options) ([]model.TimelineItem, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	want := map[model.TimelineKind]bool{}
	for _, k := range opts.Kinds {
		want[k] = true
	}
	include := func(k model.TimelineKind) bool { return len(want) == 0 || want[k] }

	defs, err := src.Actions.BySpace(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("load actions: %w", err)
	}
	byID := make(map[string]model.ActionDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	var items []model.TimelineItem

	if include(model.TimelineAction) {
		logs, err := src.ActionLogs.BySpace(ctx, spaceID)
		if err != nil {
			return nil, fmt.Errorf("load action logs: %w", err)
		}
		for _, l := range logs {
			def, ok := byID[l.ActionDefinitionID]
			items = append(items, projectActionLog(l, def, ok))
		}
	}
	if include(model.TimelineDataEntry) {
		entries, err := src.DataEntries.BySpace(ctx, spaceID)
		if err != nil {
			return nil, fmt.Errorf("load data entries: %w", err)
		}
		for _, e := range entries {
			def, ok := byID[e.ActionDefinitionID]
			items = append(items, projectDataEntry(e, def, ok))
		}
	}
	if include(model.TimelineProblem) {
		problems, err := src.Problems.BySpace(ctx, spaceID)
		if err != nil {
			return nil, fmt.Errorf("load problems: %w", err)
		}
		for _, p := range problems {
			items = append(items, projectProblem(p))
		}
	}
	if include(model.TimelineTodo) {
		todos, err := src.Todos.BySpace(ctx, spaceID)
		if err != nil {
			return nil, fmt.Errorf("load todos: %w", err)
		}
		for _, t := range todos {
			items = append(items, projectTodo(t))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].Timestamp.After(items[j].Timestamp)
		}
		return items[i].ID > items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []model.TimelineItem{}
	}
	return items, nil
}

func projectActionLog(l model.ActionLog, def model.ActionDefinition, known bool) model.TimelineItem {
	title := "Unknown action"
	if known {
		title = def.Name
		if def.Variant() == model.VariantTimer {
			title += " (Timer)"
		}
	}

	var parts []string
	if l.CompletedStepID != nil {
		desc := "(removed step)"
		if st, ok := schema.FindStep(def, *l.CompletedStepID); ok && known {
			desc = fmt.Sprintf("%q", st.Description)
		}
		outcome := model.StepCompleted
		if l.StepOutcome != nil {
			outcome = *l.StepOutcome
		}
		parts = append(parts, fmt.Sprintf("Step %s %s", desc, outcome))
	}
	if l.DurationMs != nil {
		parts = append(parts, "Duration: "+FormatDuration(*l.DurationMs))
	}
	if l.Notes != nil && strings.TrimSpace(*l.Notes) != "" {
		parts = append(parts, strings.TrimSpace(*l.Notes))
	}

	points := l.PointsAwarded
	full := l.IsMultiStepFullCompletion
	return model.TimelineItem{
		ID:                 l.ID,
		SpaceID:            l.SpaceID,
		Timestamp:          l.Timestamp,
		Kind:               model.TimelineAction,
		Title:              title,
		Description:        strings.Join(parts, " · "),
		ActionDefinitionID: l.ActionDefinitionID,
		PointsAwarded:      &points,
		StepOutcome:        l.StepOutcome,
		FullCompletion:     &full,
		DurationMs:         l.DurationMs,
	}
}

func projectDataEntry(e model.DataEntryLog, def model.ActionDefinition, known bool) model.TimelineItem {
	title := "Unknown action"
	var fields []model.FormField
	if known {
		title = def.Name
		if e.StepID != nil {
			if st, ok := schema.FindStep(def, *e.StepID); ok {
				title += ": " + st.Description
			}
		}
		fields, _ = schema.FieldsFor(def, e.StepID)
	}

	points := e.PointsAwarded
	return model.TimelineItem{
		ID:                 e.ID,
		SpaceID:            e.SpaceID,
		Timestamp:          e.Timestamp,
		Kind:               model.TimelineDataEntry,
		Title:              title,
		Description:        dataPreview(fields, e.Data),
		ActionDefinitionID: e.ActionDefinitionID,
		PointsAwarded:      &points,
		Data:               e.Data,
	}
}

func dataPreview(fields []model.FormField, data map[string]any) string {
	const placeholder = "Data submitted"
	if len(fields) == 0 {
		return placeholder
	}
	first := fields[0]
	for _, f := range fields[1:] {
		if f.Order < first.Order {
			first = f
		}
	}
	v, ok := data[first.Name]
	if !ok || v == nil {
		return placeholder
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return placeholder
	}
	return first.Label + ": " + truncate(s, previewLen)
}

func projectProblem(p model.Problem) model.TimelineItem {
	resolved := p.Resolved
	return model.TimelineItem{
		ID:          p.ID,
		SpaceID:     p.SpaceID,
		Timestamp:   p.LastModifiedDate,
		Kind:        model.TimelineProblem,
		Title:       "Problem: " + p.Type,
		Description: p.Description,
		ProblemType: p.Type,
		Resolved:    &resolved,
	}
}

func projectTodo(t model.Todo) model.TimelineItem {
	var desc string
	switch {
	case t.CreatedAt.Equal(t.LastModifiedDate):
		desc = "Added to board"
	case t.Status == model.TodoStatusDone:
		done := t.LastModifiedDate
		if t.CompletionDate != nil {
			done = *t.CompletionDate
		}
		desc = "Completed on " + done.Format("Jan 2, 2006")
	default:
		desc = "Status changed to " + string(t.Status)
	}
	return model.TimelineItem{
		ID:          t.ID,
		SpaceID:     t.SpaceID,
		Timestamp:   t.LastModifiedDate,
		Kind:        model.TimelineTodo,
		Title:       "To-do: " + t.Description,
		Description: desc,
		TodoStatus:  t.Status,
	}
}

// FormatDuration renders milliseconds as "1h 2m 3s". Zero hours and minutes
// are omitted; zero seconds are omitted only when hours or minutes are shown.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	if s > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	return strings.Join(parts, " ")
}

// truncate shortens s to at most n runes, ellipsis included.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	const ellipsis = "..."
	if n <= len(ellipsis) {
		return string(r[:n])
	}
	return string(r[:n-len(ellipsis)]) + ellipsis
}
