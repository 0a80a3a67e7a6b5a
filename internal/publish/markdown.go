package publish

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"momentum-cli/internal/model"
	"momentum-cli/internal/mutate"
	"momentum-cli/internal/schema"
	"momentum-cli/internal/timeline"
)

type RenderOptions struct {
	IncludeDisabled bool
	// ActivityLimit caps the "Recent activity" section; <= 0 uses the timeline default.
	ActivityLimit int
}

const stampLayout = "2006-01-02 15:04 UTC"

func stamp(t time.Time) string { return t.UTC().Format(stampLayout) }

type mdWriter struct{ buf bytes.Buffer }

func (w *mdWriter) ln(s string) {
	w.buf.WriteString(s)
	w.buf.WriteString("\n")
}

func (w *mdWriter) lnf(format string, args ...any) { w.ln(fmt.Sprintf(format, args...)) }

// RenderSpaceMarkdown renders a space overview: progress, actions, board,
// open problems and recent activity.
func RenderSpaceMarkdown(ctx context.Context, st mutate.Stores, spaceID string, opt RenderOptions) (string, error) {
	sp, err := mutate.ResolveSpace(ctx, st, spaceID)
	if err != nil {
		return "", err
	}
	defs, err := mutate.ListActions(ctx, st, sp.ID)
	if err != nil {
		return "", err
	}
	prog, err := st.Progress.Get(ctx)
	if err != nil {
		return "", err
	}
	todos, err := mutate.ListTodos(ctx, st, sp.ID)
	if err != nil {
		return "", err
	}
	problems, err := mutate.ListProblems(ctx, st, sp.ID, false)
	if err != nil {
		return "", err
	}
	items, err := mutate.Timeline(ctx, st, sp.ID, timeline.Options{Limit: opt.ActivityLimit})
	if err != nil {
		return "", err
	}

	var w mdWriter
	w.ln("# " + strings.TrimSpace(sp.Name))
	w.ln("")
	w.ln("## Meta")
	w.ln("")
	w.ln("- ID: " + sp.ID)
	w.ln("- Created: " + stamp(sp.CreatedAt))
	w.lnf("- Level: %d (%d points)", prog.Level, prog.Points)
	w.ln("")

	w.ln("## Actions")
	w.ln("")
	shown := 0
	for _, d := range defs {
		if !d.IsEnabled && !opt.IncludeDisabled {
			continue
		}
		line := fmt.Sprintf("- [%s](actions/%s.md) · %s · %d pts", d.Name, d.ID, d.Variant(), d.PointsForCompletion)
		if !d.IsEnabled {
			line += " · disabled"
		}
		w.ln(line)
		shown++
	}
	if shown == 0 {
		w.ln("_No actions._")
	}
	w.ln("")

	w.ln("## Todos")
	w.ln("")
	if len(todos) == 0 {
		w.ln("_Nothing on the board._")
	}
	for _, t := range todos {
		box := "[ ]"
		switch t.Status {
		case model.TodoStatusDone:
			box = "[x]"
		case model.TodoStatusDoing:
			box = "[ ] (doing)"
		}
		w.lnf("- %s %s", box, t.Description)
	}
	w.ln("")

	w.ln("## Open problems")
	w.ln("")
	if len(problems) == 0 {
		w.ln("_None._")
	}
	for _, p := range problems {
		line := "- **" + p.Type + "**"
		if d := strings.TrimSpace(p.Description); d != "" {
			line += ": " + d
		}
		w.ln(line)
	}
	w.ln("")

	w.ln("## Recent activity")
	w.ln("")
	if len(items) == 0 {
		w.ln("_No activity yet._")
	}
	for _, it := range items {
		line := fmt.Sprintf("- %s · %s", stamp(it.Timestamp), it.Title)
		if it.Description != "" {
			line += " · " + it.Description
		}
		if it.PointsAwarded != nil && *it.PointsAwarded > 0 {
			line += fmt.Sprintf(" · +%d", *it.PointsAwarded)
		}
		w.ln(line)
	}

	return w.buf.String(), nil
}

// RenderActionMarkdown renders one action with its checklist state and full
// history, newest first.
func RenderActionMarkdown(ctx context.Context, st mutate.Stores, actionID string) (string, error) {
	id := strings.TrimSpace(actionID)
	def, ok, err := st.Actions.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", mutate.NotFoundError{Kind: "action", ID: id}
	}
	logs, err := mutate.ListActionLogs(ctx, st, def.SpaceID, def.ID)
	if err != nil {
		return "", err
	}
	entries, err := mutate.ListDataEntries(ctx, st, def.SpaceID, def.ID)
	if err != nil {
		return "", err
	}

	var w mdWriter
	w.ln("# " + strings.TrimSpace(def.Name))
	w.ln("")
	w.ln("## Meta")
	w.ln("")
	w.ln("- ID: " + def.ID)
	w.ln("- Variant: " + string(def.Variant()))
	w.lnf("- Points for completion: %d", def.PointsForCompletion)
	if !def.IsEnabled {
		w.ln("- Disabled: true")
	}
	w.ln("- Created: " + stamp(def.CreatedAt))
	w.ln("")

	if def.Description != nil && strings.TrimSpace(*def.Description) != "" {
		w.ln("## Description")
		w.ln("")
		w.ln(strings.TrimSpace(*def.Description))
		w.ln("")
	}

	switch shape := def.Shape.(type) {
	case model.MultiStepShape:
		w.ln("## Steps")
		w.ln("")
		for _, s := range mutate.ChecklistState(def, logs) {
			box := "[ ]"
			switch {
			case s.Completed:
				box = "[x]"
			case s.Skipped:
				box = "[-]"
			}
			w.lnf("- %s %s (+%d)", box, s.Step.Description, s.Step.PointsPerStep)
			for _, f := range s.Step.FormFields {
				w.ln("  - " + fieldLine(f))
			}
		}
		w.ln("")
	case model.DataEntryShape:
		w.ln("## Form")
		w.ln("")
		for _, f := range shape.Fields {
			w.ln("- " + fieldLine(f))
		}
		w.ln("")
	case model.SingleShape, model.TimerShape, nil:
	default:
		panic(fmt.Sprintf("publish: unhandled shape %T", shape))
	}

	w.ln("## History")
	w.ln("")
	lines := historyLines(def, logs, entries)
	if len(lines) == 0 {
		w.ln("_Never logged._")
	}
	for _, l := range lines {
		w.ln("- " + l.text)
	}

	return w.buf.String(), nil
}

func fieldLine(f model.FormField) string {
	line := fmt.Sprintf("%s (`%s`, %s)", f.Label, f.Name, f.FieldType)
	if f.IsRequired {
		line += " required"
	}
	return line
}

type historyLine struct {
	at   time.Time
	id   string
	text string
}

func historyLines(def model.ActionDefinition, logs []model.ActionLog, entries []model.DataEntryLog) []historyLine {
	out := make([]historyLine, 0, len(logs)+len(entries))
	for _, l := range logs {
		parts := []string{stamp(l.Timestamp)}
		switch {
		case l.CompletedStepID != nil:
			desc := "(removed step)"
			if s, ok := schema.FindStep(def, *l.CompletedStepID); ok {
				desc = s.Description
			}
			outcome := model.StepCompleted
			if l.StepOutcome != nil {
				outcome = *l.StepOutcome
			}
			parts = append(parts, fmt.Sprintf("%s %s", desc, outcome))
		case l.DurationMs != nil:
			parts = append(parts, "timed "+timeline.FormatDuration(*l.DurationMs))
		default:
			parts = append(parts, "completed")
		}
		if l.PointsAwarded > 0 {
			parts = append(parts, fmt.Sprintf("+%d", l.PointsAwarded))
		}
		if l.IsMultiStepFullCompletion && l.CompletedStepID != nil {
			parts = append(parts, "**checklist complete**")
		}
		if l.Notes != nil && strings.TrimSpace(*l.Notes) != "" {
			parts = append(parts, "_"+strings.TrimSpace(*l.Notes)+"_")
		}
		out = append(out, historyLine{at: l.Timestamp, id: l.ID, text: strings.Join(parts, " · ")})
	}
	for _, e := range entries {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kv := make([]string, 0, len(keys))
		for _, k := range keys {
			kv = append(kv, fmt.Sprintf("%s=%v", k, e.Data[k]))
		}
		parts := []string{stamp(e.Timestamp), "submitted " + strings.Join(kv, ", ")}
		if e.PointsAwarded > 0 {
			parts = append(parts, fmt.Sprintf("+%d", e.PointsAwarded))
		}
		out = append(out, historyLine{at: e.Timestamp, id: e.ID, text: strings.Join(parts, " · ")})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].at.Equal(out[j].at) {
			return out[i].at.After(out[j].at)
		}
		return out[i].id > out[j].id
	})
	return out
}
