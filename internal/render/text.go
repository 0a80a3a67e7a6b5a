package render

import (
	"fmt"
	"strings"
	"time"

	"momentum-cli/internal/model"
	"momentum-cli/internal/mutate"
	"momentum-cli/internal/progress"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

const DefaultWidth = 80

func truncate(s string, w int) string {
	if w <= 0 || xansi.StringWidth(s) <= w {
		return s
	}
	return xansi.Truncate(s, w, "…")
}

func points(n int) string {
	return stylePoints().Render(fmt.Sprintf("+%s", humanize.Comma(int64(n))))
}

// Timeline renders feed items newest first with times relative to now.
func Timeline(items []model.TimelineItem, now time.Time, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	if len(items) == 0 {
		return styleMuted().Render("Nothing here yet.")
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		when := humanize.RelTime(it.Timestamp, now, "ago", "from now")
		head := styleMuted().Render(fmt.Sprintf("%-16s", when)) + " " + styleTitle().Render(it.Title)
		if it.PointsAwarded != nil && *it.PointsAwarded > 0 {
			head += " " + points(*it.PointsAwarded)
		}
		if it.FullCompletion != nil && *it.FullCompletion && it.StepOutcome != nil {
			head += " " + styleBonus().Render("★")
		}
		if it.Resolved != nil && *it.Resolved {
			head += " " + styleMuted().Render("(resolved)")
		}
		b.WriteString(truncate(head, width))
		if d := strings.TrimSpace(it.Description); d != "" {
			b.WriteString("\n")
			b.WriteString(truncate("    "+d, width))
		}
	}
	return b.String()
}

// Progress renders level, total and a bar towards the next level.
func Progress(s progress.Snapshot) string {
	const barWidth = 20
	prevAt := 0.0
	if s.Level > 1 {
		prevAt = s.NextLevelAt * float64(s.Level-1) / float64(s.Level)
	}
	span := s.NextLevelAt - prevAt
	frac := 1.0
	if span > 0 {
		frac = (float64(s.Points) - prevAt) / span
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * barWidth)
	bar := styleAccent().Render(strings.Repeat("█", filled)) + styleMuted().Render(strings.Repeat("░", barWidth-filled))

	lines := []string{
		styleTitle().Render(fmt.Sprintf("Level %d", s.Level)) + "  " + humanize.Comma(int64(s.Points)) + " points",
		bar,
		styleMuted().Render(fmt.Sprintf("Next level at %s (%s to go)",
			humanize.Comma(int64(s.NextLevelAt)), humanize.Comma(int64(s.PointsToLevel)))),
	}
	return strings.Join(lines, "\n")
}

// ActionList renders one line per definition in display order.
func ActionList(defs []model.ActionDefinition, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	if len(defs) == 0 {
		return styleMuted().Render("No actions defined.")
	}
	lines := make([]string, 0, len(defs))
	for _, d := range defs {
		line := fmt.Sprintf("%2d. %s  %s", d.Order, styleTitle().Render(d.Name), styleMuted().Render(summary(d)))
		if !d.IsEnabled {
			line = styleMuted().Render(fmt.Sprintf("%2d. %s  %s (disabled)", d.Order, d.Name, summary(d)))
		}
		lines = append(lines, truncate(line, width)+"\n    "+styleMuted().Render(d.ID))
	}
	return strings.Join(lines, "\n")
}

func summary(d model.ActionDefinition) string {
	switch shape := d.Shape.(type) {
	case model.SingleShape, nil:
		return fmt.Sprintf("single · %d pts", d.PointsForCompletion)
	case model.TimerShape:
		return fmt.Sprintf("timer · %d pts", d.PointsForCompletion)
	case model.MultiStepShape:
		return fmt.Sprintf("%d steps · %d pts bonus", len(shape.Steps), d.PointsForCompletion)
	case model.DataEntryShape:
		return fmt.Sprintf("form (%d fields) · %d pts", len(shape.Fields), d.PointsForCompletion)
	default:
		panic(fmt.Sprintf("render: unhandled shape %T", shape))
	}
}

// Action renders one definition with its checklist state (multi-step only).
func Action(d model.ActionDefinition, checklist []mutate.StepState, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	var b strings.Builder
	b.WriteString(styleTitle().Render(d.Name) + "  " + styleMuted().Render(summary(d)))
	if !d.IsEnabled {
		b.WriteString(" " + styleWarn().Render("disabled"))
	}
	b.WriteString("\n" + styleMuted().Render(d.ID))
	if d.Description != nil {
		if md := Markdown(*d.Description, width); md != "" {
			b.WriteString("\n\n" + md)
		}
	}

	switch shape := d.Shape.(type) {
	case model.MultiStepShape:
		state := map[string]mutate.StepState{}
		for _, s := range checklist {
			state[s.Step.ID] = s
		}
		b.WriteString("\n")
		for _, st := range shape.Steps {
			mark := "[ ]"
			switch {
			case state[st.ID].Completed:
				mark = stylePoints().Render("[x]")
			case state[st.ID].Skipped:
				mark = styleMuted().Render("[-]")
			}
			line := fmt.Sprintf("\n%s %s %s", mark, st.Description, styleMuted().Render(fmt.Sprintf("+%d", st.PointsPerStep)))
			b.WriteString(truncate(line, width))
			if st.StepType == model.StepTypeDataEntry {
				b.WriteString(fields(st.FormFields, "      ", width))
			}
		}
	case model.DataEntryShape:
		b.WriteString("\n")
		b.WriteString(fields(shape.Fields, "  ", width))
	case model.SingleShape, model.TimerShape, nil:
	default:
		panic(fmt.Sprintf("render: unhandled shape %T", shape))
	}
	return b.String()
}

func fields(ff []model.FormField, indent string, width int) string {
	var b strings.Builder
	for _, f := range ff {
		req := ""
		if f.IsRequired {
			req = styleWarn().Render("*")
		}
		line := fmt.Sprintf("\n%s%s%s %s", indent, f.Label, req, styleMuted().Render("("+f.Name+", "+string(f.FieldType)+")"))
		b.WriteString(truncate(line, width))
	}
	return b.String()
}

// Recorded summarizes the outcome of logging an action.
func Recorded(actionName string, res mutate.RecordResult) string {
	head := "Logged " + styleTitle().Render(actionName)
	if res.Log.StepOutcome != nil && *res.Log.StepOutcome == model.StepSkipped {
		head = "Skipped a step of " + styleTitle().Render(actionName)
	}
	parts := []string{head, points(res.Log.PointsAwarded)}
	if res.Log.CompletedStepID != nil && res.Log.IsMultiStepFullCompletion {
		parts = append(parts, styleBonus().Render("checklist complete"))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(parts, " "),
		styleMuted().Render(fmt.Sprintf("Level %d · %s points", res.Progress.Level, humanize.Comma(int64(res.Progress.Points)))),
	)
}
