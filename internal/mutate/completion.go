package mutate

import "momentum-cli/internal/model"

// CompletedStepIDs collects the step ids logged with outcome "completed".
func CompletedStepIDs(logs []model.ActionLog) map[string]bool {
	out := map[string]bool{}
	for _, l := range logs {
		if l.CompletedStepID == nil || l.StepOutcome == nil {
			continue
		}
		if *l.StepOutcome == model.StepCompleted {
			out[*l.CompletedStepID] = true
		}
	}
	return out
}

// IsFullyComplete reports whether the set of step ids logged as completed
// equals the set of defined step ids, by size and membership. An action
// without steps is never fully complete. A completed log for a step that was
// later removed keeps the sets unequal.
func IsFullyComplete(logs []model.ActionLog, stepIDs []string) bool {
	if len(stepIDs) == 0 {
		return false
	}
	defined := make(map[string]bool, len(stepIDs))
	for _, id := range stepIDs {
		defined[id] = true
	}
	done := CompletedStepIDs(logs)
	if len(done) != len(defined) {
		return false
	}
	for id := range done {
		if !defined[id] {
			return false
		}
	}
	return true
}

type StepState struct {
	Step      model.Step `json:"step"`
	Completed bool       `json:"completed"`
	Skipped   bool       `json:"skipped"`
}

// ChecklistState summarizes a multi-step action's history per step.
func ChecklistState(def model.ActionDefinition, logs []model.ActionLog) []StepState {
	done := CompletedStepIDs(logs)
	skipped := map[string]bool{}
	for _, l := range logs {
		if l.CompletedStepID != nil && l.StepOutcome != nil && *l.StepOutcome == model.StepSkipped {
			skipped[*l.CompletedStepID] = true
		}
	}
	steps := def.Steps()
	out := make([]StepState, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepState{Step: s, Completed: done[s.ID], Skipped: skipped[s.ID] && !done[s.ID]})
	}
	return out
}
