package mutate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/schema"
	"momentum-cli/internal/store"
)

type RecordCompletionInput struct {
	SpaceID            string             `json:"spaceId"`
	ActionDefinitionID string             `json:"actionDefinitionId"`
	CompletedStepID    *string            `json:"completedStepId,omitempty"`
	StepOutcome        *model.StepOutcome `json:"stepOutcome,omitempty"`
	Notes              *string            `json:"notes,omitempty"`
	DurationMs         *int64             `json:"durationMs,omitempty"`
}

type RecordResult struct {
	Log      model.ActionLog    `json:"log"`
	Progress model.UserProgress `json:"progress"`
}

// RecordCompletion appends one log for an action (or one of its steps),
// decides the points it earns and forwards them to progression.
//
// For multi-step actions the completion set is recomputed from the full log
// history on every call; the checklist bonus is paid only by the log that moves
// the set from incomplete to complete.
func RecordCompletion(ctx context.Context, st Stores, in RecordCompletionInput) (RecordResult, error) {
	def, err := st.loadAction(ctx, strings.TrimSpace(in.ActionDefinitionID))
	if err != nil {
		return RecordResult{}, err
	}
	if !def.IsEnabled {
		return RecordResult{}, DisabledError{ActionID: def.ID}
	}

	spaceID := strings.TrimSpace(in.SpaceID)
	if spaceID == "" {
		spaceID = def.SpaceID
	}
	if spaceID != def.SpaceID {
		return RecordResult{}, invalidInput("action %s does not belong to space %s", def.ID, spaceID)
	}

	stepID := trimmedOrNil(in.CompletedStepID)
	var outcome *model.StepOutcome
	if in.StepOutcome != nil {
		o, err := schema.ParseStepOutcome(string(*in.StepOutcome))
		if err != nil {
			return RecordResult{}, InvalidInputError{Reason: err.Error()}
		}
		outcome = &o
	}
	if stepID != nil && outcome == nil {
		return RecordResult{}, invalidInput("stepOutcome is required when completedStepId is set")
	}
	if in.DurationMs != nil {
		if def.Variant() != model.VariantTimer {
			return RecordResult{}, invalidInput("durationMs only applies to timer actions")
		}
		if *in.DurationMs < 0 {
			return RecordResult{}, invalidInput("durationMs must be >= 0")
		}
	}

	log := model.ActionLog{
		ID:                 store.NewID("log"),
		SpaceID:            def.SpaceID,
		ActionDefinitionID: def.ID,
		Timestamp:          st.now(),
		Notes:              trimmedOrNil(in.Notes),
	}

	switch shape := def.Shape.(type) {
	case model.SingleShape, nil:
		if stepID != nil {
			return RecordResult{}, invalidInput("single actions have no steps")
		}
		log.PointsAwarded = def.PointsForCompletion
		log.IsMultiStepFullCompletion = true
	case model.TimerShape:
		if stepID != nil {
			return RecordResult{}, invalidInput("timer actions have no steps")
		}
		log.PointsAwarded = def.PointsForCompletion
		log.IsMultiStepFullCompletion = true
		log.DurationMs = in.DurationMs
	case model.MultiStepShape:
		if stepID == nil {
			// Whole-action log without a target step.
			log.PointsAwarded = def.PointsForCompletion
			log.IsMultiStepFullCompletion = true
			break
		}
		step, ok := schema.FindStep(def, *stepID)
		if !ok {
			return RecordResult{}, NotFoundError{Kind: "step", ID: *stepID}
		}
		log.CompletedStepID = &step.ID
		log.StepOutcome = outcome
		if *outcome == model.StepSkipped {
			break
		}

		prior, err := st.ActionLogs.ByRef(ctx, def.ID)
		if err != nil {
			return RecordResult{}, fmt.Errorf("load history for %s: %w", def.ID, err)
		}
		stepIDs := schema.StepIDs(def)
		wasComplete := IsFullyComplete(prior, stepIDs)
		isComplete := IsFullyComplete(append(prior, log), stepIDs)

		log.PointsAwarded = step.PointsPerStep
		if isComplete && !wasComplete {
			log.PointsAwarded += def.PointsForCompletion
			log.IsMultiStepFullCompletion = true
		}
	case model.DataEntryShape:
		return RecordResult{}, invalidInput("data-entry actions are logged by submitting data")
	default:
		panic(fmt.Sprintf("mutate: unhandled shape %T", shape))
	}

	if err := st.ActionLogs.Upsert(ctx, log); err != nil {
		return RecordResult{}, fmt.Errorf("save log: %w", err)
	}
	prog, err := st.award(ctx, log.PointsAwarded, func(ctx context.Context) error {
		return st.ActionLogs.Delete(ctx, log.ID)
	})
	if err != nil {
		return RecordResult{}, err
	}
	if err := st.appendEvent(ctx, "action.log", log.ID, log); err != nil {
		return RecordResult{}, err
	}
	return RecordResult{Log: log, Progress: prog}, nil
}

// ListActionLogs returns logs for a space, optionally narrowed to one action,
// oldest first.
func ListActionLogs(ctx context.Context, st Stores, spaceID, actionID string) ([]model.ActionLog, error) {
	var (
		logs []model.ActionLog
		err  error
	)
	if actionID = strings.TrimSpace(actionID); actionID != "" {
		logs, err = st.ActionLogs.ByRef(ctx, actionID)
	} else {
		logs, err = st.ActionLogs.BySpace(ctx, spaceID)
	}
	if err != nil {
		return nil, err
	}
	if spaceID = strings.TrimSpace(spaceID); spaceID != "" {
		filtered := logs[:0]
		for _, l := range logs {
			if l.SpaceID == spaceID {
				filtered = append(filtered, l)
			}
		}
		logs = filtered
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp.Before(logs[j].Timestamp) })
	return logs, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
