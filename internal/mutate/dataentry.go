package mutate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/schema"
	"momentum-cli/internal/store"
)

type SubmitDataEntryInput struct {
	SpaceID            string         `json:"spaceId"`
	ActionDefinitionID string         `json:"actionDefinitionId"`
	StepID             *string        `json:"stepId,omitempty"`
	FormData           map[string]any `json:"formData"`
}

type DataEntryResult struct {
	Entry    model.DataEntryLog `json:"entry"`
	Progress model.UserProgress `json:"progress"`
}

// SubmitDataEntry validates form data against the action's form and stores it.
// Only top-level data-entry submissions earn points; data captured for a step
// of a multi-step action earns nothing here (the step's completion does).
func SubmitDataEntry(ctx context.Context, st Stores, in SubmitDataEntryInput) (DataEntryResult, error) {
	def, err := st.loadAction(ctx, strings.TrimSpace(in.ActionDefinitionID))
	if err != nil {
		return DataEntryResult{}, err
	}
	if !def.IsEnabled {
		return DataEntryResult{}, DisabledError{ActionID: def.ID}
	}
	if spaceID := strings.TrimSpace(in.SpaceID); spaceID != "" && spaceID != def.SpaceID {
		return DataEntryResult{}, invalidInput("action %s does not belong to space %s", def.ID, spaceID)
	}

	stepID := trimmedOrNil(in.StepID)
	fields, err := resolveFields(def, stepID)
	if err != nil {
		return DataEntryResult{}, err
	}
	data, err := ValidateFormData(fields, in.FormData)
	if err != nil {
		return DataEntryResult{}, err
	}

	entry := model.DataEntryLog{
		ID:                 store.NewID("dat"),
		SpaceID:            def.SpaceID,
		ActionDefinitionID: def.ID,
		StepID:             stepID,
		Timestamp:          st.now(),
		Data:               data,
	}
	if stepID == nil {
		entry.PointsAwarded = def.PointsForCompletion
	}

	if err := st.DataEntries.Upsert(ctx, entry); err != nil {
		return DataEntryResult{}, fmt.Errorf("save data entry: %w", err)
	}
	prog, err := st.award(ctx, entry.PointsAwarded, func(ctx context.Context) error {
		return st.DataEntries.Delete(ctx, entry.ID)
	})
	if err != nil {
		return DataEntryResult{}, err
	}
	if err := st.appendEvent(ctx, "data.submit", entry.ID, entry); err != nil {
		return DataEntryResult{}, err
	}
	return DataEntryResult{Entry: entry, Progress: prog}, nil
}

// UpdateDataEntry replaces a stored submission's data after re-validating it
// against the form it was captured with. Points and ids never change.
func UpdateDataEntry(ctx context.Context, st Stores, id string, formData map[string]any) (model.DataEntryLog, error) {
	id = strings.TrimSpace(id)
	entry, ok, err := st.DataEntries.Get(ctx, id)
	if err != nil {
		return model.DataEntryLog{}, err
	}
	if !ok {
		return model.DataEntryLog{}, NotFoundError{Kind: "data entry", ID: id}
	}
	def, err := st.loadAction(ctx, entry.ActionDefinitionID)
	if err != nil {
		return model.DataEntryLog{}, err
	}
	fields, err := resolveFields(def, entry.StepID)
	if err != nil {
		return model.DataEntryLog{}, err
	}
	data, err := ValidateFormData(fields, formData)
	if err != nil {
		return model.DataEntryLog{}, err
	}

	entry.Data = data
	entry.Timestamp = st.now()
	if err := st.DataEntries.Upsert(ctx, entry); err != nil {
		return model.DataEntryLog{}, fmt.Errorf("save data entry: %w", err)
	}
	if err := st.appendEvent(ctx, "data.update", entry.ID, entry); err != nil {
		return model.DataEntryLog{}, err
	}
	return entry, nil
}

// ListDataEntries returns entries for a space, optionally narrowed to one
// action, oldest first.
func ListDataEntries(ctx context.Context, st Stores, spaceID, actionID string) ([]model.DataEntryLog, error) {
	var (
		entries []model.DataEntryLog
		err     error
	)
	if actionID = strings.TrimSpace(actionID); actionID != "" {
		entries, err = st.DataEntries.ByRef(ctx, actionID)
	} else {
		entries, err = st.DataEntries.BySpace(ctx, spaceID)
	}
	if err != nil {
		return nil, err
	}
	if spaceID = strings.TrimSpace(spaceID); spaceID != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.SpaceID == spaceID {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
	return entries, nil
}

func resolveFields(def model.ActionDefinition, stepID *string) ([]model.FormField, error) {
	fields, err := schema.FieldsFor(def, stepID)
	switch {
	case err == nil:
		return fields, nil
	case errors.Is(err, schema.ErrStepNotFound):
		return nil, NotFoundError{Kind: "step", ID: *stepID}
	default:
		return nil, InvalidInputError{Reason: err.Error()}
	}
}

// ValidateFormData checks data against fields and returns a copy where
// number fields hold float64 values. Keys without a field are kept as-is.
func ValidateFormData(fields []model.FormField, data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, f := range fields {
		raw, present := data[f.Name]
		s := valueString(raw)
		empty := !present || s == ""

		if f.IsRequired && empty {
			return nil, ValidationError{Field: f.Name, Label: f.Label, Reason: "is required"}
		}
		if empty || f.FieldType != model.FieldNumber {
			continue
		}
		n, ok := toNumber(raw)
		if !ok {
			return nil, ValidationError{Field: f.Name, Label: f.Label, Reason: "must be a number"}
		}
		out[f.Name] = n
	}
	return out, nil
}

func valueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
