package mutate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/schema"
	"momentum-cli/internal/store"
)

// FieldInput describes a form field in a create/update request. Nil pointers
// leave the matched field's value unchanged (or take the default on create).
type FieldInput struct {
	ID          string           `json:"id,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Label       *string          `json:"label,omitempty"`
	FieldType   *model.FieldType `json:"fieldType,omitempty"`
	IsRequired  *bool            `json:"isRequired,omitempty"`
	Placeholder *string          `json:"placeholder,omitempty"`
}

type StepInput struct {
	ID            string          `json:"id,omitempty"`
	Description   *string         `json:"description,omitempty"`
	PointsPerStep *int            `json:"pointsPerStep,omitempty"`
	StepType      *model.StepType `json:"stepType,omitempty"`
	FormFields    []FieldInput    `json:"formFields,omitempty"`
}

type CreateActionInput struct {
	SpaceID             string        `json:"spaceId"`
	Name                string        `json:"name"`
	Description         *string       `json:"description,omitempty"`
	Variant             model.Variant `json:"variant"`
	PointsForCompletion int           `json:"pointsForCompletion"`
	Order               *int          `json:"order,omitempty"`
	Steps               []StepInput   `json:"steps,omitempty"`
	FormFields          []FieldInput  `json:"formFields,omitempty"`
}

// OptionalString distinguishes "absent" (Set=false) from an explicit null
// (Set=true, Value=nil) in JSON input.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// UpdateActionInput merges into an existing definition. Nil means "leave
// unchanged"; Steps/FormFields replace the list when non-nil.
type UpdateActionInput struct {
	ID                  string         `json:"id"`
	Name                *string        `json:"name,omitempty"`
	Description         OptionalString `json:"description"`
	Variant             *model.Variant `json:"variant,omitempty"`
	PointsForCompletion *int           `json:"pointsForCompletion,omitempty"`
	Order               *int           `json:"order,omitempty"`
	IsEnabled           *bool          `json:"isEnabled,omitempty"`
	Steps               []StepInput    `json:"steps,omitempty"`
	FormFields          []FieldInput   `json:"formFields,omitempty"`
}

func CreateAction(ctx context.Context, st Stores, in CreateActionInput) (model.ActionDefinition, error) {
	variant, err := schema.ParseVariant(string(in.Variant))
	if err != nil {
		return model.ActionDefinition{}, InvalidInputError{Reason: err.Error()}
	}
	order := 0
	if in.Order != nil {
		order = *in.Order
	}

	def := model.ActionDefinition{
		ID:                  store.NewID("act"),
		SpaceID:             strings.TrimSpace(in.SpaceID),
		Name:                strings.TrimSpace(in.Name),
		Description:         in.Description,
		PointsForCompletion: in.PointsForCompletion,
		IsEnabled:           true,
		Order:               order,
		CreatedAt:           st.now(),
	}
	def.Shape, err = shapeFor(variant, nil, in.Steps, nil, in.FormFields)
	if err != nil {
		return model.ActionDefinition{}, err
	}
	if err := schema.Validate(def); err != nil {
		return model.ActionDefinition{}, InvalidInputError{Reason: err.Error()}
	}

	if err := st.Actions.Upsert(ctx, def); err != nil {
		return model.ActionDefinition{}, fmt.Errorf("save action: %w", err)
	}
	if err := st.appendEvent(ctx, "action.create", def.ID, def); err != nil {
		return model.ActionDefinition{}, err
	}
	return def, nil
}

func UpdateAction(ctx context.Context, st Stores, in UpdateActionInput) (model.ActionDefinition, error) {
	def, err := st.loadAction(ctx, strings.TrimSpace(in.ID))
	if err != nil {
		return model.ActionDefinition{}, err
	}

	if in.Name != nil {
		def.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description.Set {
		def.Description = in.Description.Value
	}
	if in.PointsForCompletion != nil {
		def.PointsForCompletion = *in.PointsForCompletion
	}
	if in.Order != nil {
		def.Order = *in.Order
	}
	if in.IsEnabled != nil {
		def.IsEnabled = *in.IsEnabled
	}

	variant := def.Variant()
	if in.Variant != nil {
		variant, err = schema.ParseVariant(string(*in.Variant))
		if err != nil {
			return model.ActionDefinition{}, InvalidInputError{Reason: err.Error()}
		}
	}
	// Lists that do not apply to the new variant come back empty from Steps()/FormFields().
	def.Shape, err = shapeFor(variant, def.Steps(), in.Steps, def.FormFields(), in.FormFields)
	if err != nil {
		return model.ActionDefinition{}, err
	}
	if err := schema.Validate(def); err != nil {
		return model.ActionDefinition{}, InvalidInputError{Reason: err.Error()}
	}

	if err := st.Actions.Upsert(ctx, def); err != nil {
		return model.ActionDefinition{}, fmt.Errorf("save action: %w", err)
	}
	if err := st.appendEvent(ctx, "action.update", def.ID, def); err != nil {
		return model.ActionDefinition{}, err
	}
	return def, nil
}

// SetActionEnabled toggles whether an action accepts new logs.
func SetActionEnabled(ctx context.Context, st Stores, id string, enabled bool) (model.ActionDefinition, error) {
	return UpdateAction(ctx, st, UpdateActionInput{ID: id, IsEnabled: &enabled})
}

type DeleteActionResult struct {
	Action             model.ActionDefinition `json:"action"`
	DeletedLogs        int64                  `json:"deletedLogs"`
	DeletedDataEntries int64                  `json:"deletedDataEntries"`
}

// DeleteAction removes a definition together with the history recorded
// against it.
func DeleteAction(ctx context.Context, st Stores, id string) (DeleteActionResult, error) {
	def, err := st.loadAction(ctx, strings.TrimSpace(id))
	if err != nil {
		return DeleteActionResult{}, err
	}
	res := DeleteActionResult{Action: def}

	switch def.Shape.(type) {
	case model.SingleShape, model.TimerShape, nil:
		res.DeletedLogs, err = st.ActionLogs.DeleteByRef(ctx, def.ID)
	case model.MultiStepShape:
		// Step-scoped data entries hang off the same definition id.
		res.DeletedLogs, err = st.ActionLogs.DeleteByRef(ctx, def.ID)
		if err == nil {
			res.DeletedDataEntries, err = st.DataEntries.DeleteByRef(ctx, def.ID)
		}
	case model.DataEntryShape:
		res.DeletedDataEntries, err = st.DataEntries.DeleteByRef(ctx, def.ID)
	default:
		panic(fmt.Sprintf("mutate: unhandled shape %T", def.Shape))
	}
	if err != nil {
		return DeleteActionResult{}, fmt.Errorf("delete history for %s: %w", def.ID, err)
	}

	if err := st.Actions.Delete(ctx, def.ID); err != nil {
		return DeleteActionResult{}, fmt.Errorf("delete action: %w", err)
	}
	if err := st.appendEvent(ctx, "action.delete", def.ID, res); err != nil {
		return DeleteActionResult{}, err
	}
	return res, nil
}

// ListActions returns a space's definitions by order, then creation time.
func ListActions(ctx context.Context, st Stores, spaceID string) ([]model.ActionDefinition, error) {
	defs, err := st.Actions.BySpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Order != defs[j].Order {
			return defs[i].Order < defs[j].Order
		}
		return defs[i].CreatedAt.Before(defs[j].CreatedAt)
	})
	return defs, nil
}

// ReorderActions renumbers a space's definitions densely: ids first in the
// given order, then the rest in their current order.
func ReorderActions(ctx context.Context, st Stores, spaceID string, ids []string) ([]model.ActionDefinition, error) {
	defs, err := ListActions(ctx, st, spaceID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.ActionDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	out := make([]model.ActionDefinition, 0, len(defs))
	placed := map[string]bool{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		d, ok := byID[id]
		if !ok {
			return nil, NotFoundError{Kind: "action", ID: id}
		}
		if placed[id] {
			return nil, invalidInput("duplicate action id %s", id)
		}
		placed[id] = true
		out = append(out, d)
	}
	for _, d := range defs {
		if !placed[d.ID] {
			out = append(out, d)
		}
	}

	for i := range out {
		if out[i].Order == i {
			continue
		}
		out[i].Order = i
		if err := st.Actions.Upsert(ctx, out[i]); err != nil {
			return nil, fmt.Errorf("save action order: %w", err)
		}
	}
	if err := st.appendEvent(ctx, "action.reorder", spaceID, ids); err != nil {
		return nil, err
	}
	return out, nil
}

func shapeFor(v model.Variant, curSteps []model.Step, inSteps []StepInput, curFields []model.FormField, inFields []FieldInput) (model.Shape, error) {
	switch v {
	case model.VariantSingle:
		return model.SingleShape{}, nil
	case model.VariantTimer:
		return model.TimerShape{}, nil
	case model.VariantMultiStep:
		steps := renumberSteps(curSteps)
		if inSteps != nil {
			var err error
			steps, err = mergeSteps(curSteps, inSteps)
			if err != nil {
				return nil, err
			}
		}
		return model.MultiStepShape{Steps: steps}, nil
	case model.VariantDataEntry:
		fields := renumberFields(curFields)
		if inFields != nil {
			var err error
			fields, err = mergeFields(curFields, inFields)
			if err != nil {
				return nil, err
			}
		}
		return model.DataEntryShape{Fields: fields}, nil
	default:
		return nil, invalidInput("unknown variant %q", v)
	}
}

// mergeSteps upserts steps by id. Known ids keep their stored values for
// anything the input leaves nil; other inputs become new steps with fresh ids.
// Order always follows the input position.
func mergeSteps(cur []model.Step, in []StepInput) ([]model.Step, error) {
	byID := make(map[string]model.Step, len(cur))
	for _, s := range cur {
		byID[s.ID] = s
	}
	out := make([]model.Step, 0, len(in))
	used := map[string]bool{}
	for i, si := range in {
		base, ok := byID[strings.TrimSpace(si.ID)]
		if !ok || used[base.ID] {
			base = model.Step{ID: store.NewID("stp"), StepType: model.StepTypeDescription}
		}
		used[base.ID] = true

		if si.Description != nil {
			base.Description = strings.TrimSpace(*si.Description)
		}
		if si.PointsPerStep != nil {
			base.PointsPerStep = *si.PointsPerStep
		}
		if si.StepType != nil {
			t, err := schema.ParseStepType(string(*si.StepType))
			if err != nil {
				return nil, InvalidInputError{Reason: fmt.Sprintf("step %d: %v", i, err)}
			}
			base.StepType = t
		}
		base.Order = i

		if base.StepType == model.StepTypeDataEntry {
			if si.FormFields != nil {
				fields, err := mergeFields(base.FormFields, si.FormFields)
				if err != nil {
					return nil, InvalidInputError{Reason: fmt.Sprintf("step %d: %v", i, err)}
				}
				base.FormFields = fields
			} else {
				base.FormFields = renumberFields(base.FormFields)
			}
		} else {
			base.FormFields = nil
		}
		out = append(out, base)
	}
	return out, nil
}

func mergeFields(cur []model.FormField, in []FieldInput) ([]model.FormField, error) {
	byID := make(map[string]model.FormField, len(cur))
	for _, f := range cur {
		byID[f.ID] = f
	}
	out := make([]model.FormField, 0, len(in))
	used := map[string]bool{}
	for i, fi := range in {
		base, ok := byID[strings.TrimSpace(fi.ID)]
		if !ok || used[base.ID] {
			base = model.FormField{ID: store.NewID("fld"), FieldType: model.FieldText}
		}
		used[base.ID] = true

		if fi.Name != nil {
			base.Name = strings.TrimSpace(*fi.Name)
		}
		if fi.Label != nil {
			base.Label = strings.TrimSpace(*fi.Label)
		}
		if fi.FieldType != nil {
			t, err := schema.ParseFieldType(string(*fi.FieldType))
			if err != nil {
				return nil, InvalidInputError{Reason: fmt.Sprintf("field %d: %v", i, err)}
			}
			base.FieldType = t
		}
		if fi.IsRequired != nil {
			base.IsRequired = *fi.IsRequired
		}
		if fi.Placeholder != nil {
			p := *fi.Placeholder
			base.Placeholder = &p
		}
		base.Order = i
		out = append(out, base)
	}
	return out, nil
}

func renumberSteps(steps []model.Step) []model.Step {
	if len(steps) == 0 {
		return nil
	}
	out := make([]model.Step, len(steps))
	copy(out, steps)
	for i := range out {
		out[i].Order = i
		out[i].FormFields = renumberFields(out[i].FormFields)
	}
	return out
}

func renumberFields(fields []model.FormField) []model.FormField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]model.FormField, len(fields))
	copy(out, fields)
	for i := range out {
		out[i].Order = i
	}
	return out
}
