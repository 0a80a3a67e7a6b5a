package schema

import (
	"errors"
	"testing"

	"momentum-cli/internal/model"

	"github.com/stretchr/testify/require"
)

func multiStep(steps ...model.Step) model.ActionDefinition {
	return model.ActionDefinition{ID: "act-1", SpaceID: "spc-1", Name: "Routine", Shape: model.MultiStepShape{Steps: steps}}
}

func TestParseVariant(t *testing.T) {
	tests := map[string]model.Variant{
		"":           model.VariantSingle,
		"single":     model.VariantSingle,
		"Multi_Step": model.VariantMultiStep,
		"checklist":  model.VariantMultiStep,
		" timer ":    model.VariantTimer,
		"data-entry": model.VariantDataEntry,
		"form":       model.VariantDataEntry,
	}
	for in, want := range tests {
		got, err := ParseVariant(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseVariant("weekly")
	require.Error(t, err)
}

func TestParseStepOutcome(t *testing.T) {
	got, err := ParseStepOutcome("Done")
	require.NoError(t, err)
	require.Equal(t, model.StepCompleted, got)

	got, err = ParseStepOutcome("skip")
	require.NoError(t, err)
	require.Equal(t, model.StepSkipped, got)

	_, err = ParseStepOutcome("")
	require.Error(t, err)
}

func TestFieldsFor(t *testing.T) {
	fields := []model.FormField{{ID: "fld-1", Name: "kg", Label: "Weight", FieldType: model.FieldNumber}}
	def := multiStep(
		model.Step{ID: "stp-a", Description: "Warm up", StepType: model.StepTypeDescription},
		model.Step{ID: "stp-b", Description: "Weights", StepType: model.StepTypeDataEntry, FormFields: fields, Order: 1},
	)
	step := func(id string) *string { return &id }

	got, err := FieldsFor(def, step("stp-b"))
	require.NoError(t, err)
	require.Equal(t, fields, got)

	_, err = FieldsFor(def, step("stp-a"))
	require.ErrorIs(t, err, ErrNoForm)

	_, err = FieldsFor(def, step("stp-x"))
	require.ErrorIs(t, err, ErrStepNotFound)

	_, err = FieldsFor(def, nil)
	require.ErrorIs(t, err, ErrNoForm)

	form := model.ActionDefinition{Shape: model.DataEntryShape{Fields: fields}}
	got, err = FieldsFor(form, nil)
	require.NoError(t, err)
	require.Equal(t, fields, got)
	_, err = FieldsFor(form, step("stp-b"))
	require.ErrorIs(t, err, ErrNoForm)

	_, err = FieldsFor(model.ActionDefinition{Shape: model.TimerShape{}}, nil)
	require.ErrorIs(t, err, ErrNoForm)
}

func TestStepIDsAndFindStep(t *testing.T) {
	def := multiStep(model.Step{ID: "a"}, model.Step{ID: "b", Order: 1})
	require.Equal(t, []string{"a", "b"}, StepIDs(def))
	require.Empty(t, StepIDs(model.ActionDefinition{Shape: model.SingleShape{}}))

	s, ok := FindStep(def, "b")
	require.True(t, ok)
	require.Equal(t, 1, s.Order)
	_, ok = FindStep(def, "c")
	require.False(t, ok)
}

func TestValidate(t *testing.T) {
	field := model.FormField{ID: "fld-1", Name: "mood", Label: "Mood", FieldType: model.FieldText}
	desc := func(id string, order int) model.Step {
		return model.Step{ID: id, Description: "do " + id, StepType: model.StepTypeDescription, Order: order}
	}

	tests := []struct {
		name    string
		def     model.ActionDefinition
		wantErr string
	}{
		{name: "valid single", def: model.ActionDefinition{Name: "x", SpaceID: "s", Shape: model.SingleShape{}}},
		{name: "valid multi", def: multiStep(desc("a", 0), desc("b", 1))},
		{name: "missing name", def: model.ActionDefinition{SpaceID: "s"}, wantErr: "name is required"},
		{name: "negative points", def: model.ActionDefinition{Name: "x", SpaceID: "s", PointsForCompletion: -1}, wantErr: "pointsForCompletion"},
		{name: "multi-step without steps", def: multiStep()},
		{name: "duplicate step id", def: multiStep(desc("a", 0), desc("a", 1)), wantErr: "duplicate id"},
		{name: "gap in order", def: multiStep(desc("a", 0), desc("b", 2)), wantErr: "not dense"},
		{
			name:    "fields on description step",
			def:     multiStep(model.Step{ID: "a", Description: "x", StepType: model.StepTypeDescription, FormFields: []model.FormField{field}}),
			wantErr: "only data-entry steps",
		},
		{name: "data-entry without fields", def: model.ActionDefinition{Name: "x", SpaceID: "s", Shape: model.DataEntryShape{}}},
		{
			name: "duplicate field name",
			def: model.ActionDefinition{Name: "x", SpaceID: "s", Shape: model.DataEntryShape{Fields: []model.FormField{
				field, {ID: "fld-2", Name: "mood", Label: "Again", FieldType: model.FieldText, Order: 1},
			}}},
			wantErr: "duplicate name",
		},
		{
			name: "alias field type not stored",
			def: model.ActionDefinition{Name: "x", SpaceID: "s", Shape: model.DataEntryShape{Fields: []model.FormField{
				{ID: "fld-1", Name: "n", Label: "N", FieldType: "numeric"},
			}}},
			wantErr: "field type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.def)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	err := Validate(model.ActionDefinition{PointsForCompletion: -3})
	require.Error(t, err)
	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	require.Len(t, joined.Unwrap(), 3)
}
