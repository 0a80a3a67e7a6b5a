package mutate

import (
	"context"
	"testing"
	"time"

	"momentum-cli/internal/model"
	"momentum-cli/internal/store"

	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) (Stores, *store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	st := FromStore(s, 100)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	st.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return st, s
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

func outcomePtr(o model.StepOutcome) *model.StepOutcome { return &o }
func stepTypePtr(t model.StepType) *model.StepType      { return &t }
func fieldTypePtr(t model.FieldType) *model.FieldType   { return &t }

func mustCreate(t *testing.T, st Stores, in CreateActionInput) model.ActionDefinition {
	t.Helper()
	def, err := CreateAction(context.Background(), st, in)
	require.NoError(t, err)
	return def
}

func twoStepInput(spaceID string) CreateActionInput {
	return CreateActionInput{
		SpaceID:             spaceID,
		Name:                "Morning routine",
		Variant:             model.VariantMultiStep,
		PointsForCompletion: 20,
		Steps: []StepInput{
			{Description: strPtr("Stretch"), PointsPerStep: intPtr(5)},
			{Description: strPtr("Journal"), PointsPerStep: intPtr(5)},
		},
	}
}

func completeStep(t *testing.T, st Stores, def model.ActionDefinition, stepID string) RecordResult {
	t.Helper()
	res, err := RecordCompletion(context.Background(), st, RecordCompletionInput{
		SpaceID:            def.SpaceID,
		ActionDefinitionID: def.ID,
		CompletedStepID:    strPtr(stepID),
		StepOutcome:        outcomePtr(model.StepCompleted),
	})
	require.NoError(t, err)
	return res
}
