package mutate

import (
	"context"
	"errors"
	"testing"

	"momentum-cli/internal/model"
	"momentum-cli/internal/progress"

	"github.com/stretchr/testify/require"
)

type brokenProgressStore struct{}

func (brokenProgressStore) Get(context.Context, string) (model.UserProgress, bool, error) {
	return model.UserProgress{}, false, nil
}

func (brokenProgressStore) Upsert(context.Context, model.UserProgress) error {
	return errors.New("disk full")
}

func TestAward_NegativePointsAreInvalidInput(t *testing.T) {
	st, _ := newTestStores(t)
	undone := false
	_, err := st.award(context.Background(), -1, func(context.Context) error {
		undone = true
		return nil
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, "invalid_input", Code(err))
	require.True(t, undone)
}

func TestRecordCompletion_FailedAwardRemovesLog(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStores(t)
	def := mustCreate(t, st, CreateActionInput{SpaceID: "spc-1", Name: "Water", Variant: model.VariantSingle, PointsForCompletion: 4})
	form := mustCreate(t, st, moodForm("spc-1"))

	st.Progress = progress.New(brokenProgressStore{}, 100)

	_, err := RecordCompletion(ctx, st, RecordCompletionInput{ActionDefinitionID: def.ID})
	require.Error(t, err)
	require.Equal(t, "internal", Code(err))
	logs, err := st.ActionLogs.ByRef(ctx, def.ID)
	require.NoError(t, err)
	require.Empty(t, logs)

	_, err = SubmitDataEntry(ctx, st, SubmitDataEntryInput{ActionDefinitionID: form.ID, FormData: map[string]any{"mood": "ok"}})
	require.Error(t, err)
	entries, err := st.DataEntries.ByRef(ctx, form.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}
