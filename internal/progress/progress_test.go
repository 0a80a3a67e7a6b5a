package progress

import (
	"context"
	"testing"

	"momentum-cli/internal/model"

	"github.com/stretchr/testify/require"
)

type memStore struct {
	recs    map[string]model.UserProgress
	upserts int
}

func newMemStore() *memStore { return &memStore{recs: map[string]model.UserProgress{}} }

func (m *memStore) Get(_ context.Context, id string) (model.UserProgress, bool, error) {
	p, ok := m.recs[id]
	return p, ok, nil
}

func (m *memStore) Upsert(_ context.Context, v model.UserProgress) error {
	m.upserts++
	m.recs[v.UserID] = v
	return nil
}

func TestGet_LazilyCreatesInitialRecord(t *testing.T) {
	st := newMemStore()
	c := New(st, 100)

	p, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.LocalUserID, p.UserID)
	require.Equal(t, 0, p.Points)
	require.Equal(t, 1, p.Level)
	require.Empty(t, p.UnlockedCustomizations)
	require.Equal(t, 1, st.upserts)

	_, err = c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, st.upserts, "second read must not recreate the record")
}

func TestAward_SingleLevelPerCall(t *testing.T) {
	c := New(newMemStore(), 100)

	p, err := c.Award(context.Background(), 160)
	require.NoError(t, err)
	require.Equal(t, 160, p.Points)
	require.Equal(t, 2, p.Level, "160 crosses 150 and 300 but only one level is gained")
}

func TestAward_ZeroNeverChangesLevel(t *testing.T) {
	st := newMemStore()
	st.recs[model.LocalUserID] = model.UserProgress{UserID: model.LocalUserID, Points: 1000, Level: 1}
	c := New(st, 100)

	p, err := c.Award(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1000, p.Points)
	require.Equal(t, 1, p.Level)
}

func TestAward_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		start     model.UserProgress
		award     int
		wantLevel int
	}{
		{name: "just below", start: model.UserProgress{Points: 0, Level: 1}, award: 149, wantLevel: 1},
		{name: "exactly at", start: model.UserProgress{Points: 0, Level: 1}, award: 150, wantLevel: 2},
		{name: "level two needs 300", start: model.UserProgress{Points: 250, Level: 2}, award: 49, wantLevel: 2},
		{name: "level two reaches 300", start: model.UserProgress{Points: 250, Level: 2}, award: 50, wantLevel: 3},
		{name: "already above threshold catches up by one", start: model.UserProgress{Points: 900, Level: 1}, award: 1, wantLevel: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMemStore()
			start := tt.start
			start.UserID = model.LocalUserID
			st.recs[model.LocalUserID] = start
			c := New(st, 100)

			p, err := c.Award(context.Background(), tt.award)
			require.NoError(t, err)
			require.Equal(t, tt.wantLevel, p.Level)
			require.Equal(t, start.Points+tt.award, p.Points)
		})
	}
}

func TestAward_RejectsNegative(t *testing.T) {
	c := New(newMemStore(), 100)
	_, err := c.Award(context.Background(), -5)
	require.ErrorIs(t, err, ErrNegativeAward)
}

func TestSnapshot(t *testing.T) {
	c := New(newMemStore(), 100)
	s := c.Snapshot(model.UserProgress{Points: 120, Level: 1})
	require.InDelta(t, 150, s.NextLevelAt, 0.0001)
	require.InDelta(t, 30, s.PointsToLevel, 0.0001)
}
