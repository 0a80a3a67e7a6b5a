package mutate

import (
	"context"

	"momentum-cli/internal/model"
	"momentum-cli/internal/timeline"
)

// Timeline builds a space's activity feed from the wired collections.
func Timeline(ctx context.Context, st Stores, spaceID string, opts timeline.Options) ([]model.TimelineItem, error) {
	return timeline.BuildWith(ctx, timeline.Sources{
		Actions:     st.Actions,
		ActionLogs:  st.ActionLogs,
		DataEntries: st.DataEntries,
		Problems:    st.Problems,
		Todos:       st.Todos,
	}, spaceID, opts)
}
