package mutate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"momentum-cli/internal/model"
	"momentum-cli/internal/progress"
	"momentum-cli/internal/store"
)

// Records is the persistence contract the engine needs from each collection.
type Records[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	BySpace(ctx context.Context, spaceID string) ([]T, error)
	ByRef(ctx context.Context, refID string) ([]T, error)
	Upsert(ctx context.Context, v T) error
	Delete(ctx context.Context, id string) error
	DeleteByRef(ctx context.Context, refID string) (int64, error)
}

// EventAppender receives an audit event for every successful mutation.
type EventAppender interface {
	AppendEvent(ctx context.Context, eventType, entityID string, payload any) error
}

// SpacePurger removes a space together with everything recorded in it.
type SpacePurger interface {
	DeleteSpace(ctx context.Context, spaceID string) error
}

type Stores struct {
	Spaces      Records[model.Space]
	Actions     Records[model.ActionDefinition]
	ActionLogs  Records[model.ActionLog]
	DataEntries Records[model.DataEntryLog]
	Problems    Records[model.Problem]
	Todos       Records[model.Todo]
	Progress    *progress.Calculator

	// Purger is optional; without it DeleteSpace only removes the space row.
	Purger SpacePurger

	// Events is optional.
	Events EventAppender
	// Now is optional; defaults to time.Now in UTC.
	Now func() time.Time
}

// FromStore wires the engine to a workspace store.
func FromStore(s *store.Store, baseUnit int) Stores {
	return Stores{
		Spaces:      s.Spaces,
		Actions:     s.Actions,
		ActionLogs:  s.ActionLogs,
		DataEntries: s.DataEntries,
		Problems:    s.Problems,
		Todos:       s.Todos,
		Progress:    progress.New(s.Progress, baseUnit),
		Purger:      s,
		Events:      s,
	}
}

func (st Stores) now() time.Time {
	if st.Now != nil {
		return st.Now().UTC()
	}
	return time.Now().UTC()
}

func (st Stores) appendEvent(ctx context.Context, eventType, entityID string, payload any) error {
	if st.Events == nil {
		return nil
	}
	return st.Events.AppendEvent(ctx, eventType, entityID, payload)
}

func (st Stores) loadAction(ctx context.Context, id string) (model.ActionDefinition, error) {
	def, ok, err := st.Actions.Get(ctx, id)
	if err != nil {
		return model.ActionDefinition{}, err
	}
	if !ok {
		return model.ActionDefinition{}, NotFoundError{Kind: "action", ID: id}
	}
	return def, nil
}

// award credits points for a record that was just saved. When crediting fails
// the record is removed again, so history never holds points that progress
// lacks.
func (st Stores) award(ctx context.Context, points int, undo func(context.Context) error) (model.UserProgress, error) {
	prog, err := st.Progress.Award(ctx, points)
	if err == nil {
		return prog, nil
	}
	if errors.Is(err, progress.ErrNegativeAward) {
		err = InvalidInputError{Reason: err.Error()}
	}
	if undoErr := undo(ctx); undoErr != nil {
		return model.UserProgress{}, errors.Join(err, fmt.Errorf("undo unawarded record: %w", undoErr))
	}
	return model.UserProgress{}, err
}
