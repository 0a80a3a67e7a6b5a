package model

import "time"

type Space struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type StepOutcome string

const (
	StepCompleted StepOutcome = "completed"
	StepSkipped   StepOutcome = "skipped"
)

// ActionLog is one immutable record of an action (or one of its steps) being
// completed or skipped. It is never mutated after creation.
type ActionLog struct {
	ID                 string       `json:"id"`
	SpaceID            string       `json:"spaceId"`
	ActionDefinitionID string       `json:"actionDefinitionId"`
	Timestamp          time.Time    `json:"timestamp"`
	PointsAwarded      int          `json:"pointsAwarded"`
	CompletedStepID    *string      `json:"completedStepId,omitempty"`
	StepOutcome        *StepOutcome `json:"stepOutcome,omitempty"`

	IsMultiStepFullCompletion bool `json:"isMultiStepFullCompletion"`

	Notes      *string `json:"notes,omitempty"`
	DurationMs *int64  `json:"durationMs,omitempty"`
}

type DataEntryLog struct {
	ID                 string         `json:"id"`
	SpaceID            string         `json:"spaceId"`
	ActionDefinitionID string         `json:"actionDefinitionId"`
	StepID             *string        `json:"stepId,omitempty"`
	Timestamp          time.Time      `json:"timestamp"`
	Data               map[string]any `json:"data"`
	PointsAwarded      int            `json:"pointsAwarded"`
}

// LocalUserID keys the singleton progress record.
const LocalUserID = "local-user"

type UserProgress struct {
	UserID                 string   `json:"userId"`
	Points                 int      `json:"points"`
	Level                  int      `json:"level"`
	UnlockedCustomizations []string `json:"unlockedCustomizations"`
}

type Problem struct {
	ID               string    `json:"id"`
	SpaceID          string    `json:"spaceId"`
	Description      string    `json:"description"`
	Type             string    `json:"type"`
	Resolved         bool      `json:"resolved"`
	CreatedAt        time.Time `json:"createdAt"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

type TodoStatus string

const (
	TodoStatusTodo  TodoStatus = "todo"
	TodoStatusDoing TodoStatus = "doing"
	TodoStatusDone  TodoStatus = "done"
)

type Todo struct {
	ID               string     `json:"id"`
	SpaceID          string     `json:"spaceId"`
	Description      string     `json:"description"`
	Status           TodoStatus `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	CompletionDate   *time.Time `json:"completionDate,omitempty"`
	LastModifiedDate time.Time  `json:"lastModifiedDate"`
}

type TimelineKind string

const (
	TimelineAction    TimelineKind = "action"
	TimelineProblem   TimelineKind = "problem"
	TimelineTodo      TimelineKind = "todo"
	TimelineDataEntry TimelineKind = "data-entry"
)

// TimelineItem is the common projection of every event source in a space.
// Fields after Description are only set for the kinds they belong to.
type TimelineItem struct {
	ID          string       `json:"id"`
	SpaceID     string       `json:"spaceId"`
	Timestamp   time.Time    `json:"timestamp"`
	Kind        TimelineKind `json:"kind"`
	Title       string       `json:"title"`
	Description string       `json:"description"`

	ActionDefinitionID string         `json:"actionDefinitionId,omitempty"`
	PointsAwarded      *int           `json:"pointsAwarded,omitempty"`
	StepOutcome        *StepOutcome   `json:"stepOutcome,omitempty"`
	FullCompletion     *bool          `json:"isMultiStepFullCompletion,omitempty"`
	DurationMs         *int64         `json:"durationMs,omitempty"`
	ProblemType        string         `json:"problemType,omitempty"`
	Resolved           *bool          `json:"resolved,omitempty"`
	TodoStatus         TodoStatus     `json:"todoStatus,omitempty"`
	Data               map[string]any `json:"data,omitempty"`
}

// Event is an audit record appended for every mutation.
type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}
