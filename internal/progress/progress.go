// Package progress folds awarded points into the local user's running total
// and level.
package progress

import (
	"context"
	"errors"
	"fmt"

	"momentum-cli/internal/model"
)

const DefaultBaseUnit = 100

var ErrNegativeAward = errors.New("awarded points must be >= 0")

// Store persists the singleton progress record.
type Store interface {
	Get(ctx context.Context, id string) (model.UserProgress, bool, error)
	Upsert(ctx context.Context, v model.UserProgress) error
}

type Calculator struct {
	Store    Store
	BaseUnit int
}

func New(st Store, baseUnit int) *Calculator {
	if baseUnit <= 0 {
		baseUnit = DefaultBaseUnit
	}
	return &Calculator{Store: st, BaseUnit: baseUnit}
}

func (c *Calculator) baseUnit() int {
	if c.BaseUnit <= 0 {
		return DefaultBaseUnit
	}
	return c.BaseUnit
}

// Threshold is the point total at which a user at level leaves it.
func (c *Calculator) Threshold(level int) float64 {
	return float64(level) * float64(c.baseUnit()) * 1.5
}

// Get loads the progress record, creating {points: 0, level: 1} on first read.
func (c *Calculator) Get(ctx context.Context) (model.UserProgress, error) {
	p, ok, err := c.Store.Get(ctx, model.LocalUserID)
	if err != nil {
		return model.UserProgress{}, fmt.Errorf("load progress: %w", err)
	}
	if ok {
		return normalize(p), nil
	}
	p = initial()
	if err := c.Store.Upsert(ctx, p); err != nil {
		return model.UserProgress{}, fmt.Errorf("create progress: %w", err)
	}
	return p, nil
}

// Award adds points and advances at most one level per call. Awarding zero
// never changes the level.
func (c *Calculator) Award(ctx context.Context, points int) (model.UserProgress, error) {
	if points < 0 {
		return model.UserProgress{}, ErrNegativeAward
	}
	p, err := c.Get(ctx)
	if err != nil {
		return model.UserProgress{}, err
	}
	p = c.apply(p, points)
	if err := c.Store.Upsert(ctx, p); err != nil {
		return model.UserProgress{}, fmt.Errorf("save progress: %w", err)
	}
	return p, nil
}

func (c *Calculator) apply(p model.UserProgress, points int) model.UserProgress {
	p.Points += points
	if points > 0 && float64(p.Points) >= c.Threshold(p.Level) {
		p.Level++
	}
	return p
}

// Reset returns the record to its initial state.
func (c *Calculator) Reset(ctx context.Context) (model.UserProgress, error) {
	p := initial()
	if err := c.Store.Upsert(ctx, p); err != nil {
		return model.UserProgress{}, fmt.Errorf("reset progress: %w", err)
	}
	return p, nil
}

// Snapshot is progress plus the numbers a display needs.
type Snapshot struct {
	model.UserProgress
	NextLevelAt   float64 `json:"nextLevelAt"`
	PointsToLevel float64 `json:"pointsToNextLevel"`
}

// NextThreshold is the point total that moves p to the next level.
func (c *Calculator) NextThreshold(p model.UserProgress) float64 {
	return c.Threshold(p.Level)
}

func (c *Calculator) Snapshot(p model.UserProgress) Snapshot {
	next := c.NextThreshold(p)
	remaining := next - float64(p.Points)
	if remaining < 0 {
		remaining = 0
	}
	return Snapshot{UserProgress: p, NextLevelAt: next, PointsToLevel: remaining}
}

func initial() model.UserProgress {
	return model.UserProgress{
		UserID:                 model.LocalUserID,
		Points:                 0,
		Level:                  1,
		UnlockedCustomizations: []string{},
	}
}

func normalize(p model.UserProgress) model.UserProgress {
	if p.Level < 1 {
		p.Level = 1
	}
	if p.Points < 0 {
		p.Points = 0
	}
	if p.UnlockedCustomizations == nil {
		p.UnlockedCustomizations = []string{}
	}
	return p
}
