package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/schema"
)

var ErrDoctorIssuesFound = errors.New("doctor found errors")

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level    DoctorIssueLevel `json:"level"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	EntityID string           `json:"entityId,omitempty"`
	SpaceID  string           `json:"spaceId,omitempty"`
}

type DoctorReport struct {
	Issues []DoctorIssue `json:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

// Doctor checks the workspace for records that the engine would never write
// itself: dangling references, definitions that fail validation and a
// progress total that disagrees with the awarded points. It only reads.
func (s *Store) Doctor(ctx context.Context) (DoctorReport, error) {
	issues := []DoctorIssue{}
	add := func(level DoctorIssueLevel, code, entityID, spaceID, format string, args ...any) {
		issues = append(issues, DoctorIssue{
			Level:    level,
			Code:     code,
			Message:  fmt.Sprintf(format, args...),
			EntityID: entityID,
			SpaceID:  spaceID,
		})
	}

	var integrity string
	if err := s.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&integrity); err != nil {
		return DoctorReport{}, fmt.Errorf("integrity check: %w", err)
	}
	if strings.TrimSpace(integrity) != "ok" {
		add(DoctorIssueLevelError, "sqlite_integrity", "", "", "sqlite integrity check: %s", integrity)
	}

	spaces, err := s.Spaces.All(ctx)
	if err != nil {
		return DoctorReport{}, err
	}
	spaceIDs := make(map[string]bool, len(spaces))
	for _, sp := range spaces {
		spaceIDs[sp.ID] = true
	}

	actions, err := s.Actions.All(ctx)
	if err != nil {
		return DoctorReport{}, err
	}
	defs := make(map[string]model.ActionDefinition, len(actions))
	for _, d := range actions {
		defs[d.ID] = d
		if !spaceIDs[d.SpaceID] {
			add(DoctorIssueLevelError, "action_space_missing", d.ID, d.SpaceID, "action %q belongs to missing space %s", d.Name, d.SpaceID)
		}
		if err := schema.Validate(d); err != nil {
			add(DoctorIssueLevelError, "action_invalid", d.ID, d.SpaceID, "action %q: %v", d.Name, err)
		}
	}

	awarded := 0
	logs, err := s.ActionLogs.All(ctx)
	if err != nil {
		return DoctorReport{}, err
	}
	for _, l := range logs {
		awarded += l.PointsAwarded
		def, ok := defs[l.ActionDefinitionID]
		if !ok {
			add(DoctorIssueLevelWarn, "log_action_missing", l.ID, l.SpaceID, "log refers to missing action %s", l.ActionDefinitionID)
			continue
		}
		if l.SpaceID != def.SpaceID {
			add(DoctorIssueLevelError, "log_space_mismatch", l.ID, l.SpaceID, "log space %s differs from action space %s", l.SpaceID, def.SpaceID)
		}
		if l.CompletedStepID != nil {
			if _, ok := schema.FindStep(def, *l.CompletedStepID); !ok {
				add(DoctorIssueLevelWarn, "log_step_missing", l.ID, l.SpaceID, "log refers to removed step %s of %q", *l.CompletedStepID, def.Name)
			}
		}
	}

	entries, err := s.DataEntries.All(ctx)
	if err != nil {
		return DoctorReport{}, err
	}
	for _, e := range entries {
		awarded += e.PointsAwarded
		def, ok := defs[e.ActionDefinitionID]
		if !ok {
			add(DoctorIssueLevelWarn, "entry_action_missing", e.ID, e.SpaceID, "data entry refers to missing action %s", e.ActionDefinitionID)
			continue
		}
		if e.SpaceID != def.SpaceID {
			add(DoctorIssueLevelError, "entry_space_mismatch", e.ID, e.SpaceID, "data entry space %s differs from action space %s", e.SpaceID, def.SpaceID)
		}
	}

	todos, err := s.Todos.All(ctx)
	if err != nil {
		return DoctorReport{}, err
	}
	for _, t := range todos {
		if !spaceIDs[t.SpaceID] {
			add(DoctorIssueLevelError, "todo_space_missing", t.ID, t.SpaceID, "todo %q belongs to missing space %s", t.Description, t.SpaceID)
		}
	}
	problems, err := s.Problems.All(ctx)
	if err != nil {
		return DoctorReport{}, err
	}
	for _, p := range problems {
		if !spaceIDs[p.SpaceID] {
			add(DoctorIssueLevelError, "problem_space_missing", p.ID, p.SpaceID, "problem %q belongs to missing space %s", p.Type, p.SpaceID)
		}
	}

	// Deleting actions or resetting progress legitimately breaks this sum, so
	// it is only a warning.
	if prog, ok, err := s.Progress.Get(ctx, model.LocalUserID); err != nil {
		return DoctorReport{}, err
	} else if ok && prog.Points != awarded {
		add(DoctorIssueLevelWarn, "progress_points_mismatch", prog.UserID, "", "progress holds %d points; recorded history awards %d", prog.Points, awarded)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Level != issues[j].Level {
			return issues[i].Level == DoctorIssueLevelError
		}
		return issues[i].Code < issues[j].Code
	})
	return DoctorReport{Issues: issues}, nil
}
