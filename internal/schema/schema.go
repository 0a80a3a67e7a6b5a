// Package schema holds the pure helpers around an action definition's shape:
// parsing user-facing names, structural validation and field resolution.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"momentum-cli/internal/model"
)

var (
	ErrStepNotFound = errors.New("step not found")
	ErrNoForm       = errors.New("action has no form for this submission")
)

func ParseVariant(s string) (model.Variant, error) {
	switch normalizeName(s) {
	case "single", "":
		return model.VariantSingle, nil
	case "multi-step", "multistep", "checklist":
		return model.VariantMultiStep, nil
	case "timer", "timed":
		return model.VariantTimer, nil
	case "data-entry", "dataentry", "form":
		return model.VariantDataEntry, nil
	default:
		return "", fmt.Errorf("invalid variant: %q", s)
	}
}

func ParseStepType(s string) (model.StepType, error) {
	switch normalizeName(s) {
	case "description", "":
		return model.StepTypeDescription, nil
	case "data-entry", "dataentry", "form":
		return model.StepTypeDataEntry, nil
	default:
		return "", fmt.Errorf("invalid step type: %q", s)
	}
}

func ParseFieldType(s string) (model.FieldType, error) {
	switch normalizeName(s) {
	case "text", "":
		return model.FieldText, nil
	case "textarea":
		return model.FieldTextarea, nil
	case "number", "numeric":
		return model.FieldNumber, nil
	case "date":
		return model.FieldDate, nil
	case "checkbox", "bool", "boolean":
		return model.FieldCheckbox, nil
	default:
		return "", fmt.Errorf("invalid field type: %q", s)
	}
}

func ParseStepOutcome(s string) (model.StepOutcome, error) {
	switch normalizeName(s) {
	case "completed", "complete", "done":
		return model.StepCompleted, nil
	case "skipped", "skip":
		return model.StepSkipped, nil
	default:
		return "", fmt.Errorf("invalid step outcome: %q", s)
	}
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", "-")
}

// StepIDs returns the ids of every step defined on a multi-step action.
func StepIDs(def model.ActionDefinition) []string {
	steps := def.Steps()
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.ID)
	}
	return out
}

func FindStep(def model.ActionDefinition, stepID string) (model.Step, bool) {
	for _, s := range def.Steps() {
		if s.ID == stepID {
			return s, true
		}
	}
	return model.Step{}, false
}

// FieldsFor resolves the form a data submission is validated against: the
// top-level fields of a data-entry action, or the fields of a data-entry step
// inside a multi-step action.
func FieldsFor(def model.ActionDefinition, stepID *string) ([]model.FormField, error) {
	switch shape := def.Shape.(type) {
	case model.DataEntryShape:
		if stepID != nil && strings.TrimSpace(*stepID) != "" {
			return nil, fmt.Errorf("%w: data-entry actions have no steps", ErrNoForm)
		}
		return shape.Fields, nil
	case model.MultiStepShape:
		if stepID == nil || strings.TrimSpace(*stepID) == "" {
			return nil, fmt.Errorf("%w: a step id is required for multi-step actions", ErrNoForm)
		}
		step, ok := FindStep(def, strings.TrimSpace(*stepID))
		if !ok {
			return nil, ErrStepNotFound
		}
		if step.StepType != model.StepTypeDataEntry {
			return nil, fmt.Errorf("%w: step %q is not a data-entry step", ErrNoForm, step.ID)
		}
		return step.FormFields, nil
	case model.SingleShape, model.TimerShape, nil:
		return nil, fmt.Errorf("%w: %s actions do not collect data", ErrNoForm, def.Variant())
	default:
		panic(fmt.Sprintf("schema: unhandled shape %T", shape))
	}
}

// Validate checks a definition's structure. It does not touch storage.
func Validate(def model.ActionDefinition) error {
	var errs []error
	if strings.TrimSpace(def.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(def.SpaceID) == "" {
		errs = append(errs, errors.New("space id is required"))
	}
	if def.PointsForCompletion < 0 {
		errs = append(errs, errors.New("pointsForCompletion must be >= 0"))
	}

	switch shape := def.Shape.(type) {
	case model.SingleShape, model.TimerShape, nil:
	case model.MultiStepShape:
		seen := map[string]bool{}
		for i, st := range shape.Steps {
			if st.ID == "" {
				errs = append(errs, fmt.Errorf("step %d: missing id", i))
			} else if seen[st.ID] {
				errs = append(errs, fmt.Errorf("step %d: duplicate id %q", i, st.ID))
			}
			seen[st.ID] = true
			if strings.TrimSpace(st.Description) == "" {
				errs = append(errs, fmt.Errorf("step %d: description is required", i))
			}
			if st.PointsPerStep < 0 {
				errs = append(errs, fmt.Errorf("step %d: pointsPerStep must be >= 0", i))
			}
			if st.Order != i {
				errs = append(errs, fmt.Errorf("step %d: order %d is not dense", i, st.Order))
			}
			switch st.StepType {
			case model.StepTypeDescription:
				if len(st.FormFields) > 0 {
					errs = append(errs, fmt.Errorf("step %d: only data-entry steps carry form fields", i))
				}
			case model.StepTypeDataEntry:
				if len(st.FormFields) == 0 {
					errs = append(errs, fmt.Errorf("step %d: data-entry steps need at least one field", i))
				}
				for _, err := range validateFields(st.FormFields) {
					errs = append(errs, fmt.Errorf("step %d: %w", i, err))
				}
			default:
				errs = append(errs, fmt.Errorf("step %d: invalid step type %q", i, st.StepType))
			}
		}
	case model.DataEntryShape:
		errs = append(errs, validateFields(shape.Fields)...)
	default:
		panic(fmt.Sprintf("schema: unhandled shape %T", shape))
	}
	return errors.Join(errs...)
}

func validateFields(fields []model.FormField) []error {
	var errs []error
	names := map[string]bool{}
	for i, f := range fields {
		if f.ID == "" {
			errs = append(errs, fmt.Errorf("field %d: missing id", i))
		}
		name := strings.TrimSpace(f.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("field %d: name is required", i))
		} else if names[name] {
			errs = append(errs, fmt.Errorf("field %d: duplicate name %q", i, name))
		}
		names[name] = true
		if strings.TrimSpace(f.Label) == "" {
			errs = append(errs, fmt.Errorf("field %d: label is required", i))
		}
		if ft, err := ParseFieldType(string(f.FieldType)); err != nil || ft != f.FieldType {
			errs = append(errs, fmt.Errorf("field %d: invalid field type %q", i, f.FieldType))
		}
		if f.Order != i {
			errs = append(errs, fmt.Errorf("field %d: order %d is not dense", i, f.Order))
		}
	}
	return errs
}
