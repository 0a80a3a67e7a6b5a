package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type Variant string

const (
	VariantSingle    Variant = "single"
	VariantMultiStep Variant = "multi-step"
	VariantTimer     Variant = "timer"
	VariantDataEntry Variant = "data-entry"
)

type StepType string

const (
	StepTypeDescription StepType = "description"
	StepTypeDataEntry   StepType = "data-entry"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldCheckbox FieldType = "checkbox"
)

type FormField struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	FieldType   FieldType `json:"fieldType"`
	IsRequired  bool      `json:"isRequired"`
	Placeholder *string   `json:"placeholder,omitempty"`
	Order       int       `json:"order"`
}

type Step struct {
	ID            string   `json:"id"`
	Description   string   `json:"description"`
	PointsPerStep int      `json:"pointsPerStep"`
	StepType      StepType `json:"stepType"`
	Order         int      `json:"order"`

	// FormFields is only meaningful when StepType is data-entry.
	FormFields []FormField `json:"formFields,omitempty"`
}

// Shape is the variant-specific body of an action definition. The set of
// implementations is closed; consumers switch over it exhaustively.
type Shape interface {
	Variant() Variant
	isShape()
}

type SingleShape struct{}

type MultiStepShape struct {
	Steps []Step
}

type TimerShape struct{}

type DataEntryShape struct {
	Fields []FormField
}

func (SingleShape) Variant() Variant    { return VariantSingle }
func (MultiStepShape) Variant() Variant { return VariantMultiStep }
func (TimerShape) Variant() Variant     { return VariantTimer }
func (DataEntryShape) Variant() Variant { return VariantDataEntry }

func (SingleShape) isShape()    {}
func (MultiStepShape) isShape() {}
func (TimerShape) isShape()     {}
func (DataEntryShape) isShape() {}

// ActionDefinition is the template describing a loggable action.
type ActionDefinition struct {
	ID                  string
	SpaceID             string
	Name                string
	Description         *string
	Shape               Shape
	PointsForCompletion int
	IsEnabled           bool
	Order               int
	CreatedAt           time.Time
}

// Variant reports the definition's variant; a missing shape reads as single.
func (a ActionDefinition) Variant() Variant {
	if a.Shape == nil {
		return VariantSingle
	}
	return a.Shape.Variant()
}

// Steps returns the ordered steps of a multi-step definition, nil otherwise.
func (a ActionDefinition) Steps() []Step {
	if s, ok := a.Shape.(MultiStepShape); ok {
		return s.Steps
	}
	return nil
}

// FormFields returns the top-level fields of a data-entry definition, nil otherwise.
func (a ActionDefinition) FormFields() []FormField {
	if s, ok := a.Shape.(DataEntryShape); ok {
		return s.Fields
	}
	return nil
}

type actionDefinitionWire struct {
	ID                  string      `json:"id"`
	SpaceID             string      `json:"spaceId"`
	Name                string      `json:"name"`
	Description         *string     `json:"description,omitempty"`
	Variant             Variant     `json:"variant"`
	PointsForCompletion int         `json:"pointsForCompletion"`
	IsEnabled           bool        `json:"isEnabled"`
	Order               int         `json:"order"`
	CreatedAt           time.Time   `json:"creationDate"`
	Steps               []Step      `json:"steps,omitempty"`
	FormFields          []FormField `json:"formFields,omitempty"`
}

func (a ActionDefinition) MarshalJSON() ([]byte, error) {
	w := actionDefinitionWire{
		ID:                  a.ID,
		SpaceID:             a.SpaceID,
		Name:                a.Name,
		Description:         a.Description,
		Variant:             a.Variant(),
		PointsForCompletion: a.PointsForCompletion,
		IsEnabled:           a.IsEnabled,
		Order:               a.Order,
		CreatedAt:           a.CreatedAt,
	}
	switch s := a.Shape.(type) {
	case MultiStepShape:
		w.Steps = s.Steps
	case DataEntryShape:
		w.FormFields = s.Fields
	}
	return json.Marshal(w)
}

func (a *ActionDefinition) UnmarshalJSON(b []byte) error {
	var w actionDefinitionWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	shape, err := NewShape(w.Variant, w.Steps, w.FormFields)
	if err != nil {
		return err
	}
	*a = ActionDefinition{
		ID:                  w.ID,
		SpaceID:             w.SpaceID,
		Name:                w.Name,
		Description:         w.Description,
		Shape:               shape,
		PointsForCompletion: w.PointsForCompletion,
		IsEnabled:           w.IsEnabled,
		Order:               w.Order,
		CreatedAt:           w.CreatedAt,
	}
	return nil
}

// NewShape builds the shape for a variant, keeping only the list that applies to it.
func NewShape(v Variant, steps []Step, fields []FormField) (Shape, error) {
	switch v {
	case VariantSingle, "":
		return SingleShape{}, nil
	case VariantMultiStep:
		return MultiStepShape{Steps: steps}, nil
	case VariantTimer:
		return TimerShape{}, nil
	case VariantDataEntry:
		return DataEntryShape{Fields: fields}, nil
	default:
		return nil, fmt.Errorf("unknown variant: %q", v)
	}
}
