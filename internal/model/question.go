package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// QuestionType is the internal UI type of a question
type QuestionType string

const (
	QuestionTypeSingleSelect QuestionType = "single-select"
	QuestionTypeMultiSelect  QuestionType = "multi-select"
	QuestionTypeNumberRange  QuestionType = "number-range"
	QuestionTypeDate         QuestionType = "date"
	QuestionTypeText         QuestionType = "text"
	QuestionTypeLongText     QuestionType = "long-text"
	QuestionTypeEmail        QuestionType = "email"
	QuestionTypeDropdown     QuestionType = "dropdown"
)

// WireType is the question type tag as stored with surveys and encoded answers
type WireType string

const (
	WireTypeRadio       WireType = "radio"
	WireTypeCheckboxes  WireType = "checkboxes"
	WireTypeLinearScale WireType = "linear-scale"
	WireTypeText        WireType = "text"
)

// Option is a selectable choice. Stored surveys carry options either as bare
// label strings or as {id, label} objects; both decode into Option.
type Option struct {
	ID    string `json:"id" bson:"id"`
	Label string `json:"label" bson:"label"`
}

type optionDoc struct {
	ID    string `json:"id" bson:"id"`
	Label string `json:"label" bson:"label"`
}

// UnmarshalJSON accepts "label" or {"id": "...", "label": "..."}
func (o *Option) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*o = Option{ID: label, Label: label}
		return nil
	}
	var doc optionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("option must be a string or an {id, label} object: %w", err)
	}
	*o = Option(doc)
	if o.ID == "" {
		o.ID = o.Label
	}
	return nil
}

// UnmarshalBSONValue is the BSON counterpart of UnmarshalJSON
func (o *Option) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if label, ok := raw.StringValueOK(); ok {
		*o = Option{ID: label, Label: label}
		return nil
	}
	var doc optionDoc
	if err := raw.Unmarshal(&doc); err != nil {
		return fmt.Errorf("option must be a string or an {id, label} document: %w", err)
	}
	*o = Option(doc)
	if o.ID == "" {
		o.ID = o.Label
	}
	return nil
}

// Scale bounds a number-range question
type Scale struct {
	Min int `json:"min" bson:"min"`
	Max int `json:"max" bson:"max"`
}

// Default slider bounds when a question carries no scale
const (
	DefaultScaleMin = 1
	DefaultScaleMax = 10
)

// Question is one entry of a survey's question list
type Question struct {
	Order    string       `json:"order" bson:"order"`
	Number   int          `json:"number" bson:"number"`
	Title    string       `json:"title" bson:"title"`
	Type     QuestionType `json:"type" bson:"type"`
	Options  []Option     `json:"options,omitempty" bson:"options,omitempty"`
	Scale    *Scale       `json:"scale,omitempty" bson:"scale,omitempty"`
	Required *bool        `json:"required,omitempty" bson:"required,omitempty"`

	// Synthetic marks the trailing email question added by the normalizer
	Synthetic bool `json:"synthetic,omitempty" bson:"-"`
}

// IsRequired reports whether an answer is mandatory (absent means required)
func (q *Question) IsRequired() bool {
	return q.Required == nil || *q.Required
}

// SameAs matches questions by order, falling back to number
func (q *Question) SameAs(other *Question) bool {
	if q.Order != "" && other.Order != "" {
		return q.Order == other.Order
	}
	if q.Number != 0 && other.Number != 0 {
		return q.Number == other.Number
	}
	return false
}

// Key is the identity used for the responses map
func (q *Question) Key() string {
	if q.Order != "" {
		return q.Order
	}
	return strconv.Itoa(q.Number)
}

// Bounds returns the slider range, defaulted when the scale is missing or empty
func (q *Question) Bounds() (int, int) {
	lo, hi := DefaultScaleMin, DefaultScaleMax
	if q.Scale != nil {
		if q.Scale.Min != 0 {
			lo = q.Scale.Min
		}
		if q.Scale.Max != 0 {
			hi = q.Scale.Max
		}
	}
	return lo, hi
}

// OptionIndex returns the 1-based position of label, or 0 when absent
func (q *Question) OptionIndex(label string) int {
	for i, opt := range q.Options {
		if opt.Label == label {
			return i + 1
		}
	}
	return 0
}

// OptionLabel is the inverse of OptionIndex
func (q *Question) OptionLabel(index int) (string, bool) {
	if index < 1 || index > len(q.Options) {
		return "", false
	}
	return q.Options[index-1].Label, true
}

// Bool returns a pointer to b, for optional fields
func Bool(b bool) *bool {
	return &b
}
