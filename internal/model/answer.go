package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Value is a raw answer as captured by an input buffer. Only the field that
// matches the question type is meaningful.
type Value struct {
	Choice  string    `json:"choice,omitempty"`  // single-select, dropdown
	Choices []string  `json:"choices,omitempty"` // multi-select
	Number  int       `json:"number,omitempty"`  // number-range
	Date    time.Time `json:"date,omitempty"`    // date; zero means unset
	Text    string    `json:"text,omitempty"`    // text, long-text, email
}

// Chosen is the optionChosen field of an encoded answer: a single 1-based
// option index (or numeric value), or a list of indices for multi-select.
type Chosen struct {
	Index   int
	Indices []int
	Multi   bool
}

// Single builds a scalar optionChosen
func Single(n int) Chosen {
	return Chosen{Index: n}
}

// Multiple builds a list optionChosen; nil becomes an empty list
func Multiple(indices []int) Chosen {
	if indices == nil {
		indices = []int{}
	}
	return Chosen{Indices: indices, Multi: true}
}

// IsZero reports an empty selection
func (c Chosen) IsZero() bool {
	if c.Multi {
		return len(c.Indices) == 0
	}
	return c.Index == 0
}

func (c Chosen) value() interface{} {
	if c.Multi {
		if c.Indices == nil {
			return []int{}
		}
		return c.Indices
	}
	return c.Index
}

// MarshalJSON writes a number or an array
func (c Chosen) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.value())
}

// UnmarshalJSON reads a number, an array or null
func (c *Chosen) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Chosen{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var indices []int
		if err := json.Unmarshal(data, &indices); err != nil {
			return fmt.Errorf("optionChosen: %w", err)
		}
		*c = Multiple(indices)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("optionChosen: %w", err)
	}
	*c = Single(n)
	return nil
}

// MarshalBSONValue stores a number or an array
func (c Chosen) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(c.value())
}

// UnmarshalBSONValue reads a number or an array
func (c *Chosen) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Array:
		var indices []int
		if err := raw.Unmarshal(&indices); err != nil {
			return fmt.Errorf("optionChosen: %w", err)
		}
		*c = Multiple(indices)
	case bsontype.Null, bsontype.Undefined:
		*c = Chosen{}
	default:
		var n int
		if err := raw.Unmarshal(&n); err != nil {
			return fmt.Errorf("optionChosen: %w", err)
		}
		*c = Single(n)
	}
	return nil
}

// EncodedAnswer is the persistence-shaped form of one answer. For radio and
// checkboxes OptionResponse is always nil; for text OptionChosen is always 0.
type EncodedAnswer struct {
	QuestionNumber int      `json:"questionNumber" bson:"questionNumber"`
	QuestionType   WireType `json:"questionType" bson:"questionType"`
	OptionChosen   Chosen   `json:"optionChosen" bson:"optionChosen"`
	OptionResponse *string  `json:"optionResponse" bson:"optionResponse"`
}

// SubmitRequest is the body of POST /v1/surveys/{slug}
type SubmitRequest struct {
	Answers          []EncodedAnswer `json:"answers"`
	Email            *string         `json:"email"`
	ConversationalAI bool            `json:"conversationalAI"`
}

// SubmitResponse is returned after a response is recorded
type SubmitResponse struct {
	Message    string `json:"message"`
	ResponseID string `json:"responseId"`
}

// Response is a recorded survey submission
type Response struct {
	ID               string          `json:"id" bson:"_id"`
	SurveyID         string          `json:"surveyId" bson:"surveyId"`
	Slug             string          `json:"slug" bson:"slug"`
	Answers          []EncodedAnswer `json:"answers" bson:"answers"`
	Email            *string         `json:"email,omitempty" bson:"email,omitempty"`
	ConversationalAI bool            `json:"conversationalAI" bson:"conversationalAI"`
	SubmittedAt      time.Time       `json:"submittedAt" bson:"submittedAt"`
}

// DecodedAnswer is an encoded answer resolved back to labels for owners
type DecodedAnswer struct {
	QuestionNumber int    `json:"questionNumber"`
	Title          string `json:"title"`
	Value          Value  `json:"value"`
	Skipped        bool   `json:"skipped"`
}

// String returns a pointer to s, for optional fields
func String(s string) *string {
	return &s
}

// DecodedResponse is a recorded submission with answers resolved to labels
type DecodedResponse struct {
	ID               string          `json:"id"`
	Email            *string         `json:"email,omitempty"`
	ConversationalAI bool            `json:"conversationalAI"`
	SubmittedAt      time.Time       `json:"submittedAt"`
	Answers          []DecodedAnswer `json:"answers"`
}

// ResponseRecorded is the live event sent to owners for each submission
type ResponseRecorded struct {
	ResponseID       string    `json:"responseId"`
	Slug             string    `json:"slug"`
	Answers          int       `json:"answers"`
	ConversationalAI bool      `json:"conversationalAI"`
	TotalResponses   int64     `json:"totalResponses"`
	SubmittedAt      time.Time `json:"submittedAt"`
}
