// Package answer converts accepted raw values into persistence records.
package answer

import (
	"strconv"
	"time"

	"chatform/internal/model"
	"chatform/internal/question"
)

// DateLayout is how date answers are stored in optionResponse
const DateLayout = "2006-01-02"

// Encode converts a validated value into an EncodedAnswer for q
func Encode(q *model.Question, v model.Value) model.EncodedAnswer {
	rec := model.EncodedAnswer{
		QuestionNumber: questionNumber(q),
		QuestionType:   question.WireTypeOf(q.Type),
	}

	switch q.Type {
	case model.QuestionTypeSingleSelect, model.QuestionTypeDropdown:
		rec.OptionChosen = model.Single(q.OptionIndex(v.Choice))
	case model.QuestionTypeMultiSelect:
		indices := make([]int, 0, len(v.Choices))
		for _, label := range v.Choices {
			if idx := q.OptionIndex(label); idx > 0 {
				indices = append(indices, idx)
			}
		}
		rec.OptionChosen = model.Multiple(indices)
	case model.QuestionTypeNumberRange:
		rec.OptionChosen = model.Single(v.Number)
	case model.QuestionTypeText, model.QuestionTypeLongText, model.QuestionTypeEmail:
		rec.OptionResponse = model.String(v.Text)
	case model.QuestionTypeDate:
		rec.OptionResponse = model.String(v.Date.Format(DateLayout))
	default:
		rec.OptionResponse = model.String(v.Text)
	}
	return rec
}

// EncodeSkip records a skipped question: empty selection and no response
func EncodeSkip(q *model.Question) model.EncodedAnswer {
	rec := model.EncodedAnswer{
		QuestionNumber: questionNumber(q),
		QuestionType:   question.WireTypeOf(q.Type),
	}
	if q.Type == model.QuestionTypeMultiSelect {
		rec.OptionChosen = model.Multiple(nil)
	}
	return rec
}

// Skipped reports whether rec carries no answer
func Skipped(rec model.EncodedAnswer) bool {
	return rec.OptionChosen.IsZero() && rec.OptionResponse == nil
}

// Decode recovers the raw value recorded in rec for q. Option indices that
// no longer resolve are dropped.
func Decode(q *model.Question, rec model.EncodedAnswer) model.Value {
	var v model.Value
	switch q.Type {
	case model.QuestionTypeSingleSelect, model.QuestionTypeDropdown:
		v.Choice, _ = q.OptionLabel(rec.OptionChosen.Index)
	case model.QuestionTypeMultiSelect:
		for _, idx := range rec.OptionChosen.Indices {
			if label, ok := q.OptionLabel(idx); ok {
				v.Choices = append(v.Choices, label)
			}
		}
	case model.QuestionTypeNumberRange:
		v.Number = rec.OptionChosen.Index
	case model.QuestionTypeDate:
		if rec.OptionResponse != nil {
			v.Date, _ = time.Parse(DateLayout, *rec.OptionResponse)
		}
	default:
		if rec.OptionResponse != nil {
			v.Text = *rec.OptionResponse
		}
	}
	return v
}

func questionNumber(q *model.Question) int {
	if q.Number != 0 {
		return q.Number
	}
	n, _ := strconv.Atoi(q.Order)
	return n
}
