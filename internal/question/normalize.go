// Package question maps stored question lists onto the types the
// conversation engine understands, and back.
package question

import (
	"strconv"

	"chatform/internal/model"
)

// EmailPrompt is the title of the synthetic trailing email question
const EmailPrompt = "What's your email address?"

var toInternal = map[model.WireType]model.QuestionType{
	model.WireTypeRadio:       model.QuestionTypeSingleSelect,
	model.WireTypeCheckboxes:  model.QuestionTypeMultiSelect,
	model.WireTypeLinearScale: model.QuestionTypeNumberRange,
}

var toWire = map[model.QuestionType]model.WireType{
	model.QuestionTypeSingleSelect: model.WireTypeRadio,
	model.QuestionTypeMultiSelect:  model.WireTypeCheckboxes,
	model.QuestionTypeNumberRange:  model.WireTypeLinearScale,
	model.QuestionTypeText:         model.WireTypeText,
	model.QuestionTypeLongText:     model.WireTypeText,
}

// Options tunes Normalize
type Options struct {
	// AppendEmail adds a trailing optional email question unless one exists
	AppendEmail bool
}

// InternalType maps a stored tag to the internal type; unknown tags pass through
func InternalType(tag string) model.QuestionType {
	if t, ok := toInternal[model.WireType(tag)]; ok {
		return t
	}
	return model.QuestionType(tag)
}

// WireTypeOf is the inverse of InternalType. text and long-text both become text.
func WireTypeOf(t model.QuestionType) model.WireType {
	if w, ok := toWire[t]; ok {
		return w
	}
	return model.WireType(t)
}

// Normalize returns a copy of raw with internal type tags, option ids and
// question numbers filled in. The input slice is not modified. Orders and
// numbers are unique in the result: the first explicit use of a value keeps
// it, missing or repeated ones get the next free value.
func Normalize(raw []model.Question, opts Options) []model.Question {
	orders := make(map[string]bool, len(raw)+1)
	numbers := make(map[int]bool, len(raw)+1)
	keepOrder := make([]bool, len(raw))
	keepNumber := make([]bool, len(raw))
	for i, q := range raw {
		if q.Order != "" && !orders[q.Order] {
			orders[q.Order] = true
			keepOrder[i] = true
		}
		if q.Number != 0 && !numbers[q.Number] {
			numbers[q.Number] = true
			keepNumber[i] = true
		}
	}

	out := make([]model.Question, 0, len(raw)+1)
	hasEmail := false
	for i, q := range raw {
		q.Type = InternalType(string(q.Type))
		if !keepNumber[i] {
			q.Number = nextNumber(numbers, i+1)
		}
		if !keepOrder[i] {
			q.Order = nextOrder(orders, q.Number)
		}
		if len(q.Options) > 0 {
			options := make([]model.Option, len(q.Options))
			for j, o := range q.Options {
				if o.ID == "" {
					o.ID = o.Label
				}
				options[j] = o
			}
			q.Options = options
		}
		if q.Type == model.QuestionTypeEmail {
			hasEmail = true
		}
		out = append(out, q)
	}

	if opts.AppendEmail && !hasEmail {
		n := nextNumber(numbers, len(out)+1)
		out = append(out, model.Question{
			Order:     nextOrder(orders, n),
			Number:    n,
			Title:     EmailPrompt,
			Type:      model.QuestionTypeEmail,
			Required:  model.Bool(false),
			Synthetic: true,
		})
	}
	return out
}

func nextNumber(used map[int]bool, from int) int {
	n := from
	for used[n] {
		n++
	}
	used[n] = true
	return n
}

func nextOrder(used map[string]bool, from int) string {
	n := from
	for used[strconv.Itoa(n)] {
		n++
	}
	s := strconv.Itoa(n)
	used[s] = true
	return s
}
