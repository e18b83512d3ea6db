package conversation

import (
	"time"

	"chatform/internal/model"
)

// Buffers hold the in-progress input for each kind of question. Single-select
// and dropdown share Choice; text and long-text share Text.
type Buffers struct {
	Choice  string
	Choices []string
	Number  int
	Date    time.Time
	Text    string
	Email   string
}

// reset clears every buffer; the slider starts at the midpoint of next's scale
func (b *Buffers) reset(next *model.Question) {
	lo, hi := model.DefaultScaleMin, model.DefaultScaleMax
	if next != nil {
		lo, hi = next.Bounds()
	}
	*b = Buffers{Number: lo + (hi-lo)/2}
}

// read returns the buffered value for a question type
func (b *Buffers) read(t model.QuestionType) model.Value {
	switch t {
	case model.QuestionTypeSingleSelect, model.QuestionTypeDropdown:
		return model.Value{Choice: b.Choice}
	case model.QuestionTypeMultiSelect:
		return model.Value{Choices: append([]string(nil), b.Choices...)}
	case model.QuestionTypeNumberRange:
		return model.Value{Number: b.Number}
	case model.QuestionTypeDate:
		return model.Value{Date: b.Date}
	case model.QuestionTypeEmail:
		return model.Value{Text: b.Email}
	default:
		return model.Value{Text: b.Text}
	}
}

func (b Buffers) clone() Buffers {
	b.Choices = append([]string(nil), b.Choices...)
	return b
}
