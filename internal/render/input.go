// Package render presents questions on a terminal and feeds what the
// respondent types into the conversation engine's input buffers.
package render

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"chatform/internal/answer"
	"chatform/internal/conversation"
	"chatform/internal/model"
)

// Target is the buffer side of the conversation engine
type Target interface {
	SetChoice(label string)
	ToggleChoice(label string)
	SetNumber(n int)
	SetDate(d time.Time)
	SetText(s string)
	SetEmail(s string)
}

// ErrBadInput means a line could not be read as an answer for the question
var ErrBadInput = errors.New("unrecognized input")

// Input renders one question type and applies typed lines to its buffer.
// Implementations hold no state; everything lives in the engine.
type Input interface {
	Render(w io.Writer, s Style, q model.Question, buf conversation.Buffers)
	Apply(t Target, q model.Question, line string) error
	// Hint is the one-line instruction shown under the question
	Hint(q model.Question) string
}

var inputs = map[model.QuestionType]Input{
	model.QuestionTypeSingleSelect: choiceInput{},
	model.QuestionTypeDropdown:     choiceInput{},
	model.QuestionTypeMultiSelect:  multiChoiceInput{},
	model.QuestionTypeNumberRange:  sliderInput{},
	model.QuestionTypeDate:         dateInput{},
	model.QuestionTypeText:         textInput{},
	model.QuestionTypeLongText:     textInput{},
	model.QuestionTypeEmail:        emailInput{},
}

// For returns the input for a question type; unknown types read plain text
func For(t model.QuestionType) Input {
	if in, ok := inputs[t]; ok {
		return in
	}
	return textInput{}
}

// resolveOption accepts a 1-based index or an option label (case-insensitive)
func resolveOption(q model.Question, token string) (string, bool) {
	token = strings.TrimSpace(token)
	if n, err := strconv.Atoi(token); err == nil {
		return q.OptionLabel(n)
	}
	for _, opt := range q.Options {
		if strings.EqualFold(opt.Label, token) {
			return opt.Label, true
		}
	}
	return "", false
}

type choiceInput struct{}

func (choiceInput) Render(w io.Writer, s Style, q model.Question, buf conversation.Buffers) {
	for i, opt := range q.Options {
		marker := " "
		if opt.Label == buf.Choice && buf.Choice != "" {
			marker = s.BoldGreen("●")
		}
		fmt.Fprintf(w, "    %s %s %s\n", marker, s.Cyan(strconv.Itoa(i+1)+")"), opt.Label)
	}
}

func (choiceInput) Apply(t Target, q model.Question, line string) error {
	if strings.TrimSpace(line) == "" {
		t.SetChoice("")
		return nil
	}
	label, ok := resolveOption(q, line)
	if !ok {
		return fmt.Errorf("%w: no option %q", ErrBadInput, strings.TrimSpace(line))
	}
	t.SetChoice(label)
	return nil
}

func (choiceInput) Hint(model.Question) string {
	return "type the number or name of an option"
}

type multiChoiceInput struct{}

func (multiChoiceInput) Render(w io.Writer, s Style, q model.Question, buf conversation.Buffers) {
	selected := make(map[string]bool, len(buf.Choices))
	for _, c := range buf.Choices {
		selected[c] = true
	}
	for i, opt := range q.Options {
		box := "[ ]"
		if selected[opt.Label] {
			box = s.BoldGreen("[x]")
		}
		fmt.Fprintf(w, "    %s %s %s\n", box, s.Cyan(strconv.Itoa(i+1)+")"), opt.Label)
	}
}

// Apply toggles every comma separated option in line, in order. Labels are
// resolved before any toggle so a bad token changes nothing.
func (multiChoiceInput) Apply(t Target, q model.Question, line string) error {
	var labels []string
	for _, tok := range strings.Split(line, ",") {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		label, ok := resolveOption(q, tok)
		if !ok {
			return fmt.Errorf("%w: no option %q", ErrBadInput, strings.TrimSpace(tok))
		}
		labels = append(labels, label)
	}
	for _, label := range labels {
		t.ToggleChoice(label)
	}
	return nil
}

func (multiChoiceInput) Hint(model.Question) string {
	return "toggle options with numbers separated by commas, then press enter on an empty line"
}

type sliderInput struct{}

func (sliderInput) Render(w io.Writer, s Style, q model.Question, buf conversation.Buffers) {
	lo, hi := q.Bounds()
	var b strings.Builder
	for n := lo; n <= hi; n++ {
		if n > lo {
			b.WriteByte(' ')
		}
		if n == buf.Number {
			b.WriteString(s.BoldGreen("[" + strconv.Itoa(n) + "]"))
		} else {
			b.WriteString(s.Dim(strconv.Itoa(n)))
		}
	}
	fmt.Fprintf(w, "    %s\n", b.String())
}

// Apply keeps the current slider value on an empty line
func (sliderInput) Apply(t Target, _ model.Question, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrBadInput, line)
	}
	t.SetNumber(n)
	return nil
}

func (sliderInput) Hint(q model.Question) string {
	lo, hi := q.Bounds()
	return fmt.Sprintf("pick a number from %d to %d, or press enter to keep the highlighted one", lo, hi)
}

type dateInput struct{}

func (dateInput) Render(w io.Writer, s Style, _ model.Question, buf conversation.Buffers) {
	if buf.Date.IsZero() {
		fmt.Fprintf(w, "    %s\n", s.Dim("no date selected"))
		return
	}
	fmt.Fprintf(w, "    %s\n", conversation.LongDate(buf.Date))
}

func (dateInput) Apply(t Target, _ model.Question, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		t.SetDate(time.Time{})
		return nil
	}
	d, err := time.Parse(answer.DateLayout, line)
	if err != nil {
		return fmt.Errorf("%w: dates look like 2026-10-19", ErrBadInput)
	}
	t.SetDate(d)
	return nil
}

func (dateInput) Hint(model.Question) string {
	return "enter a date as YYYY-MM-DD"
}

type textInput struct{}

func (textInput) Render(io.Writer, Style, model.Question, conversation.Buffers) {}

func (textInput) Apply(t Target, _ model.Question, line string) error {
	t.SetText(line)
	return nil
}

func (textInput) Hint(q model.Question) string {
	if q.Type == model.QuestionTypeLongText {
		return "type your answer (at least 10 characters)"
	}
	return "type your answer"
}

type emailInput struct{}

func (emailInput) Render(io.Writer, Style, model.Question, conversation.Buffers) {}

func (emailInput) Apply(t Target, _ model.Question, line string) error {
	t.SetEmail(strings.TrimSpace(line))
	return nil
}

func (emailInput) Hint(model.Question) string {
	return "type your email address"
}
