// Package validation gates answers before the conversation engine accepts them.
package validation

import (
	"regexp"
	"strings"
	"time"

	"chatform/internal/model"
)

// Error messages shown next to the offending input
const (
	MsgSelectOption   = "Please select an option."
	MsgSelectAtLeast  = "Please select at least one option."
	MsgSelectDate     = "Please select a date."
	MsgRequired       = "This field is required."
	MsgTooShort       = "Please enter at least 10 characters."
	MsgInvalidEmail   = "Please enter a valid email address."
	LongTextMinLength = 10
)

// local@domain.tld with no whitespace; Unicode spaces and BOM count as whitespace
var emailPattern = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)

// Result is the outcome of a validator. Error is empty when Valid.
type Result struct {
	Valid bool
	Error string
}

func ok() Result {
	return Result{Valid: true}
}

func fail(msg string) Result {
	return Result{Error: msg}
}

// SingleSelect requires a selection
func SingleSelect(choice string) Result {
	if choice == "" {
		return fail(MsgSelectOption)
	}
	return ok()
}

// Dropdown requires a selection
func Dropdown(choice string) Result {
	return SingleSelect(choice)
}

// MultiSelect requires at least one selection
func MultiSelect(choices []string) Result {
	if len(choices) == 0 {
		return fail(MsgSelectAtLeast)
	}
	return ok()
}

// NumberRange is always valid: the slider always holds a value in range
func NumberRange(int) Result {
	return ok()
}

// Date requires a date to be set
func Date(d time.Time) Result {
	if d.IsZero() {
		return fail(MsgSelectDate)
	}
	return ok()
}

// Text requires non-blank input
func Text(s string) Result {
	if strings.TrimSpace(s) == "" {
		return fail(MsgRequired)
	}
	return ok()
}

// LongText requires at least LongTextMinLength characters after trimming
func LongText(s string) Result {
	trimmed := strings.TrimSpace(s)
	switch {
	case trimmed == "":
		return fail(MsgRequired)
	case len([]rune(trimmed)) < LongTextMinLength:
		return fail(MsgTooShort)
	}
	return ok()
}

// Email requires local@domain.tld
func Email(s string) Result {
	if !emailPattern.MatchString(s) {
		return fail(MsgInvalidEmail)
	}
	return ok()
}

// Validate dispatches on the question type. Types without a validator pass.
func Validate(t model.QuestionType, v model.Value) Result {
	switch t {
	case model.QuestionTypeSingleSelect:
		return SingleSelect(v.Choice)
	case model.QuestionTypeDropdown:
		return Dropdown(v.Choice)
	case model.QuestionTypeMultiSelect:
		return MultiSelect(v.Choices)
	case model.QuestionTypeNumberRange:
		return NumberRange(v.Number)
	case model.QuestionTypeDate:
		return Date(v.Date)
	case model.QuestionTypeText:
		return Text(v.Text)
	case model.QuestionTypeLongText:
		return LongText(v.Text)
	case model.QuestionTypeEmail:
		return Email(v.Text)
	}
	return ok()
}
