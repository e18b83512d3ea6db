package conversation

import (
	"errors"

	"chatform/internal/model"
)

var (
	ErrNoCurrentQuestion = errors.New("no current question")
	ErrAlreadyStarted    = errors.New("conversation already started")
	ErrSkipNotAllowed    = errors.New("question is required and cannot be skipped")
	ErrTornDown          = errors.New("conversation torn down")
)

// ErrorKey names the slot of a validation error in the error set
type ErrorKey string

const (
	KeySingleSelect ErrorKey = "singleSelect"
	KeyDropdown     ErrorKey = "dropdown"
	KeyMultiSelect  ErrorKey = "multiSelect"
	KeyDate         ErrorKey = "date"
	KeyText         ErrorKey = "text"
	KeyLongText     ErrorKey = "longText"
	KeyEmail        ErrorKey = "email"
)

// number-range has no slot: it never fails
var errorKeys = map[model.QuestionType]ErrorKey{
	model.QuestionTypeSingleSelect: KeySingleSelect,
	model.QuestionTypeDropdown:     KeyDropdown,
	model.QuestionTypeMultiSelect:  KeyMultiSelect,
	model.QuestionTypeDate:         KeyDate,
	model.QuestionTypeText:         KeyText,
	model.QuestionTypeLongText:     KeyLongText,
	model.QuestionTypeEmail:        KeyEmail,
}

// KeyFor returns the error slot of a question type
func KeyFor(t model.QuestionType) (ErrorKey, bool) {
	k, ok := errorKeys[t]
	return k, ok
}

// ErrorSet maps error slots to their current message
type ErrorSet map[ErrorKey]string

// ValidationError is returned when an answer or the splash email is rejected
type ValidationError struct {
	Key     ErrorKey
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
