package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chatform/internal/model"
)

// SkipMarker is the transcript entry for a skipped question
const SkipMarker = "Skipped"

// Display renders an accepted value as the user's transcript line
func Display(t model.QuestionType, v model.Value) string {
	switch t {
	case model.QuestionTypeSingleSelect, model.QuestionTypeDropdown:
		return v.Choice
	case model.QuestionTypeMultiSelect:
		return strings.Join(v.Choices, ", ")
	case model.QuestionTypeNumberRange:
		return strconv.Itoa(v.Number)
	case model.QuestionTypeDate:
		return LongDate(v.Date)
	default:
		return v.Text
	}
}

// LongDate formats d like "October 19th, 2026"
func LongDate(d time.Time) string {
	return fmt.Sprintf("%s %d%s, %d", d.Month(), d.Day(), ordinal(d.Day()), d.Year())
}

func ordinal(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
