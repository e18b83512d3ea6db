package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatform/internal/conversation"
	"chatform/internal/model"
	"chatform/internal/validation"
)

type recorder struct {
	choice  string
	toggled []string
	number  int
	date    time.Time
	text    string
	email   string
}

func (r *recorder) SetChoice(label string)    { r.choice = label }
func (r *recorder) ToggleChoice(label string) { r.toggled = append(r.toggled, label) }
func (r *recorder) SetNumber(n int)           { r.number = n }
func (r *recorder) SetDate(d time.Time)       { r.date = d }
func (r *recorder) SetText(s string)          { r.text = s }
func (r *recorder) SetEmail(s string)         { r.email = s }

func colors() model.Question {
	return model.Question{Order: "1", Number: 1, Title: "Colors", Type: model.QuestionTypeMultiSelect,
		Options: []model.Option{{ID: "Red", Label: "Red"}, {ID: "Green", Label: "Green"}, {ID: "Blue", Label: "Blue"}}}
}

func TestChoiceApply(t *testing.T) {
	q := colors()
	q.Type = model.QuestionTypeSingleSelect
	in := For(q.Type)

	r := &recorder{}
	require.NoError(t, in.Apply(r, q, "2"))
	assert.Equal(t, "Green", r.choice)

	require.NoError(t, in.Apply(r, q, " blue "))
	assert.Equal(t, "Blue", r.choice)

	assert.ErrorIs(t, in.Apply(r, q, "7"), ErrBadInput)
	assert.ErrorIs(t, in.Apply(r, q, "purple"), ErrBadInput)
	assert.Equal(t, "Blue", r.choice)
}

func TestMultiChoiceApplyIsAllOrNothing(t *testing.T) {
	q := colors()
	in := For(q.Type)

	r := &recorder{}
	require.NoError(t, in.Apply(r, q, "3, 1"))
	assert.Equal(t, []string{"Blue", "Red"}, r.toggled)

	r = &recorder{}
	assert.ErrorIs(t, in.Apply(r, q, "1, 9"), ErrBadInput)
	assert.Empty(t, r.toggled)
}

func TestSliderAndDateApply(t *testing.T) {
	r := &recorder{number: 5}
	slider := For(model.QuestionTypeNumberRange)
	require.NoError(t, slider.Apply(r, model.Question{}, ""))
	assert.Equal(t, 5, r.number)
	require.NoError(t, slider.Apply(r, model.Question{}, "8"))
	assert.Equal(t, 8, r.number)
	assert.ErrorIs(t, slider.Apply(r, model.Question{}, "eight"), ErrBadInput)

	date := For(model.QuestionTypeDate)
	require.NoError(t, date.Apply(r, model.Question{}, "2026-10-19"))
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), r.date)
	assert.ErrorIs(t, date.Apply(r, model.Question{}, "19/10/2026"), ErrBadInput)
}

func TestUnknownTypeReadsText(t *testing.T) {
	r := &recorder{}
	require.NoError(t, For("rating").Apply(r, model.Question{}, "hello"))
	assert.Equal(t, "hello", r.text)
}

func TestSliderRenderHighlightsValue(t *testing.T) {
	var buf bytes.Buffer
	q := model.Question{Type: model.QuestionTypeNumberRange, Scale: &model.Scale{Min: 1, Max: 5}}
	For(q.Type).Render(&buf, Style{}, q, conversation.Buffers{Number: 3})
	assert.Equal(t, "    1 2 [3] 4 5\n", buf.String())
}

func newEngine(t *testing.T, questions []model.Question) *conversation.Engine {
	t.Helper()
	e := conversation.New(questions, conversation.Config{CompletionDelay: time.Hour})
	t.Cleanup(e.Teardown)
	return e
}

func TestTerminalRunThreeQuestions(t *testing.T) {
	questions := []model.Question{
		{Order: "1", Number: 1, Title: "Pick a color", Type: model.QuestionTypeSingleSelect,
			Options: []model.Option{{ID: "Red", Label: "Red"}, {ID: "Blue", Label: "Blue"}}},
		colors(),
		{Order: "3", Number: 3, Title: "Tell us more", Type: model.QuestionTypeLongText},
	}
	questions[1].Order, questions[1].Number = "2", 2

	e := newEngine(t, questions)
	require.NoError(t, e.Start(""))

	input := strings.Join([]string{
		"",        // nothing selected: rejected
		"Blue",    // question 1
		"1,3",     // toggle Red and Blue
		"",        // submit question 2
		"too few", // rejected
		"plenty of characters here",
	}, "\n") + "\n"

	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(input), &out)
	require.NoError(t, term.Run(context.Background(), e))
	term.Flush(e)

	assert.Equal(t, conversation.StateCompleting, e.State())
	recs := e.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, model.Single(2), recs[0].OptionChosen)
	assert.Equal(t, model.Multiple([]int{1, 3}), recs[1].OptionChosen)

	text := out.String()
	assert.Contains(t, text, validation.MsgSelectOption)
	assert.Contains(t, text, validation.MsgTooShort)
	assert.Contains(t, text, "Red, Blue")
	assert.Contains(t, text, conversation.CompletionMessage)
}

func TestTerminalSkip(t *testing.T) {
	questions := []model.Question{
		{Order: "1", Number: 1, Title: "Nickname", Type: model.QuestionTypeText, Required: model.Bool(false)},
		{Order: "2", Number: 2, Title: "Name", Type: model.QuestionTypeText},
	}
	e := newEngine(t, questions)
	require.NoError(t, e.Start(""))

	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("/skip\n/skip\nAda\n"), &out)
	require.NoError(t, term.Run(context.Background(), e))

	assert.Contains(t, out.String(), "This question is required.")
	recs := e.Records()
	require.Len(t, recs, 2)
	assert.Nil(t, recs[0].OptionResponse)
	require.NotNil(t, recs[1].OptionResponse)
	assert.Equal(t, "Ada", *recs[1].OptionResponse)
}

func TestTerminalRunEndsOnEOF(t *testing.T) {
	e := newEngine(t, []model.Question{{Order: "1", Number: 1, Title: "Name", Type: model.QuestionTypeText}})
	require.NoError(t, e.Start(""))

	term := NewTerminal(strings.NewReader(""), io.Discard)
	assert.ErrorIs(t, term.Run(context.Background(), e), io.EOF)
}

type scriptNarrator struct {
	calls []int
	fail  bool
}

func (n *scriptNarrator) Narrate(_ context.Context, tr []model.Message, w io.Writer) error {
	answered := 0
	for _, m := range tr {
		if m.Role == model.RoleUser {
			answered++
		}
	}
	n.calls = append(n.calls, answered)
	if n.fail {
		return errors.New("offline")
	}
	_, err := io.WriteString(w, "narrated")
	return err
}

func TestTerminalNarratorReplacesAssistantLines(t *testing.T) {
	questions := []model.Question{
		{Order: "1", Number: 1, Title: "Name", Type: model.QuestionTypeText},
		{Order: "2", Number: 2, Title: "City", Type: model.QuestionTypeText},
	}
	e := newEngine(t, questions)
	require.NoError(t, e.Start(""))

	var out bytes.Buffer
	n := &scriptNarrator{}
	term := NewTerminal(strings.NewReader("\nAda\nParis\n"), &out)
	term.SetNarrator(n)
	require.NoError(t, term.Run(context.Background(), e))

	// the rejected empty answer does not narrate again
	assert.Equal(t, []int{0, 1, 2}, n.calls)
	assert.Equal(t, 3, strings.Count(out.String(), "narrated"))
	assert.NotContains(t, out.String(), conversation.CompletionMessage)
}

func TestTerminalNarratorFailureFallsBack(t *testing.T) {
	e := newEngine(t, []model.Question{{Order: "1", Number: 1, Title: "Name", Type: model.QuestionTypeText}})
	require.NoError(t, e.Start(""))

	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("Ada\n"), &out)
	term.SetNarrator(&scriptNarrator{fail: true})
	require.NoError(t, term.Run(context.Background(), e))

	assert.Contains(t, out.String(), "assistant unavailable: offline")
	assert.Contains(t, out.String(), conversation.CompletionMessage)
}
