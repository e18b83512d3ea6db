package render

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"chatform/internal/conversation"
	"chatform/internal/model"
)

// SkipCommand skips an optional question
const SkipCommand = "/skip"

// Narrator phrases the conversation in place of the engine's own
// assistant messages. It writes one message for the given transcript.
type Narrator interface {
	Narrate(ctx context.Context, transcript []model.Message, w io.Writer) error
}

// Terminal drives a conversation over a line-oriented terminal
type Terminal struct {
	in       *bufio.Reader
	out      io.Writer
	style    Style
	shown    int
	narrator Narrator
	narrated int // user messages seen at the last narration, -1 before the first
}

// NewTerminal reads answers from in and writes the conversation to out
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:       bufio.NewReader(in),
		out:      out,
		style:    StyleFor(out),
		narrated: -1,
	}
}

// SetNarrator routes assistant messages through n
func (t *Terminal) SetNarrator(n Narrator) {
	t.narrator = n
}

// Header prints a boxed title
func (t *Terminal) Header(title string) {
	s := t.style
	w := utf8.RuneCountInString(title) + 4
	bar := strings.Repeat("─", w)
	fmt.Fprintln(t.out)
	fmt.Fprintf(t.out, "  %s\n", s.Dim("┌"+bar+"┐"))
	fmt.Fprintf(t.out, "  %s%s%s\n", s.Dim("│"), s.BoldCyan("  "+title+"  "), s.Dim("│"))
	fmt.Fprintf(t.out, "  %s\n", s.Dim("└"+bar+"┘"))
	fmt.Fprintln(t.out)
}

// Splash shows the survey title and description before the first question
func (t *Terminal) Splash(survey *model.Survey) {
	t.Header(survey.Title)
	if survey.Description != "" {
		fmt.Fprintf(t.out, "    %s\n\n", survey.Description)
	}
}

// Info prints an indented line
func (t *Terminal) Info(text string) {
	fmt.Fprintf(t.out, "    %s\n", text)
}

// Success prints a green checkmark with text
func (t *Terminal) Success(text string) {
	fmt.Fprintf(t.out, "  %s %s\n", t.style.BoldGreen("✓"), text)
}

// Fail prints a red cross with text
func (t *Terminal) Fail(text string) {
	fmt.Fprintf(t.out, "  %s %s\n", t.style.Red("✗"), text)
}

// Ask prints label as a prompt and returns the next line without its newline
func (t *Terminal) Ask(label string) (string, error) {
	fmt.Fprintf(t.out, "  %s %s ", t.style.BoldGreen("?"), t.style.Bold(label))
	return t.readLine()
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Flush prints transcript messages not shown yet
func (t *Terminal) Flush(e *conversation.Engine) {
	tr := e.Transcript()
	for _, m := range tr[min(t.shown, len(tr)):] {
		switch {
		case m.Role == model.RoleUser:
			fmt.Fprintf(t.out, "  %s %s\n", t.style.Dim("›"), m.Content)
		case t.narrator != nil:
		default:
			fmt.Fprintf(t.out, "\n  %s %s\n", t.style.BoldCyan("●"), m.Content)
		}
	}
	t.shown = len(tr)
}

// Run asks questions until the engine has no current question. It returns
// io.EOF if input ends first.
func (t *Terminal) Run(ctx context.Context, e *conversation.Engine) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.Flush(e)
		t.narrate(ctx, e)

		q, ok := e.Current()
		if !ok {
			return nil
		}
		in := For(q.Type)
		t.renderQuestion(e, q, in)

		line, err := t.readLine()
		if err != nil {
			return err
		}

		if strings.TrimSpace(line) == SkipCommand {
			if err := e.Skip(); err != nil {
				if errors.Is(err, conversation.ErrSkipNotAllowed) {
					t.Fail("This question is required.")
					continue
				}
				return err
			}
			continue
		}

		if err := in.Apply(e, q, line); err != nil {
			t.Fail(err.Error())
			continue
		}
		// multi-select lines toggle; an empty line submits
		if q.Type == model.QuestionTypeMultiSelect && strings.TrimSpace(line) != "" {
			continue
		}

		if err := e.Submit(); err != nil {
			var verr *conversation.ValidationError
			if errors.As(err, &verr) {
				continue
			}
			return err
		}
	}
}

// narrate asks the narrator for one message per answered question. A
// failing narrator falls back to the engine's own wording.
func (t *Terminal) narrate(ctx context.Context, e *conversation.Engine) {
	if t.narrator == nil {
		return
	}
	tr := e.Transcript()
	answered := 0
	for _, m := range tr {
		if m.Role == model.RoleUser {
			answered++
		}
	}
	if answered == t.narrated {
		return
	}
	t.narrated = answered

	fmt.Fprintf(t.out, "\n  %s ", t.style.BoldCyan("●"))
	if err := t.narrator.Narrate(ctx, tr, t.out); err != nil {
		fmt.Fprintln(t.out)
		t.Fail("assistant unavailable: " + err.Error())
		for i := len(tr) - 1; i >= 0; i-- {
			if tr[i].Role == model.RoleAssistant {
				t.Info(tr[i].Content)
				break
			}
		}
		return
	}
	fmt.Fprintln(t.out)
}

func (t *Terminal) renderQuestion(e *conversation.Engine, q model.Question, in Input) {
	s := t.style
	pos, total := e.Position()
	fmt.Fprintf(t.out, "  %s\n", s.Dim(fmt.Sprintf("question %d of %d · %.0f%%", pos, total, e.Progress())))

	in.Render(t.out, s, q, e.Buffers())

	if key, ok := conversation.KeyFor(q.Type); ok {
		if msg := e.Error(key); msg != "" {
			t.Fail(msg)
		}
	}

	hint := in.Hint(q)
	if !q.IsRequired() {
		hint += ", or " + SkipCommand + " to skip"
	}
	fmt.Fprintf(t.out, "  %s\n", s.Dim(hint))
	fmt.Fprintf(t.out, "  %s ", s.BoldGreen("?"))
}
