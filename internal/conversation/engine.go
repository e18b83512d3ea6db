// Package conversation drives a survey one question at a time: it holds the
// question pointer, input buffers, validation errors and transcript of a
// single respondent session.
package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatform/internal/answer"
	"chatform/internal/model"
	"chatform/internal/validation"
)

// State is the lifecycle of a conversation
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateCompleting
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateCompleting:
		return "completing"
	case StateFinished:
		return "finished"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transcript templates
const (
	WelcomeTemplate   = "👋 Welcome to our interactive form! I'll guide you through a series of questions. Let's start with the first one: %s"
	CompletionMessage = "Thank you for completing all the questions! Your responses have been recorded."
)

// DefaultCompletionDelay separates the completion message from Finished
const DefaultCompletionDelay = 5 * time.Second

// Config tunes an Engine
type Config struct {
	// RequireEmail gates Start on a valid email address
	RequireEmail bool

	CompletionDelay time.Duration
	AfterFunc       AfterFunc
	NewID           func() string

	// OnFinish runs once, outside the engine lock, when Finished is reached
	OnFinish func(Snapshot)
}

// Snapshot is a copy of the conversation state
type Snapshot struct {
	State        State
	Questions    []model.Question
	CurrentIndex int // -1 when no question is current
	Responses    map[string]model.Value
	Records      []model.EncodedAnswer
	Transcript   []model.Message
	Progress     float64
	Complete     bool
	Email        string
}

// Engine is the state of one respondent session. All methods are safe to
// call from timer callbacks; each transition runs to completion under mu.
type Engine struct {
	mu sync.Mutex

	cfg   Config
	sched *Scheduler

	questions  []model.Question
	current    int
	state      State
	responses  map[string]model.Value
	records    []model.EncodedAnswer
	transcript []model.Message
	progress   float64
	errs       ErrorSet
	buf        Buffers
	email      string
	complete   bool
	tornDown   bool
}

// New creates an engine over an already normalized question list
func New(questions []model.Question, cfg Config) *Engine {
	if cfg.CompletionDelay <= 0 {
		cfg.CompletionDelay = DefaultCompletionDelay
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	e := &Engine{
		cfg:       cfg,
		sched:     NewScheduler(cfg.AfterFunc),
		questions: append([]model.Question(nil), questions...),
		current:   -1,
		responses: make(map[string]model.Value),
		errs:      make(ErrorSet),
	}
	var first *model.Question
	if len(e.questions) > 0 {
		first = &e.questions[0]
	}
	e.buf.reset(first)
	return e
}

// Start moves NotStarted to InProgress and asks the first question. With
// RequireEmail set, email must be valid or the start is rejected.
func (e *Engine) Start(email string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tornDown {
		return ErrTornDown
	}
	if e.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	if e.cfg.RequireEmail {
		if res := validation.Email(email); !res.Valid {
			e.errs[KeyEmail] = res.Error
			return &ValidationError{Key: KeyEmail, Message: res.Error}
		}
		delete(e.errs, KeyEmail)
	}
	e.email = email
	e.state = StateInProgress

	if len(e.questions) == 0 {
		e.enterCompleting()
		return nil
	}
	e.current = 0
	e.buf.reset(&e.questions[0])
	e.appendMessage(model.RoleAssistant, fmt.Sprintf(WelcomeTemplate, e.questions[0].Title))
	e.progress = 100 / float64(len(e.questions))
	return nil
}

// Submit validates the buffer of the current question and, when it passes,
// records the answer and advances.
func (e *Engine) Submit() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.currentQuestion()
	if q == nil {
		return ErrNoCurrentQuestion
	}

	value := e.buf.read(q.Type)
	key, hasKey := KeyFor(q.Type)
	if res := validation.Validate(q.Type, value); !res.Valid {
		if hasKey {
			e.errs[key] = res.Error
		}
		return &ValidationError{Key: key, Message: res.Error}
	}
	if hasKey {
		delete(e.errs, key)
	}

	e.responses[q.Key()] = value
	if q.Type == model.QuestionTypeEmail && e.email == "" {
		e.email = value.Text
	}
	e.records = append(e.records, answer.Encode(q, value))
	e.appendMessage(model.RoleUser, Display(q.Type, value))
	e.advance(q)
	return nil
}

// Skip passes over the current question when it is optional
func (e *Engine) Skip() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.currentQuestion()
	if q == nil {
		return ErrNoCurrentQuestion
	}
	if q.IsRequired() {
		return ErrSkipNotAllowed
	}

	e.records = append(e.records, answer.EncodeSkip(q))
	e.appendMessage(model.RoleUser, SkipMarker)
	e.advance(q)
	return nil
}

// Teardown cancels pending transitions; the engine ignores later events
func (e *Engine) Teardown() {
	e.mu.Lock()
	e.tornDown = true
	e.mu.Unlock()
	e.sched.Teardown()
}

func (e *Engine) currentQuestion() *model.Question {
	if e.tornDown || e.state != StateInProgress || e.current < 0 || e.current >= len(e.questions) {
		return nil
	}
	return &e.questions[e.current]
}

func (e *Engine) advance(q *model.Question) {
	pos := e.positionOf(q)
	total := len(e.questions)

	if pos < total-1 {
		next := &e.questions[pos+1]
		e.current = pos + 1
		e.appendMessage(model.RoleAssistant, next.Title)
		e.buf.reset(next)
	} else {
		e.buf.reset(nil)
		e.enterCompleting()
	}

	progress := float64(pos+2) / float64(total) * 100
	if progress > 100 {
		progress = 100
	}
	e.progress = progress
}

func (e *Engine) positionOf(q *model.Question) int {
	for i := range e.questions {
		if e.questions[i].SameAs(q) {
			return i
		}
	}
	return e.current
}

func (e *Engine) enterCompleting() {
	e.state = StateCompleting
	e.current = -1
	e.appendMessage(model.RoleAssistant, CompletionMessage)
	e.sched.After(e.cfg.CompletionDelay, e.finish)
}

func (e *Engine) finish() {
	e.mu.Lock()
	if e.tornDown || e.state != StateCompleting {
		e.mu.Unlock()
		return
	}
	e.state = StateFinished
	e.complete = true
	snap := e.snapshot()
	e.mu.Unlock()

	if e.cfg.OnFinish != nil {
		e.cfg.OnFinish(snap)
	}
}

func (e *Engine) appendMessage(role model.Role, content string) {
	e.transcript = append(e.transcript, model.Message{
		ID:      e.cfg.NewID(),
		Role:    role,
		Content: content,
	})
}

func (e *Engine) snapshot() Snapshot {
	responses := make(map[string]model.Value, len(e.responses))
	for k, v := range e.responses {
		responses[k] = v
	}
	return Snapshot{
		State:        e.state,
		Questions:    append([]model.Question(nil), e.questions...),
		CurrentIndex: e.current,
		Responses:    responses,
		Records:      append([]model.EncodedAnswer(nil), e.records...),
		Transcript:   append([]model.Message(nil), e.transcript...),
		Progress:     e.progress,
		Complete:     e.complete,
		Email:        e.email,
	}
}

// Snapshot returns a copy of the whole state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// State returns the lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Current returns a copy of the question awaiting an answer
func (e *Engine) Current() (model.Question, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q := e.currentQuestion()
	if q == nil {
		return model.Question{}, false
	}
	return *q, true
}

// Position returns the 1-based ordinal of the current question and the total
func (e *Engine) Position() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current + 1, len(e.questions)
}

// Progress returns the completion percentage
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Transcript returns a copy of the message log
func (e *Engine) Transcript() []model.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Message(nil), e.transcript...)
}

// Records returns a copy of the encoded answers so far
func (e *Engine) Records() []model.EncodedAnswer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.EncodedAnswer(nil), e.records...)
}

// Errors returns a copy of the validation error set
func (e *Engine) Errors() ErrorSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(ErrorSet, len(e.errs))
	for k, v := range e.errs {
		out[k] = v
	}
	return out
}

// Error returns the message for one slot, or ""
func (e *Engine) Error(key ErrorKey) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errs[key]
}

// Buffers returns a copy of the input buffers
func (e *Engine) Buffers() Buffers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.clone()
}

// SetChoice fills the single-select/dropdown buffer
func (e *Engine) SetChoice(label string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.Choice = label
}

// ToggleChoice adds label to the multi-select buffer, or removes it when present
func (e *Engine) ToggleChoice(label string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, c := range e.buf.Choices {
		if c == label {
			e.buf.Choices = append(e.buf.Choices[:i], e.buf.Choices[i+1:]...)
			return
		}
	}
	e.buf.Choices = append(e.buf.Choices, label)
}

// SetNumber fills the slider buffer, clamped to the current question's scale
func (e *Engine) SetNumber(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if q := e.currentQuestion(); q != nil {
		lo, hi := q.Bounds()
		if n < lo {
			n = lo
		}
		if n > hi {
			n = hi
		}
	}
	e.buf.Number = n
}

// SetDate fills the date buffer; the zero time clears it
func (e *Engine) SetDate(d time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.Date = d
}

// SetText fills the text/long-text buffer
func (e *Engine) SetText(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.Text = s
}

// SetEmail fills the email buffer
func (e *Engine) SetEmail(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.Email = s
}
