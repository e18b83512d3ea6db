package client

import (
	"context"
	"fmt"
	"sync"

	"chatform/internal/conversation"
	"chatform/internal/model"
)

// QuotaError blocks a session whose survey is out of responses. Its text is
// shown to the respondent as is.
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string { return e.Message }

// Is matches ErrQuotaExceeded
func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExceeded }

// SessionOptions configure one respondent session
type SessionOptions struct {
	Load LoadOptions
	// Conversational runs the session in assistant mode, which has its own quota
	Conversational bool
	// Engine is passed to the conversation engine; its OnFinish is replaced
	Engine conversation.Config
}

// Session ties a loaded survey, its conversation engine and the submission
// together. The engine reaching Finished triggers exactly one submission.
type Session struct {
	slug      string
	loaded    *Loaded
	engine    *conversation.Engine
	submitter *Submitter
	opts      SessionOptions

	ctx    context.Context
	cancel context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once
}

// Open loads the survey and prepares a session for it. The session's
// submission runs under ctx.
func (c *Client) Open(ctx context.Context, slug string, opts SessionOptions) (*Session, error) {
	loaded, err := c.Load(ctx, slug, opts.Load)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		slug:      slug,
		loaded:    loaded,
		submitter: c.NewSubmitter(slug),
		opts:      opts,
		ctx:       sctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	cfg := opts.Engine
	cfg.RequireEmail = loaded.EmailOnSplash
	cfg.OnFinish = s.onFinish
	s.engine = conversation.New(loaded.Questions, cfg)
	return s, nil
}

// Start checks the quota and starts the conversation. email is required
// when the survey collects it on the splash screen.
func (s *Session) Start(email string) error {
	if msg := s.loaded.QuotaMessage(s.opts.Conversational); msg != "" {
		return &QuotaError{Message: msg}
	}
	if err := s.engine.Start(email); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

func (s *Session) onFinish(snap conversation.Snapshot) {
	defer s.doneOnce.Do(func() { close(s.done) })
	_, _ = s.submitter.Submit(s.ctx, snap.Records, snap.Email, s.opts.Conversational)
}

// Engine returns the session's conversation engine
func (s *Session) Engine() *conversation.Engine { return s.engine }

// Loaded returns the survey the session runs
func (s *Session) Loaded() *Loaded { return s.loaded }

// Survey is shorthand for Loaded().Survey
func (s *Session) Survey() *model.Survey { return s.loaded.Survey }

// Submitter exposes the submission flags
func (s *Session) Submitter() *Submitter { return s.submitter }

// Done is closed once the submission attempt has finished
func (s *Session) Done() <-chan struct{} { return s.done }

// Close tears the engine down; a submission that has not started never will
func (s *Session) Close() {
	s.engine.Teardown()
	s.cancel()
}
