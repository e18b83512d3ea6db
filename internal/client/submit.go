package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"chatform/internal/model"
)

// ErrAlreadySubmitted is returned by every Submit after the first
var ErrAlreadySubmitted = errors.New("responses already submitted")

// Submitter posts one session's answers at most once
type Submitter struct {
	client *Client
	slug   string

	started atomic.Bool
	pending atomic.Bool

	mu     sync.Mutex
	err    error
	result *model.SubmitResponse
}

// NewSubmitter returns a submitter for the survey slug
func (c *Client) NewSubmitter(slug string) *Submitter {
	return &Submitter{client: c, slug: slug}
}

// Submit posts the records. Only the first call sends anything; failures
// are kept in Err and are not retried.
func (s *Submitter) Submit(ctx context.Context, records []model.EncodedAnswer, email string, conversational bool) (*model.SubmitResponse, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadySubmitted
	}
	s.pending.Store(true)
	defer s.pending.Store(false)

	body := model.SubmitRequest{
		Answers:          records,
		ConversationalAI: conversational,
	}
	if body.Answers == nil {
		body.Answers = []model.EncodedAnswer{}
	}
	if email != "" {
		body.Email = model.String(email)
	}

	var out model.SubmitResponse
	err := s.client.do(ctx, http.MethodPost, s.client.surveyPath(s.slug), body, &out)
	switch {
	case hasStatus(err, http.StatusForbidden):
		err = fmt.Errorf("submit responses: %w: %w", ErrQuotaExceeded, err)
	case hasStatus(err, http.StatusNotFound):
		err = fmt.Errorf("submit responses: %w", ErrSurveyNotFound)
	case err != nil:
		err = fmt.Errorf("submit responses: %w: %w", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err
		s.client.log.Error().Err(err).Str("slug", s.slug).Msg("submission failed")
		return nil, err
	}
	s.result = &out
	s.client.log.Info().Str("slug", s.slug).Str("response_id", out.ResponseID).Int("answers", len(records)).Msg("responses submitted")
	return &out, nil
}

// Pending reports whether the submission request is in flight
func (s *Submitter) Pending() bool {
	return s.pending.Load()
}

// Submitted reports whether Submit has been called
func (s *Submitter) Submitted() bool {
	return s.started.Load()
}

// Err returns the submission failure, if any
func (s *Submitter) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Result returns the API reply of a successful submission
func (s *Submitter) Result() *model.SubmitResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
