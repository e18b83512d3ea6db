package client

import (
	"context"
	"fmt"
	"net/http"

	"chatform/internal/model"
	"chatform/internal/question"
)

// LoadOptions tune how a survey is prepared for a session
type LoadOptions struct {
	// EmailAsQuestion asks for the email as a trailing optional question
	// instead of on the splash screen, when the survey collects emails
	EmailAsQuestion bool
}

// Loaded is a survey ready to be run
type Loaded struct {
	Survey    *model.Survey
	Questions []model.Question
	Limits    model.Limits
	// EmailOnSplash is set when the email must be given before starting
	EmailOnSplash bool
}

// QuotaMessage returns the message that blocks a new session, or ""
func (l *Loaded) QuotaMessage(conversational bool) string {
	return l.Limits.Exceeded(conversational)
}

// Conversational reports whether the survey runs with the assistant
func (l *Loaded) Conversational() bool {
	return l.Survey.Settings.Defaults.ConversationalAI
}

// Load fetches a survey by slug and normalizes its questions. A missing
// survey is ErrSurveyNotFound; anything else that fails is ErrUnavailable.
func (c *Client) Load(ctx context.Context, slug string, opts LoadOptions) (*Loaded, error) {
	var payload model.SurveyPayload
	err := c.do(ctx, http.MethodGet, c.surveyPath(slug), nil, &payload)
	switch {
	case hasStatus(err, http.StatusNotFound):
		return nil, fmt.Errorf("load survey %q: %w", slug, ErrSurveyNotFound)
	case err != nil:
		return nil, fmt.Errorf("load survey %q: %w: %w", slug, ErrUnavailable, err)
	case payload.Survey == nil:
		return nil, fmt.Errorf("load survey %q: %w", slug, ErrSurveyNotFound)
	}

	collectEmail := payload.Survey.Settings.Defaults.CollectEmailByDefault
	loaded := &Loaded{
		Survey: payload.Survey,
		Questions: question.Normalize(payload.Survey.Questions, question.Options{
			AppendEmail: collectEmail && opts.EmailAsQuestion,
		}),
		EmailOnSplash: collectEmail && !opts.EmailAsQuestion,
	}
	if payload.Limits != nil {
		loaded.Limits = *payload.Limits
	} else {
		loaded.Limits = model.Limits{
			TotalResponses:   payload.Survey.TotalResponses,
			TotalResponsesAI: payload.Survey.TotalResponsesAI,
		}
	}

	c.log.Info().Str("slug", slug).Int("questions", len(loaded.Questions)).Msg("survey loaded")
	return loaded, nil
}
