package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatform/internal/answer"
	"chatform/internal/cache"
	"chatform/internal/model"
	"chatform/internal/question"
	"chatform/internal/repository"
	"chatform/internal/validation"
)

// MsgResponseRecorded is the reply to a successful submission
const MsgResponseRecorded = "Response recorded successfully"

// EventResponseRecorded is the owner feed event type
const EventResponseRecorded = "response_recorded"

// ErrQuotaExceeded matches every *QuotaError
var ErrQuotaExceeded = errors.New("survey response quota exceeded")

// QuotaError carries the message shown to a blocked respondent
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string { return e.Message }

// Is matches ErrQuotaExceeded
func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExceeded }

// InvalidSubmissionError describes a rejected set of answers
type InvalidSubmissionError struct {
	Reason string
}

func (e *InvalidSubmissionError) Error() string {
	return "invalid submission: " + e.Reason
}

// ResponseService records submissions and lists them for owners
type ResponseService struct {
	surveys      *SurveyService
	surveyRepo   repository.SurveyRepo
	responseRepo repository.ResponseRepo
	usage        cache.UsageCache
	broadcaster  Broadcaster
	log          zerolog.Logger
	now          func() time.Time
}

// NewResponseService creates a new response service
func NewResponseService(surveys *SurveyService, surveyRepo repository.SurveyRepo, responseRepo repository.ResponseRepo, usage cache.UsageCache, log zerolog.Logger) *ResponseService {
	return &ResponseService{
		surveys:      surveys,
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		usage:        usage,
		broadcaster:  nopBroadcaster{},
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *ResponseService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Record stores one submission after checking the quota and the answers
func (s *ResponseService) Record(ctx context.Context, slug string, req *model.SubmitRequest) (*model.SubmitResponse, error) {
	survey, err := s.surveys.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	limits, err := s.surveys.Limits(ctx, survey)
	if err != nil {
		return nil, err
	}
	if msg := limits.Exceeded(req.ConversationalAI); msg != "" {
		s.log.Info().Str("slug", slug).Bool("conversational", req.ConversationalAI).Msg("submission rejected by quota")
		return nil, &QuotaError{Message: msg}
	}

	questions := question.Normalize(survey.Questions, question.Options{
		AppendEmail: survey.Settings.Defaults.CollectEmailByDefault,
	})
	if err := checkAnswers(questions, req.Answers); err != nil {
		return nil, err
	}
	if req.Email != nil && *req.Email != "" {
		if res := validation.Email(*req.Email); !res.Valid {
			return nil, &InvalidSubmissionError{Reason: res.Error}
		}
	}

	resp := &model.Response{
		ID:               uuid.NewString(),
		SurveyID:         survey.ID,
		Slug:             survey.Slug,
		Answers:          req.Answers,
		Email:            req.Email,
		ConversationalAI: req.ConversationalAI,
		SubmittedAt:      s.now(),
	}
	if err := s.responseRepo.Create(ctx, resp); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}
	if err := s.surveyRepo.IncrementResponses(ctx, survey.ID, req.ConversationalAI); err != nil {
		s.log.Error().Err(err).Str("survey_id", survey.ID).Msg("increment survey totals failed")
	}

	total := limits.TotalResponses + 1
	if u, err := s.usage.Incr(ctx, survey.ID, req.ConversationalAI); err != nil {
		s.log.Warn().Err(err).Str("survey_id", survey.ID).Msg("usage cache increment failed")
	} else {
		total = u.Total
	}

	s.broadcaster.BroadcastToOwners(survey.Slug, EventResponseRecorded, model.ResponseRecorded{
		ResponseID:       resp.ID,
		Slug:             survey.Slug,
		Answers:          len(resp.Answers),
		ConversationalAI: resp.ConversationalAI,
		TotalResponses:   total,
		SubmittedAt:      resp.SubmittedAt,
	})

	s.log.Info().Str("slug", slug).Str("response_id", resp.ID).Int("answers", len(resp.Answers)).Msg("response recorded")
	return &model.SubmitResponse{Message: MsgResponseRecorded, ResponseID: resp.ID}, nil
}

// List returns decoded responses of a survey owned by ownerID
func (s *ResponseService) List(ctx context.Context, slug, ownerID string, limit int64) ([]model.DecodedResponse, error) {
	survey, err := s.surveys.GetOwned(ctx, slug, ownerID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responseRepo.ListBySurvey(ctx, survey.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	questions := question.Normalize(survey.Questions, question.Options{AppendEmail: true})
	byNumber := make(map[int]*model.Question, len(questions))
	for i := range questions {
		byNumber[questions[i].Number] = &questions[i]
	}

	out := make([]model.DecodedResponse, 0, len(responses))
	for _, r := range responses {
		decoded := model.DecodedResponse{
			ID:               r.ID,
			Email:            r.Email,
			ConversationalAI: r.ConversationalAI,
			SubmittedAt:      r.SubmittedAt,
			Answers:          make([]model.DecodedAnswer, 0, len(r.Answers)),
		}
		for _, rec := range r.Answers {
			q, ok := byNumber[rec.QuestionNumber]
			if !ok {
				continue
			}
			decoded.Answers = append(decoded.Answers, model.DecodedAnswer{
				QuestionNumber: rec.QuestionNumber,
				Title:          q.Title,
				Value:          answer.Decode(q, rec),
				Skipped:        answer.Skipped(rec),
			})
		}
		out = append(out, decoded)
	}
	return out, nil
}

// checkAnswers rejects records for unknown or repeated questions and
// records whose shape does not fit the question type
func checkAnswers(questions []model.Question, records []model.EncodedAnswer) error {
	byNumber := make(map[int]*model.Question, len(questions))
	for i := range questions {
		byNumber[questions[i].Number] = &questions[i]
	}

	seen := make(map[int]bool, len(records))
	for _, rec := range records {
		q, ok := byNumber[rec.QuestionNumber]
		if !ok {
			return &InvalidSubmissionError{Reason: fmt.Sprintf("unknown question %d", rec.QuestionNumber)}
		}
		if seen[rec.QuestionNumber] {
			return &InvalidSubmissionError{Reason: fmt.Sprintf("question %d answered twice", rec.QuestionNumber)}
		}
		seen[rec.QuestionNumber] = true

		if want := question.WireTypeOf(q.Type); rec.QuestionType != want {
			return &InvalidSubmissionError{Reason: fmt.Sprintf("question %d is %s, not %s", rec.QuestionNumber, want, rec.QuestionType)}
		}

		switch q.Type {
		case model.QuestionTypeSingleSelect, model.QuestionTypeDropdown, model.QuestionTypeMultiSelect, model.QuestionTypeNumberRange:
			if rec.OptionResponse != nil {
				return &InvalidSubmissionError{Reason: fmt.Sprintf("question %d takes no optionResponse", rec.QuestionNumber)}
			}
		default:
			if !rec.OptionChosen.IsZero() {
				return &InvalidSubmissionError{Reason: fmt.Sprintf("question %d takes no optionChosen", rec.QuestionNumber)}
			}
		}

		switch q.Type {
		case model.QuestionTypeSingleSelect, model.QuestionTypeDropdown:
			if rec.OptionChosen.Multi || rec.OptionChosen.Index < 0 || rec.OptionChosen.Index > len(q.Options) {
				return &InvalidSubmissionError{Reason: fmt.Sprintf("question %d has no option %d", rec.QuestionNumber, rec.OptionChosen.Index)}
			}
		case model.QuestionTypeMultiSelect:
			for _, idx := range rec.OptionChosen.Indices {
				if idx < 1 || idx > len(q.Options) {
					return &InvalidSubmissionError{Reason: fmt.Sprintf("question %d has no option %d", rec.QuestionNumber, idx)}
				}
			}
		case model.QuestionTypeNumberRange:
			lo, hi := q.Bounds()
			if n := rec.OptionChosen.Index; !answer.Skipped(rec) && (n < lo || n > hi) {
				return &InvalidSubmissionError{Reason: fmt.Sprintf("question %d value %d is outside %d-%d", rec.QuestionNumber, n, lo, hi)}
			}
		}
	}
	return nil
}
