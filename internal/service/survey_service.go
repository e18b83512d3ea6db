package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"chatform/internal/cache"
	"chatform/internal/model"
	"chatform/internal/question"
	"chatform/internal/repository"
)

var (
	ErrSurveyNotFound = errors.New("survey not found")
	ErrForbidden      = errors.New("survey belongs to another owner")
	ErrSlugTaken      = errors.New("survey slug already exists")
)

// InvalidSurveyError describes why a survey definition was rejected
type InvalidSurveyError struct {
	Reason string
}

func (e *InvalidSurveyError) Error() string {
	return "invalid survey: " + e.Reason
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// SurveyService handles survey lookup, creation and usage limits
type SurveyService struct {
	surveyRepo repository.SurveyRepo
	planRepo   repository.PlanRepo
	cache      cache.SurveyCache
	usage      cache.UsageCache
	log        zerolog.Logger
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo, planRepo repository.PlanRepo, surveyCache cache.SurveyCache, usage cache.UsageCache, log zerolog.Logger) *SurveyService {
	return &SurveyService{
		surveyRepo: surveyRepo,
		planRepo:   planRepo,
		cache:      surveyCache,
		usage:      usage,
		log:        log,
	}
}

// GetBySlug returns the survey, reading through the cache. Cache failures
// are logged and fall back to MongoDB.
func (s *SurveyService) GetBySlug(ctx context.Context, slug string) (*model.Survey, error) {
	if cached, err := s.cache.Get(ctx, slug); err != nil {
		s.log.Warn().Err(err).Str("slug", slug).Msg("survey cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	survey, err := s.surveyRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get survey %q: %w", slug, err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	if err := s.cache.Set(ctx, survey); err != nil {
		s.log.Warn().Err(err).Str("slug", slug).Msg("survey cache write failed")
	}
	return survey, nil
}

// Questions returns the survey's questions with internal type tags
func (s *SurveyService) Questions(ctx context.Context, slug string) ([]model.Question, error) {
	survey, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return question.Normalize(survey.Questions, question.Options{}), nil
}

// Limits computes the usage of a survey against its owner's plan. The
// conversational total counts every survey of the owner.
func (s *SurveyService) Limits(ctx context.Context, survey *model.Survey) (*model.Limits, error) {
	maxResponses, maxChat, err := s.planQuotas(ctx, survey.OwnerID)
	if err != nil {
		return nil, err
	}

	total, err := s.responseCount(ctx, survey)
	if err != nil {
		return nil, err
	}

	owned, err := s.surveyRepo.GetByOwnerID(ctx, survey.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list owner surveys: %w", err)
	}
	var totalAI int64
	for _, other := range owned {
		if other.ID == survey.ID {
			continue
		}
		totalAI += other.TotalResponsesAI
	}
	totalAI += total.AI

	return &model.Limits{
		TotalResponses:         total.Total,
		TotalResponsesAI:       totalAI,
		SurveyMaxResponses:     maxResponses,
		SurveyMaxChatResponses: maxChat,
	}, nil
}

// responseCount prefers the Redis counters, seeding them from the survey
// document on first use
func (s *SurveyService) responseCount(ctx context.Context, survey *model.Survey) (cache.Usage, error) {
	fromDoc := cache.Usage{Total: survey.TotalResponses, AI: survey.TotalResponsesAI}

	u, err := s.usage.Get(ctx, survey.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("survey_id", survey.ID).Msg("usage cache read failed")
		return fromDoc, nil
	}
	if u != nil {
		return *u, nil
	}
	if err := s.usage.Seed(ctx, survey.ID, fromDoc); err != nil {
		s.log.Warn().Err(err).Str("survey_id", survey.ID).Msg("usage cache seed failed")
	}
	return fromDoc, nil
}

// planQuotas resolves the owner's plan; owners without a subscription are
// on the free plan, and plans without both features get the defaults
func (s *SurveyService) planQuotas(ctx context.Context, ownerID string) (int64, int64, error) {
	planID := model.FreePlanID
	sub, err := s.planRepo.GetSubscription(ctx, ownerID)
	if err != nil {
		return 0, 0, fmt.Errorf("get subscription: %w", err)
	}
	if sub != nil && sub.PriceID != "" {
		planID = sub.PriceID
	}

	plan, err := s.planRepo.GetPlan(ctx, planID)
	if err != nil {
		return 0, 0, fmt.Errorf("get plan %q: %w", planID, err)
	}
	if plan == nil || plan.Features.MaxResponses == nil || plan.Features.MaxChatResponses == nil {
		return model.DefaultMaxResponses, model.DefaultMaxChatResponses, nil
	}
	return *plan.Features.MaxResponses, *plan.Features.MaxChatResponses, nil
}

// Create stores a new survey for ownerID
func (s *SurveyService) Create(ctx context.Context, ownerID string, req *model.CreateSurveyRequest) (*model.Survey, error) {
	if err := validateSurvey(req); err != nil {
		return nil, err
	}

	survey := &model.Survey{
		Slug:        req.Slug,
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Settings:    req.Settings,
		Questions:   req.Questions,
	}
	// stored types keep the caller's tags; only the identity is filled in
	for i, q := range question.Normalize(req.Questions, question.Options{}) {
		survey.Questions[i].Number = q.Number
		survey.Questions[i].Order = q.Order
	}

	if _, err := s.surveyRepo.Create(ctx, survey); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create survey: %w", err)
	}
	if err := s.cache.Invalidate(ctx, survey.Slug); err != nil {
		s.log.Warn().Err(err).Str("slug", survey.Slug).Msg("survey cache invalidate failed")
	}

	s.log.Info().Str("slug", survey.Slug).Str("owner_id", ownerID).Int("questions", len(survey.Questions)).Msg("survey created")
	return survey, nil
}

// ListByOwner returns summaries of the owner's surveys, newest first
func (s *SurveyService) ListByOwner(ctx context.Context, ownerID string) ([]model.SurveySummary, error) {
	surveys, err := s.surveyRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	out := make([]model.SurveySummary, 0, len(surveys))
	for _, sv := range surveys {
		out = append(out, model.SurveySummary{
			ID:               sv.ID,
			Slug:             sv.Slug,
			Title:            sv.Title,
			Questions:        len(sv.Questions),
			TotalResponses:   sv.TotalResponses,
			TotalResponsesAI: sv.TotalResponsesAI,
			CreatedAt:        sv.CreatedAt,
		})
	}
	return out, nil
}

// GetOwned returns the survey only if ownerID owns it
func (s *SurveyService) GetOwned(ctx context.Context, slug, ownerID string) (*model.Survey, error) {
	survey, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if survey.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return survey, nil
}

func validateSurvey(req *model.CreateSurveyRequest) error {
	if !slugPattern.MatchString(req.Slug) {
		return &InvalidSurveyError{Reason: "slug must be 2-63 lowercase letters, digits or dashes"}
	}
	if strings.TrimSpace(req.Title) == "" {
		return &InvalidSurveyError{Reason: "title is required"}
	}
	if len(req.Questions) == 0 {
		return &InvalidSurveyError{Reason: "at least one question is required"}
	}
	orders := make(map[string]bool, len(req.Questions))
	numbers := make(map[int]bool, len(req.Questions))
	for i, q := range req.Questions {
		if q.Order != "" {
			if orders[q.Order] {
				return &InvalidSurveyError{Reason: fmt.Sprintf("question %d repeats order %q", i+1, q.Order)}
			}
			orders[q.Order] = true
		}
		if q.Number != 0 {
			if numbers[q.Number] {
				return &InvalidSurveyError{Reason: fmt.Sprintf("question %d repeats number %d", i+1, q.Number)}
			}
			numbers[q.Number] = true
		}
		if strings.TrimSpace(q.Title) == "" {
			return &InvalidSurveyError{Reason: fmt.Sprintf("question %d has no title", i+1)}
		}
		switch question.InternalType(string(q.Type)) {
		case model.QuestionTypeSingleSelect, model.QuestionTypeMultiSelect, model.QuestionTypeDropdown:
			if len(q.Options) == 0 {
				return &InvalidSurveyError{Reason: fmt.Sprintf("question %d needs options", i+1)}
			}
		case model.QuestionTypeNumberRange:
			if q.Scale != nil {
				lo, hi := q.Bounds()
				if lo >= hi {
					return &InvalidSurveyError{Reason: fmt.Sprintf("question %d has an empty scale", i+1)}
				}
			}
		case model.QuestionTypeDate, model.QuestionTypeText, model.QuestionTypeLongText, model.QuestionTypeEmail:
		default:
			return &InvalidSurveyError{Reason: fmt.Sprintf("question %d has unknown type %q", i+1, q.Type)}
		}
	}
	return nil
}
