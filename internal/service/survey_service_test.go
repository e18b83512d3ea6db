package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatform/internal/model"
)

func TestGetBySlugReadsThroughCache(t *testing.T) {
	f := newFixture(t, demoSurvey())
	ctx := context.Background()

	s, err := f.surveySvc.GetBySlug(ctx, "feedback")
	require.NoError(t, err)
	assert.Equal(t, "Feedback", s.Title)

	_, err = f.surveySvc.GetBySlug(ctx, "feedback")
	require.NoError(t, err)
	assert.Equal(t, 1, f.surveys.Lookups())

	_, err = f.surveySvc.GetBySlug(ctx, "nope")
	assert.ErrorIs(t, err, ErrSurveyNotFound)
}

func TestQuestionsAreNormalized(t *testing.T) {
	f := newFixture(t, demoSurvey())
	qs, err := f.surveySvc.Questions(context.Background(), "feedback")
	require.NoError(t, err)
	require.Len(t, qs, 4)
	assert.Equal(t, model.QuestionTypeSingleSelect, qs[0].Type)
	assert.Equal(t, model.QuestionTypeNumberRange, qs[1].Type)
	assert.Equal(t, model.QuestionTypeMultiSelect, qs[2].Type)
	assert.Equal(t, model.QuestionTypeLongText, qs[3].Type)
}

func TestLimitsDefaultToFreePlan(t *testing.T) {
	survey := demoSurvey()
	survey.TotalResponses = 3
	f := newFixture(t, survey)

	limits, err := f.surveySvc.Limits(context.Background(), survey)
	require.NoError(t, err)
	assert.Equal(t, model.Limits{
		TotalResponses:         3,
		SurveyMaxResponses:     model.DefaultMaxResponses,
		SurveyMaxChatResponses: model.DefaultMaxChatResponses,
	}, *limits)
}

func TestLimitsUsePlanFeatures(t *testing.T) {
	survey := demoSurvey()
	other := &model.Survey{ID: "s-2", Slug: "other", OwnerID: "owner-1", TotalResponsesAI: 4}
	f := newFixture(t, survey, other)
	f.plans.Subscriptions["owner-1"] = &model.Subscription{UserID: "owner-1", PriceID: "pro"}
	f.plans.Plans["pro"] = &model.Plan{ID: "pro", Features: model.PlanFeatures{
		MaxResponses: int64Ptr(500), MaxChatResponses: int64Ptr(50),
	}}

	survey.TotalResponsesAI = 2
	limits, err := f.surveySvc.Limits(context.Background(), survey)
	require.NoError(t, err)
	assert.Equal(t, int64(500), limits.SurveyMaxResponses)
	assert.Equal(t, int64(50), limits.SurveyMaxChatResponses)
	assert.Equal(t, int64(6), limits.TotalResponsesAI)
}

func TestLimitsPlanMissingOneFeature(t *testing.T) {
	survey := demoSurvey()
	f := newFixture(t, survey)
	f.plans.Plans[model.FreePlanID] = &model.Plan{ID: model.FreePlanID, Features: model.PlanFeatures{MaxResponses: int64Ptr(99)}}

	limits, err := f.surveySvc.Limits(context.Background(), survey)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultMaxResponses, limits.SurveyMaxResponses)
}

func TestCreateSurvey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := &model.CreateSurveyRequest{
		Slug:  "team-pulse",
		Title: "Team pulse",
		Questions: []model.Question{
			{Title: "Mood", Type: "linear-scale"},
			{Title: "Why?", Type: "long-text"},
		},
	}
	s, err := f.surveySvc.Create(ctx, "owner-1", req)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", s.OwnerID)
	assert.Equal(t, 2, s.Questions[1].Number)
	assert.Equal(t, "2", s.Questions[1].Order)
	assert.Equal(t, model.QuestionType("linear-scale"), s.Questions[0].Type)

	_, err = f.surveySvc.Create(ctx, "owner-1", req)
	assert.ErrorIs(t, err, ErrSlugTaken)

	list, err := f.surveySvc.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Questions)
}

func TestCreateSurveyValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		req  model.CreateSurveyRequest
	}{
		{"bad slug", model.CreateSurveyRequest{Slug: "Bad Slug", Title: "x", Questions: []model.Question{{Title: "q", Type: "text"}}}},
		{"no title", model.CreateSurveyRequest{Slug: "ok", Questions: []model.Question{{Title: "q", Type: "text"}}}},
		{"no questions", model.CreateSurveyRequest{Slug: "ok", Title: "x"}},
		{"options missing", model.CreateSurveyRequest{Slug: "ok", Title: "x", Questions: []model.Question{{Title: "q", Type: "radio"}}}},
		{"unknown type", model.CreateSurveyRequest{Slug: "ok", Title: "x", Questions: []model.Question{{Title: "q", Type: "matrix"}}}},
		{"repeated order", model.CreateSurveyRequest{Slug: "ok", Title: "x", Questions: []model.Question{{Order: "1", Title: "a", Type: "text"}, {Order: "1", Title: "b", Type: "text"}}}},
		{"repeated number", model.CreateSurveyRequest{Slug: "ok", Title: "x", Questions: []model.Question{{Number: 2, Title: "a", Type: "text"}, {Number: 2, Title: "b", Type: "text"}}}},
		{"empty scale", model.CreateSurveyRequest{Slug: "ok", Title: "x", Questions: []model.Question{{Title: "q", Type: "linear-scale", Scale: &model.Scale{Min: 5, Max: 5}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.surveySvc.Create(context.Background(), "owner-1", &req)
			var invalid *InvalidSurveyError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestCreateSurveyFillsUniqueIdentity(t *testing.T) {
	f := newFixture(t)

	s, err := f.surveySvc.Create(context.Background(), "owner-1", &model.CreateSurveyRequest{
		Slug:  "pulse",
		Title: "Pulse",
		Questions: []model.Question{
			{Title: "First", Type: "text"},
			{Order: "1", Number: 1, Title: "Second", Type: "text"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2", s.Questions[0].Order)
	assert.Equal(t, 2, s.Questions[0].Number)
	assert.Equal(t, "1", s.Questions[1].Order)
	assert.Equal(t, 1, s.Questions[1].Number)
}

func TestGetOwned(t *testing.T) {
	f := newFixture(t, demoSurvey())
	_, err := f.surveySvc.GetOwned(context.Background(), "feedback", "owner-2")
	assert.ErrorIs(t, err, ErrForbidden)

	s, err := f.surveySvc.GetOwned(context.Background(), "feedback", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", s.ID)
}
