// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sort"
	"sync"

	"chatform/internal/model"
	"chatform/internal/repository"
)

// SurveyRepo is an in-memory repository.SurveyRepo keyed by slug
type SurveyRepo struct {
	mu      sync.Mutex
	surveys map[string]*model.Survey
	lookups int
}

var _ repository.SurveyRepo = (*SurveyRepo)(nil)

// NewSurveyRepo stores the given surveys as-is
func NewSurveyRepo(surveys ...*model.Survey) *SurveyRepo {
	r := &SurveyRepo{surveys: make(map[string]*model.Survey)}
	for _, s := range surveys {
		r.surveys[s.Slug] = s
	}
	return r
}

// Lookups counts GetBySlug calls
func (r *SurveyRepo) Lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

// Survey returns a copy of the stored survey, or nil
func (r *SurveyRepo) Survey(slug string) *model.Survey {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[slug]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (r *SurveyRepo) Create(_ context.Context, s *model.Survey) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[s.Slug]; ok {
		return "", repository.ErrDuplicateSlug
	}
	if s.ID == "" {
		s.ID = "id-" + s.Slug
	}
	cp := *s
	r.surveys[s.Slug] = &cp
	return s.ID, nil
}

func (r *SurveyRepo) GetBySlug(_ context.Context, slug string) (*model.Survey, error) {
	r.mu.Lock()
	r.lookups++
	r.mu.Unlock()
	return r.Survey(slug), nil
}

func (r *SurveyRepo) GetByOwnerID(_ context.Context, ownerID string) ([]*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Survey{}
	for _, s := range r.surveys {
		if s.OwnerID == ownerID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *SurveyRepo) IncrementResponses(_ context.Context, id string, conversational bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.surveys {
		if s.ID == id {
			s.TotalResponses++
			if conversational {
				s.TotalResponsesAI++
			}
		}
	}
	return nil
}

func (r *SurveyRepo) EnsureIndexes(context.Context) error { return nil }

// PlanRepo is an in-memory repository.PlanRepo
type PlanRepo struct {
	Subscriptions map[string]*model.Subscription // by owner id
	Plans         map[string]*model.Plan
}

var _ repository.PlanRepo = (*PlanRepo)(nil)

// NewPlanRepo creates an empty plan repository
func NewPlanRepo() *PlanRepo {
	return &PlanRepo{
		Subscriptions: make(map[string]*model.Subscription),
		Plans:         make(map[string]*model.Plan),
	}
}

func (r *PlanRepo) GetSubscription(_ context.Context, ownerID string) (*model.Subscription, error) {
	return r.Subscriptions[ownerID], nil
}

func (r *PlanRepo) GetPlan(_ context.Context, id string) (*model.Plan, error) {
	return r.Plans[id], nil
}

// ResponseRepo is an in-memory repository.ResponseRepo
type ResponseRepo struct {
	mu        sync.Mutex
	responses []*model.Response
}

var _ repository.ResponseRepo = (*ResponseRepo)(nil)

// NewResponseRepo creates an empty response repository
func NewResponseRepo() *ResponseRepo {
	return &ResponseRepo{}
}

// All returns every stored response in insertion order
func (r *ResponseRepo) All() []*model.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Response(nil), r.responses...)
}

func (r *ResponseRepo) Create(_ context.Context, resp *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, resp)
	return nil
}

// ListBySurvey returns newest first
func (r *ResponseRepo) ListBySurvey(_ context.Context, surveyID string, limit int64) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Response{}
	for i := len(r.responses) - 1; i >= 0; i-- {
		if limit > 0 && int64(len(out)) == limit {
			break
		}
		if r.responses[i].SurveyID == surveyID {
			out = append(out, r.responses[i])
		}
	}
	return out, nil
}

func (r *ResponseRepo) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	list, err := r.ListBySurvey(ctx, surveyID, 0)
	return int64(len(list)), err
}
