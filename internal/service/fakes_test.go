package service

import (
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"chatform/internal/cache"
	"chatform/internal/model"
	"chatform/internal/repository/repotest"
)

type broadcastCall struct {
	slug    string
	msgType string
	payload interface{}
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *fakeBroadcaster) BroadcastToOwners(slug, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{slug, msgType, payload})
}

type fixture struct {
	surveys   *repotest.SurveyRepo
	plans     *repotest.PlanRepo
	responses *repotest.ResponseRepo
	redis     *miniredis.Miniredis
	usage     cache.UsageCache
	cache     cache.SurveyCache
	surveySvc *SurveyService
	respSvc   *ResponseService
	bc        *fakeBroadcaster
}

func newFixture(t *testing.T, surveys ...*model.Survey) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		surveys:   repotest.NewSurveyRepo(surveys...),
		plans:     repotest.NewPlanRepo(),
		responses: repotest.NewResponseRepo(),
		redis:     mr,
		usage:     cache.NewUsageCache(rdb),
		cache:     cache.NewSurveyCache(rdb, 0),
		bc:        &fakeBroadcaster{},
	}
	f.surveySvc = NewSurveyService(f.surveys, f.plans, f.cache, f.usage, zerolog.Nop())
	f.respSvc = NewResponseService(f.surveySvc, f.surveys, f.responses, f.usage, zerolog.Nop())
	f.respSvc.SetBroadcaster(f.bc)
	return f
}

func demoSurvey() *model.Survey {
	return &model.Survey{
		ID:      "s-1",
		Slug:    "feedback",
		OwnerID: "owner-1",
		Title:   "Feedback",
		Questions: []model.Question{
			{Order: "1", Number: 1, Title: "Pick a color", Type: "radio",
				Options: []model.Option{{ID: "Red", Label: "Red"}, {ID: "Blue", Label: "Blue"}}},
			{Order: "2", Number: 2, Title: "Rate us", Type: "linear-scale", Scale: &model.Scale{Min: 1, Max: 10}},
			{Order: "3", Number: 3, Title: "Toppings", Type: "checkboxes",
				Options: []model.Option{{ID: "a", Label: "Cheese"}, {ID: "b", Label: "Olives"}}, Required: model.Bool(false)},
			{Order: "4", Number: 4, Title: "Anything else?", Type: "long-text"},
		},
	}
}

func int64Ptr(n int64) *int64 { return &n }
