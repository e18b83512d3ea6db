package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatform/internal/config"
	"chatform/internal/model"
	"chatform/internal/repository/repotest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("PORT", "0")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestWireServesSurveys(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	survey := &model.Survey{ID: "s-1", Slug: "hello", OwnerID: "owner-1", Title: "Hello",
		Questions: []model.Question{{Number: 1, Title: "Name?", Type: "text"}}}
	a := Wire(testConfig(t), zerolog.Nop(), Repos{
		Surveys:   repotest.NewSurveyRepo(survey),
		Responses: repotest.NewResponseRepo(),
		Plans:     repotest.NewPlanRepo(),
	}, rdb)
	defer a.Close(context.Background())

	srv := httptest.NewServer(a.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/surveys/hello")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cached, err := a.SurveyCache.Get(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Hello", cached.Title)
}

func TestServeStopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	a := Wire(testConfig(t), zerolog.Nop(), Repos{
		Surveys:   repotest.NewSurveyRepo(),
		Responses: repotest.NewResponseRepo(),
		Plans:     repotest.NewPlanRepo(),
	}, rdb)
	defer a.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
