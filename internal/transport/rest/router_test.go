package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatform/internal/cache"
	"chatform/internal/client"
	"chatform/internal/config"
	"chatform/internal/model"
	"chatform/internal/repository/repotest"
	"chatform/internal/service"
	"chatform/internal/transport/ws"
)

type testServer struct {
	*httptest.Server
	auth      *service.AuthService
	surveys   *repotest.SurveyRepo
	responses *repotest.ResponseRepo
}

func demoSurvey() *model.Survey {
	return &model.Survey{
		ID:      "s-1",
		Slug:    "feedback",
		OwnerID: "owner-1",
		Title:   "Feedback",
		Questions: []model.Question{
			{Number: 1, Title: "Pick a color", Type: "radio", Options: []model.Option{{Label: "Red"}, {Label: "Blue"}}},
			{Number: 2, Title: "Rate us", Type: "linear-scale", Scale: &model.Scale{Min: 1, Max: 5}},
			{Number: 3, Title: "Anything else?", Type: "long-text", Required: model.Bool(false)},
		},
	}
}

func newTestServer(t *testing.T, surveys ...*model.Survey) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zerolog.Nop()
	surveyRepo := repotest.NewSurveyRepo(surveys...)
	responseRepo := repotest.NewResponseRepo()
	usage := cache.NewUsageCache(rdb)

	authSvc := service.NewAuthService(config.AuthConfig{
		JWTSecret: "test-secret", TokenTTL: time.Hour, Username: "admin", Password: "pw", OwnerID: "owner-1",
	})
	surveySvc := service.NewSurveyService(surveyRepo, repotest.NewPlanRepo(), cache.NewSurveyCache(rdb, 0), usage, log)
	responseSvc := service.NewResponseService(surveySvc, surveyRepo, responseRepo, usage, log)
	hub := ws.NewHub(log)
	t.Cleanup(hub.Close)
	responseSvc.SetBroadcaster(hub)

	srv := httptest.NewServer(NewRouter(&Container{
		AuthService:      authSvc,
		SurveyService:    surveySvc,
		ResponseService:  responseSvc,
		AssistantService: service.NewAssistantService(config.AssistantConfig{}, log),
		WSHub:            hub,
		Log:              log,
	}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, auth: authSvc, surveys: surveyRepo, responses: responseRepo}
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	resp, err := s.auth.Login("admin", "pw")
	require.NoError(t, err)
	return resp.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func validSubmission() model.SubmitRequest {
	return model.SubmitRequest{Answers: []model.EncodedAnswer{
		{QuestionNumber: 1, QuestionType: model.WireTypeRadio, OptionChosen: model.Single(1)},
		{QuestionNumber: 2, QuestionType: model.WireTypeLinearScale, OptionChosen: model.Single(4)},
		{QuestionNumber: 3, QuestionType: model.WireTypeText},
	}}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestGetSurveyWithLimits(t *testing.T) {
	s := newTestServer(t, demoSurvey())

	resp, body := s.do(t, http.MethodGet, "/v1/surveys/feedback", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	survey := body["survey"].(map[string]interface{})
	assert.Equal(t, "Feedback", survey["title"])
	limits := body["limits"].(map[string]interface{})
	assert.EqualValues(t, model.DefaultMaxResponses, limits["surveyMaxResponses"])

	resp, body = s.do(t, http.MethodGet, "/v1/surveys/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, service.ErrSurveyNotFound.Error(), body["error"])
}

func TestQuestionsAndLimitsUsage(t *testing.T) {
	s := newTestServer(t, demoSurvey())

	resp, body := s.do(t, http.MethodGet, "/v1/surveys/feedback/questions", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	questions := body["questions"].([]interface{})
	require.Len(t, questions, 3)
	assert.Equal(t, "single-select", questions[0].(map[string]interface{})["type"])

	resp, body = s.do(t, http.MethodGet, "/v1/surveys/feedback/limits-usage", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["totalResponses"])
}

func TestSubmitResponse(t *testing.T) {
	s := newTestServer(t, demoSurvey())

	resp, body := s.do(t, http.MethodPost, "/v1/surveys/feedback", "", validSubmission())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, service.MsgResponseRecorded, body["message"])
	assert.Len(t, s.responses.All(), 1)

	resp, body = s.do(t, http.MethodGet, "/v1/surveys/feedback/limits-usage", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["totalResponses"])
}

func TestSubmitErrors(t *testing.T) {
	full := demoSurvey()
	full.TotalResponses = model.DefaultMaxResponses
	full.Slug = "full"
	full.ID = "s-full"
	s := newTestServer(t, demoSurvey(), full)

	resp, body := s.do(t, http.MethodPost, "/v1/surveys/full", "", validSubmission())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, model.QuotaResponsesMessage, body["error"])

	resp, _ = s.do(t, http.MethodPost, "/v1/surveys/missing", "", validSubmission())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	bad := validSubmission()
	bad.Answers[0].OptionChosen = model.Single(7)
	resp, _ = s.do(t, http.MethodPost, "/v1/surveys/feedback", "", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, s.URL+"/v1/surveys/feedback", strings.NewReader("{not json"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestOwnerRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, demoSurvey())

	resp, _ := s.do(t, http.MethodGet, "/v1/surveys", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/v1/surveys", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := s.do(t, http.MethodGet, "/v1/surveys", s.token(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["surveys"], 1)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = s.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateSurveyAndListResponses(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)

	req := model.CreateSurveyRequest{
		Slug:  "pulse",
		Title: "Pulse",
		Questions: []model.Question{
			{Title: "Mood", Type: "radio", Options: []model.Option{{Label: "Good"}, {Label: "Bad"}}},
		},
	}
	resp, body := s.do(t, http.MethodPost, "/v1/surveys", token, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "owner-1", body["ownerId"])

	resp, _ = s.do(t, http.MethodPost, "/v1/surveys", token, req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/v1/surveys/pulse", "", model.SubmitRequest{Answers: []model.EncodedAnswer{
		{QuestionNumber: 1, QuestionType: model.WireTypeRadio, OptionChosen: model.Single(2)},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/v1/surveys/pulse/responses?limit=10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	responses := body["responses"].([]interface{})
	require.Len(t, responses, 1)
	answers := responses[0].(map[string]interface{})["answers"].([]interface{})
	value := answers[0].(map[string]interface{})["value"].(map[string]interface{})
	assert.Equal(t, "Bad", value["choice"])

	resp, _ = s.do(t, http.MethodGet, "/v1/surveys/pulse/responses?limit=-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatStreamThroughClient(t *testing.T) {
	s := newTestServer(t, demoSurvey())
	c := client.New(s.URL)

	var tokens []string
	reply, err := c.Chat(context.Background(), model.ChatRequest{Questions: demoSurvey().Questions}, func(tok string) {
		tokens = append(tokens, tok)
	})
	require.NoError(t, err)
	assert.Equal(t, "1", reply.QuestionID)
	assert.Equal(t, model.QuestionTypeSingleSelect, reply.QuestionType)
	assert.Contains(t, reply.Text, "Pick a color")
	assert.NotContains(t, reply.Text, model.MarkerQuestionData)
	assert.Greater(t, len(tokens), 1)
}

func TestChatRequiresQuestions(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, http.MethodPost, "/v1/chat", "", model.ChatRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionSubmitsThroughRouter(t *testing.T) {
	s := newTestServer(t, demoSurvey())
	c := client.New(s.URL)

	loaded, err := c.Load(context.Background(), "feedback", client.LoadOptions{})
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 3)

	sub := c.NewSubmitter("feedback")
	_, err = sub.Submit(context.Background(), validSubmission().Answers, "", false)
	require.NoError(t, err)
	assert.Len(t, s.responses.All(), 1)
}

func TestSwaggerAndMetrics(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.URL + "/swagger/doc.json")
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	resp.Body.Close()
	assert.Equal(t, "2.0", doc["swagger"])

	resp, err = http.Get(s.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, demoSurvey())
	req, err := http.NewRequest(http.MethodOptions, s.URL+"/v1/surveys/feedback", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestOwnerFeedReceivesResponses(t *testing.T) {
	s := newTestServer(t, demoSurvey())
	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/v1/ws/surveys/feedback/owner?token=" + s.token(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.MsgSubscribed, msg.Type)

	resp, _ := s.do(t, http.MethodPost, "/v1/surveys/feedback", "", validSubmission())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.MsgResponseRecorded, msg.Type)
	var event model.ResponseRecorded
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, "feedback", event.Slug)
	assert.EqualValues(t, 1, event.TotalResponses)
}

func TestOwnerFeedRejectsBadToken(t *testing.T) {
	s := newTestServer(t, demoSurvey())
	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/v1/ws/surveys/feedback/owner?token=nope"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
