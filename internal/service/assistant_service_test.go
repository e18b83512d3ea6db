package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatform/internal/config"
	"chatform/internal/conversation"
	"chatform/internal/model"
)

func collectReply(t *testing.T, svc *AssistantService, req *model.ChatRequest) (string, int) {
	t.Helper()
	var b strings.Builder
	chunks := 0
	err := svc.Reply(context.Background(), req, func(chunk string) error {
		chunks++
		b.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)
	return b.String(), chunks
}

func userTurns(n int) []model.Message {
	msgs := []model.Message{}
	for i := 0; i < n; i++ {
		msgs = append(msgs,
			model.Message{ID: fmt.Sprintf("a%d", i), Role: model.RoleAssistant, Content: "question"},
			model.Message{ID: fmt.Sprintf("u%d", i), Role: model.RoleUser, Content: "answer"},
		)
	}
	return msgs
}

func TestReplyFallbackFirstQuestion(t *testing.T) {
	svc := NewAssistantService(config.AssistantConfig{}, zerolog.Nop())

	text, chunks := collectReply(t, svc, &model.ChatRequest{Questions: demoSurvey().Questions})
	assert.Equal(t, fmt.Sprintf(conversation.WelcomeTemplate, "Pick a color")+" QUESTION_DATA:1:single-select", text)
	assert.Greater(t, chunks, 1)
}

func TestReplyFallbackFollowUp(t *testing.T) {
	svc := NewAssistantService(config.AssistantConfig{}, zerolog.Nop())

	text, _ := collectReply(t, svc, &model.ChatRequest{
		Messages:  userTurns(1),
		Questions: demoSurvey().Questions,
	})
	assert.Equal(t, "Thanks! Rate us QUESTION_DATA:2:number-range", text)
}

func TestReplyCompletes(t *testing.T) {
	svc := NewAssistantService(config.AssistantConfig{}, zerolog.Nop())

	text, _ := collectReply(t, svc, &model.ChatRequest{
		Messages:  userTurns(4),
		Questions: demoSurvey().Questions,
	})
	assert.True(t, strings.HasSuffix(text, " FORM_COMPLETE"))
	assert.True(t, strings.HasPrefix(text, conversation.CompletionMessage))
}

func TestReplyStopsOnEmitError(t *testing.T) {
	svc := NewAssistantService(config.AssistantConfig{}, zerolog.Nop())
	boom := errors.New("client went away")

	err := svc.Reply(context.Background(), &model.ChatRequest{Questions: demoSurvey().Questions}, func(string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestReplyUsesGemini(t *testing.T) {
	var got struct {
		Contents []geminiContent `json:"contents"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/test-model:generateContent") || r.URL.Query().Get("key") != "k" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Great pick! How would you rate us? QUESTION_DATA:9:text"}]}}]}`)
	}))
	defer srv.Close()

	svc := NewAssistantService(config.AssistantConfig{
		APIKey: "k", BaseURL: srv.URL, Model: "test-model", Timeout: time.Second,
	}, zerolog.Nop())

	text, _ := collectReply(t, svc, &model.ChatRequest{
		Messages:  userTurns(1),
		Questions: demoSurvey().Questions,
	})
	assert.Equal(t, "Great pick! How would you rate us? QUESTION_DATA:2:number-range", text)
	require.Len(t, got.Contents, 2)
	assert.Equal(t, "model", got.Contents[0].Role)
	assert.Equal(t, "user", got.Contents[1].Role)
}

func TestReplyFallsBackWhenGeminiFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewAssistantService(config.AssistantConfig{
		APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: time.Second,
	}, zerolog.Nop())

	text, _ := collectReply(t, svc, &model.ChatRequest{
		Messages:  userTurns(1),
		Questions: demoSurvey().Questions,
	})
	assert.Equal(t, "Thanks! Rate us QUESTION_DATA:2:number-range", text)
}
