package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"chatform/internal/config"
	"chatform/internal/conversation"
	"chatform/internal/model"
	"chatform/internal/question"
)

var markerPattern = regexp.MustCompile(model.MarkerQuestionData + `:[^:\s]+:[^:\s]+|` + model.MarkerFormComplete)

// AssistantService phrases the conversational mode through Gemini. Without
// an API key, or when the call fails, it uses fixed wording.
type AssistantService struct {
	config config.AssistantConfig
	client *http.Client
	log    zerolog.Logger
}

// NewAssistantService creates a new assistant service
func NewAssistantService(cfg config.AssistantConfig, log zerolog.Logger) *AssistantService {
	return &AssistantService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// Reply writes the assistant's next message to emit, a few words at a
// time. The current question is the one after the last answered; the
// message ends with the QUESTION_DATA or FORM_COMPLETE marker.
func (s *AssistantService) Reply(ctx context.Context, req *model.ChatRequest, emit func(chunk string) error) error {
	questions := question.Normalize(req.Questions, question.Options{})

	answered := 0
	for _, m := range req.Messages {
		if m.Role == model.RoleUser {
			answered++
		}
	}

	var text, marker string
	if answered < len(questions) {
		q := questions[answered]
		marker = fmt.Sprintf("%s:%s:%s", model.MarkerQuestionData, q.Key(), q.Type)
		text = s.phrase(ctx, askPrompt(&q), req.Messages, fallbackAsk(&q, answered))
	} else {
		marker = model.MarkerFormComplete
		text = s.phrase(ctx, completePrompt(), req.Messages, conversation.CompletionMessage)
	}

	for _, chunk := range strings.SplitAfter(text+" "+marker, " ") {
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

// phrase asks Gemini for the message text, falling back on any failure
func (s *AssistantService) phrase(ctx context.Context, system string, history []model.Message, fallback string) string {
	if !s.config.IsEnabled() {
		return fallback
	}
	text, err := s.callGemini(ctx, system, history)
	if err != nil {
		s.log.Warn().Err(err).Msg("assistant call failed, using template")
		return fallback
	}
	text = strings.TrimSpace(markerPattern.ReplaceAllString(text, ""))
	if text == "" {
		return fallback
	}
	return text
}

func fallbackAsk(q *model.Question, answered int) string {
	if answered == 0 {
		return fmt.Sprintf(conversation.WelcomeTemplate, q.Title)
	}
	return "Thanks! " + q.Title
}

func askPrompt(q *model.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly form assistant. Your job is to guide the user through a form one question at a time.\n\n")
	fmt.Fprintf(&b, "The current question is: %q\n", q.Title)
	if len(q.Options) > 0 {
		labels := make([]string, len(q.Options))
		for i, o := range q.Options {
			labels[i] = o.Label
		}
		fmt.Fprintf(&b, "The possible answers are: %s\n", strings.Join(labels, ", "))
	}
	b.WriteString("\nAfter acknowledging the user's previous answer (if any), ask this question in a conversational way.\n")
	b.WriteString("Keep your responses brief and friendly.")
	return b.String()
}

func completePrompt() string {
	return "You are a friendly form assistant. The user has completed all questions.\n\n" +
		"Thank them for completing the form and let them know their responses have been recorded.\n" +
		"Keep your response brief and friendly."
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// callGemini makes a generateContent request with the transcript as history
func (s *AssistantService) callGemini(ctx context.Context, system string, history []model.Message) (string, error) {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		switch m.Role {
		case model.RoleAssistant:
			role = "model"
		case model.RoleSystem:
			continue
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	if len(contents) == 0 {
		contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: "Hello"}}})
	}

	reqBody := map[string]interface{}{
		"systemInstruction": geminiContent{Parts: []geminiPart{{Text: system}}},
		"contents":          contents,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", fmt.Errorf("empty response from Gemini")
}
