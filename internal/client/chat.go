package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"chatform/internal/model"
)

var (
	questionMarker = regexp.MustCompile(model.MarkerQuestionData + `:([^:\s]+):([^:\s]+)`)
	completeMarker = regexp.MustCompile(model.MarkerFormComplete)
)

// AssistantReply is a finished assistant message with its markers removed
type AssistantReply struct {
	Text         string
	QuestionID   string
	QuestionType model.QuestionType
	Complete     bool
}

// ParseReply strips the control markers out of an assistant message
func ParseReply(raw string) AssistantReply {
	var r AssistantReply
	if m := questionMarker.FindStringSubmatch(raw); m != nil {
		r.QuestionID = m[1]
		r.QuestionType = model.QuestionType(m[2])
	}
	r.Complete = completeMarker.MatchString(raw)

	text := questionMarker.ReplaceAllString(raw, "")
	text = completeMarker.ReplaceAllString(text, "")
	r.Text = strings.TrimSpace(text)
	return r
}

// Chat streams the assistant's next message. onToken, when set, sees each
// text chunk as it arrives; the assembled reply is returned at the end.
func (c *Client) Chat(ctx context.Context, req model.ChatRequest, onToken func(string)) (AssistantReply, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/v1/chat", req)
	if err != nil {
		return AssistantReply{}, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return AssistantReply{}, fmt.Errorf("chat: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return AssistantReply{}, fmt.Errorf("chat: %w: %w", ErrUnavailable, statusError(resp.StatusCode, body))
	}

	var full strings.Builder
	err = readEvents(resp.Body, func(event, data string) error {
		if event == "error" {
			return fmt.Errorf("chat stream: %s", data)
		}
		var chunk model.ChatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("decode chat chunk: %w", err)
		}
		full.WriteString(chunk.Text)
		if onToken != nil {
			onToken(chunk.Text)
		}
		return nil
	})
	if err != nil {
		return AssistantReply{}, err
	}
	return ParseReply(full.String()), nil
}

// readEvents parses a text/event-stream body. Events named "done" end the
// stream; events without data are ignored.
func readEvents(r io.Reader, fn func(event, data string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var event string
	var data []string
	dispatch := func() (bool, error) {
		defer func() { event, data = "", nil }()
		if event == "done" {
			return true, nil
		}
		if len(data) == 0 {
			return false, nil
		}
		return false, fn(event, strings.Join(data, "\n"))
	}

	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			stop, err := dispatch()
			if err != nil || stop {
				return err
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read chat stream: %w", err)
	}
	_, err := dispatch()
	return err
}
