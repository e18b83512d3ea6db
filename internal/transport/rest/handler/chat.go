package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"chatform/internal/model"
	"chatform/internal/service"
)

// ChatHandler streams the conversational mode's assistant messages
type ChatHandler struct {
	assistant *service.AssistantService
	log       zerolog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(assistant *service.AssistantService, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		assistant: assistant,
		log:       log,
	}
}

// Chat handles POST /v1/chat. Each text chunk is a `data: {"text":...}`
// event; the stream ends with `event: done`.
// @Summary Stream the assistant's next message
// @Tags chat
// @Accept json
// @Produce text/event-stream
// @Param body body model.ChatRequest true "transcript and questions"
// @Success 200 {string} string "event stream"
// @Failure 400 {object} ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "questions are required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err := h.assistant.Reply(r.Context(), &req, func(chunk string) error {
		data, err := json.Marshal(model.ChatChunk{Text: chunk})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		chatStreamsTotal.WithLabelValues("aborted").Inc()
		h.log.Warn().Err(err).Msg("chat stream aborted")
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", "stream aborted")
		flusher.Flush()
		return
	}

	chatStreamsTotal.WithLabelValues("completed").Inc()
	fmt.Fprint(w, "event: done\ndata: {}\n\n")
	flusher.Flush()
}
