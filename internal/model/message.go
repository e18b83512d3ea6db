package model

// Role identifies the author of a transcript message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry. Transcripts are append-only.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /v1/chat
type ChatRequest struct {
	Messages  []Message  `json:"messages"`
	Questions []Question `json:"questions"`
}

// Markers appended by the assistant to drive the client
const (
	MarkerQuestionData = "QUESTION_DATA"
	MarkerFormComplete = "FORM_COMPLETE"
)

// ChatChunk is one event of the assistant stream
type ChatChunk struct {
	Text string `json:"text"`
}
