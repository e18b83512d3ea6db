package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"chatform/internal/client"
	"chatform/internal/model"
)

const narrateTimeout = 30 * time.Second

// chatNarrator asks the API assistant for each message of the conversation
type chatNarrator struct {
	client    *client.Client
	questions []model.Question
}

func (n *chatNarrator) Narrate(ctx context.Context, transcript []model.Message, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, narrateTimeout)
	defer cancel()

	reply, err := n.client.Chat(ctx, model.ChatRequest{Messages: transcript, Questions: n.questions}, nil)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, reply.Text)
	return err
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
