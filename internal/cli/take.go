package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"chatform/internal/client"
	"chatform/internal/conversation"
	"chatform/internal/model"
	"chatform/internal/observability"
	"chatform/internal/render"
)

const (
	defaultURL    = "http://localhost:8080"
	submitTimeout = 30 * time.Second
)

// ErrInputEnded is returned when input closes before the last answer
var ErrInputEnded = errors.New("input ended before the survey was complete")

type commonFlags struct {
	url     string
	verbose bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	url := os.Getenv("CHATFORM_URL")
	if url == "" {
		url = defaultURL
	}
	fs.StringVar(&c.url, "url", url, "API base URL (env CHATFORM_URL)")
	fs.BoolVar(&c.verbose, "v", false, "log requests to stderr")
}

func (c *commonFlags) client(io IO) *client.Client {
	level := zerolog.LevelWarnValue
	if c.verbose {
		level = zerolog.LevelDebugValue
	}
	log := observability.Setup(level, "console", io.ErrOut)
	return client.New(c.url, client.WithLogger(log))
}

func runTake(ctx context.Context, args []string, io IO) error {
	fs := flag.NewFlagSet("take", flag.ContinueOnError)
	fs.SetOutput(io.ErrOut)

	var common commonFlags
	common.register(fs)
	chat := fs.Bool("chat", false, "let the assistant phrase the questions")
	emailQuestion := fs.Bool("email-question", false, "ask for the email as the last question")
	delay := fs.Duration("completion-delay", conversation.DefaultCompletionDelay, "pause between the last answer and the submission")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(io.ErrOut, "usage: respond take [flags] <slug>")
		return fmt.Errorf("missing survey slug")
	}
	slug := fs.Arg(0)

	c := common.client(io)
	sess, err := c.Open(ctx, slug, client.SessionOptions{
		Load:           client.LoadOptions{EmailAsQuestion: *emailQuestion},
		Conversational: *chat,
		Engine:         conversation.Config{CompletionDelay: *delay},
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	term := render.NewTerminal(io.In, io.Out)
	term.Splash(sess.Survey())

	if err := start(sess, term, *chat); err != nil {
		return err
	}

	if *chat {
		term.SetNarrator(&chatNarrator{client: c, questions: sess.Loaded().Questions})
	}
	if err := term.Run(ctx, sess.Engine()); err != nil {
		if isEOF(err) {
			return ErrInputEnded
		}
		return err
	}

	select {
	case <-sess.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(*delay + submitTimeout):
		return fmt.Errorf("timed out waiting for the submission")
	}

	if err := sess.Submitter().Err(); err != nil {
		term.Fail(submitFailure(err, *chat))
		return err
	}
	term.Success(sess.Submitter().Result().Message)
	return nil
}

// submitFailure is the line shown when the submission fails. A quota
// rejection shows the server's own text when it sent one.
func submitFailure(err error, chat bool) string {
	if !errors.Is(err, client.ErrQuotaExceeded) {
		return "Your answers could not be sent."
	}
	var serr *client.StatusError
	if errors.As(err, &serr) && serr.Message != "" {
		return serr.Message
	}
	if chat {
		return model.QuotaChatResponsesMessage
	}
	return model.QuotaResponsesMessage
}

// start shows the quota block or collects the splash email, then starts
// the conversation. A rejected email is asked again.
func start(sess *client.Session, term *render.Terminal, chat bool) error {
	if msg := sess.Loaded().QuotaMessage(chat); msg != "" {
		term.Fail(msg)
		return &client.QuotaError{Message: msg}
	}
	if !sess.Loaded().EmailOnSplash {
		return sess.Start("")
	}
	for {
		email, err := term.Ask("Email")
		if err != nil {
			if isEOF(err) {
				return ErrInputEnded
			}
			return err
		}
		err = sess.Start(email)
		var verr *conversation.ValidationError
		if errors.As(err, &verr) {
			term.Fail(verr.Message)
			continue
		}
		return err
	}
}
