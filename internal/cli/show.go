package cli

import (
	"context"
	"flag"
	"fmt"

	"chatform/internal/client"
	"chatform/internal/render"
)

// runShow prints a survey's questions and remaining quota without
// starting a session
func runShow(ctx context.Context, args []string, io IO) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(io.ErrOut)

	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(io.ErrOut, "usage: respond show [flags] <slug>")
		return fmt.Errorf("missing survey slug")
	}

	loaded, err := common.client(io).Load(ctx, fs.Arg(0), client.LoadOptions{})
	if err != nil {
		return err
	}

	term := render.NewTerminal(io.In, io.Out)
	term.Splash(loaded.Survey)
	for _, q := range loaded.Questions {
		line := fmt.Sprintf("%d. %s (%s)", q.Number, q.Title, q.Type)
		if !q.IsRequired() {
			line += " optional"
		}
		term.Info(line)
	}
	fmt.Fprintln(io.Out)

	l := loaded.Limits
	term.Info(fmt.Sprintf("responses: %d / %s", l.TotalResponses, limitText(l.SurveyMaxResponses)))
	term.Info(fmt.Sprintf("conversational: %d / %s", l.TotalResponsesAI, limitText(l.SurveyMaxChatResponses)))
	if msg := loaded.QuotaMessage(false); msg != "" {
		term.Fail(msg)
	}
	return nil
}

func limitText(n int64) string {
	if n <= 0 {
		return "unlimited"
	}
	return fmt.Sprint(n)
}
