// Package cli implements the respondent command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// IO carries the streams a command reads and writes
type IO struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Execute runs the command named by args[0]
func Execute(ctx context.Context, args []string, io IO) error {
	if io.In == nil || io.Out == nil || io.ErrOut == nil {
		return fmt.Errorf("invalid IO")
	}

	if len(args) == 0 {
		printRootUsage(io.ErrOut)
		return fmt.Errorf("missing command")
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "take":
		return runTake(ctx, args[1:], io)
	case "show":
		return runShow(ctx, args[1:], io)
	case "help", "--help", "-h":
		printRootUsage(io.Out)
		return nil
	default:
		printRootUsage(io.ErrOut)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage(w io.Writer) {
	fmt.Fprintln(w, "respond: answer a chatform survey from the terminal")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  respond take [flags] <slug>")
	fmt.Fprintln(w, "  respond show [flags] <slug>")
}
