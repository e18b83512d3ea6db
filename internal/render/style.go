package render

import (
	"io"
	"os"

	"golang.org/x/term"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
)

// Style decorates text with ANSI codes when writing to a color terminal
type Style struct {
	color bool
}

// StyleFor enables color only for terminals, honoring NO_COLOR and TERM=dumb
func StyleFor(w io.Writer) Style {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return Style{}
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return Style{color: true}
	}
	return Style{}
}

func (s Style) ansi(codes, text string) string {
	if !s.color {
		return text
	}
	return codes + text + ansiReset
}

func (s Style) Bold(t string) string      { return s.ansi(ansiBold, t) }
func (s Style) Dim(t string) string       { return s.ansi(ansiDim, t) }
func (s Style) Cyan(t string) string      { return s.ansi(ansiCyan, t) }
func (s Style) Red(t string) string       { return s.ansi(ansiRed, t) }
func (s Style) BoldCyan(t string) string  { return s.ansi(ansiBold+ansiCyan, t) }
func (s Style) BoldGreen(t string) string { return s.ansi(ansiBold+ansiGreen, t) }
