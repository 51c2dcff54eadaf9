package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

// lineReader is the part of *readline.Instance the prompts use.
type lineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

// promptConfirmer asks y/N questions on the terminal for --interactive.
type promptConfirmer struct {
	rl lineReader
}

func newReadline(out io.Writer) (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Stdout:          out,
		InterruptPrompt: "^C",
		EOFPrompt:       "no",
	})
	if err != nil {
		return nil, fmt.Errorf("open terminal prompt: %w", err)
	}
	return rl, nil
}

// Confirm returns true only for an explicit yes. Ctrl+C cancels the whole
// pass; end of input answers no.
func (p *promptConfirmer) Confirm(prompt string) (bool, error) {
	p.rl.SetPrompt(color.New(color.FgCyan).Sprint(prompt))
	line, err := p.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return false, context.Canceled
	case errors.Is(err, io.EOF):
		return false, nil
	case err != nil:
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// confirmDestructive requires the literal word "yes" before a real delete
// or move that was not requested with --yes or --interactive.
func confirmDestructive(rl lineReader, out io.Writer, op string, files int, bytes string) (bool, error) {
	warn := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %d duplicate files (%s) will be %s.\n", warn("WARNING:"), files, bytes, op)
	rl.SetPrompt("type yes to continue: ")
	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return false, context.Canceled
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}
