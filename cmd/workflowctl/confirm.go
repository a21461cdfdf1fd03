package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"jobmate/workflow-service/internal/engine"
)

// promptConfirmer asks on the terminal before a transition is submitted.
// Without a terminal it declines unless --yes was given.
type promptConfirmer struct {
	in          *bufio.Reader
	out         io.Writer
	assumeYes   bool
	interactive bool
}

func newPromptConfirmer(in io.Reader, out io.Writer, assumeYes bool) *promptConfirmer {
	return &promptConfirmer{
		in:          bufio.NewReader(in),
		out:         out,
		assumeYes:   assumeYes,
		interactive: isTerminal(in),
	}
}

func (p *promptConfirmer) Confirm(ctx context.Context, prompt engine.Prompt) (bool, error) {
	if p.assumeYes {
		return true, nil
	}
	if !p.interactive {
		fmt.Fprintln(p.out, "Not a terminal; pass --yes to confirm the transition.")
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprint(p.out, promptText(prompt))
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func promptText(p engine.Prompt) string {
	if p.Destructive {
		return fmt.Sprintf("Mark %s as %s? This cannot be undone. [y/N] ", p.ApplicationID, p.ToLabel)
	}
	return fmt.Sprintf("Move %s from %s to %s? [y/N] ", p.ApplicationID, p.FromLabel, p.ToLabel)
}

func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
