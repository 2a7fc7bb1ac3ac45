package main

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/ai-gentic/apprentice/llm"
)

// env carries the process surroundings so tests can replace them.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// transport overrides the HTTP transport when set.
	transport llm.Transport
	// isTerminal reports whether w is an interactive terminal.
	isTerminal func(w any) bool
}

func defaultEnv() env {
	return env{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		isTerminal: isTerminal,
	}
}

func isTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
