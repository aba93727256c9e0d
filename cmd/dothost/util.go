package main

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/benithors/dothost/internal/domain"
)

func readArgsAndStdin(args []string, stdin io.Reader) ([]string, error) {
	var out []string

	for _, a := range args {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		out = append(out, a)
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		// Nothing piped in.
		return out, nil
	}
	if len(out) > 0 {
		// Args win; a closed or absent pipe is not waited on.
		return out, nil
	}

	lines, err := domain.ReadLines(stdin)
	if err != nil {
		return nil, err
	}
	return append(out, lines...), nil
}
