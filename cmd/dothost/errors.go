package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benithors/dothost/internal/registrar"
)

type cliError struct {
	Code      int
	Err       error
	ShowUsage bool
	Cmd       *cobra.Command
}

func (e *cliError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

var errExit0 = &cliError{Code: 0}

func usageErr(cmd *cobra.Command, err error) error {
	return &cliError{Code: 2, Err: err, ShowUsage: true, Cmd: cmd}
}

// fetchErr turns a failed fetcher result into an exit status. Bad input
// exits 2 like other usage mistakes; registrar trouble exits 1. A nil
// message keeps stderr quiet when the failure was already printed as JSON.
func fetchErr(info *registrar.ErrorInfo, printed bool) error {
	if info == nil {
		return nil
	}
	code := 1
	if info.Kind == registrar.KindInvalidInput {
		code = 2
	}
	if printed {
		return &cliError{Code: code}
	}
	return &cliError{Code: code, Err: fmt.Errorf("%s: %s", info.Kind, info.Message)}
}
