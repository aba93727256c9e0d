package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSuggestCmd(c *cli) *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "suggest <keyword...>",
		Short: "Ask the registrar for names matching a keyword",
		Long: `Ask the registrar for names matching a keyword.

Candidates are tried in order (keyword with the default TLD, the bare
keyword, spelling variants, then prefix/suffix probes) until one request
goes through. Only timeouts and network errors move on to the next one.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.TrimSpace(strings.Join(args, " "))
			if keyword == "" {
				return &cliError{Code: 2, ShowUsage: true, Cmd: cmd}
			}
			if maxResults < 0 {
				return usageErr(cmd, fmt.Errorf("--max must be non-negative"))
			}

			comps, err := c.wire(cmd, nil)
			if err != nil {
				return err
			}
			res := comps.keywords.SuggestByKeyword(cmd.Context(), keyword, maxResults)
			if !res.Success && !c.outFormat.structured() {
				return fetchErr(res.Error, false)
			}

			if err := writeKeywordResult(cmd.OutOrStdout(), c.outFormat, res); err != nil {
				return &cliError{Code: 1, Err: fmt.Errorf("failed to write output: %w", err), Cmd: cmd}
			}
			if !res.Success {
				return fetchErr(res.Error, c.outFormat == formatJSON)
			}
			if len(res.Suggestions) == 0 && c.outFormat != formatJSON {
				fmt.Fprintf(cmd.ErrOrStderr(), "no suggestions for %q\n", res.Keyword)
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(usageErr)
	cmd.Flags().IntVar(&maxResults, "max", 0, "Max suggestions (default suggest.max_results, capped at 50)")

	return cmd
}
