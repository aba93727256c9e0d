package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/benithors/dothost/internal/suggest"
)

func newTLDsCmd(c *cli) *cobra.Command {
	var availableOnly bool

	cmd := &cobra.Command{
		Use:   "tlds <domain>",
		Short: "List the same name across TLDs, most popular TLDs first",
		Long: `List the same name across TLDs, most popular TLDs first.

Prices are estimates from pricing.fallback_price; run "dothost check" on a
name for the registrar's quote.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := c.wire(cmd, nil)
			if err != nil {
				return err
			}
			res := comps.tlds.SuggestTLDs(cmd.Context(), args[0])
			if !res.Success && !c.outFormat.structured() {
				return fetchErr(res.Error, false)
			}
			if availableOnly {
				res.Suggestions = slices.DeleteFunc(res.Suggestions, func(s suggest.TLDSuggestion) bool { return !s.Available })
			}

			if err := writeTLDResult(cmd.OutOrStdout(), c.outFormat, res); err != nil {
				return &cliError{Code: 1, Err: fmt.Errorf("failed to write output: %w", err), Cmd: cmd}
			}
			return fetchErr(res.Error, c.outFormat == formatJSON)
		},
	}

	cmd.SetFlagErrorFunc(usageErr)
	cmd.Flags().BoolVar(&availableOnly, "available-only", false, "Only output available names")

	return cmd
}
