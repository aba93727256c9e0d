package main

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benithors/dothost/internal/availability"
)

func newCheckCmd(c *cli) *cobra.Command {
	var (
		availableOnly bool
		sortBy        string
		strict        bool
	)

	cmd := &cobra.Command{
		Use:   "check [domain...]",
		Short: "Check availability and pricing for domains (args or stdin)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readArgsAndStdin(args, cmd.InOrStdin())
			if err != nil {
				return &cliError{Code: 1, Err: fmt.Errorf("failed to read domains: %w", err), Cmd: cmd}
			}
			if len(inputs) == 0 {
				return &cliError{Code: 2, ShowUsage: true, Cmd: cmd}
			}

			sortVal := strings.ToLower(strings.TrimSpace(sortBy))
			switch sortVal {
			case "", "input", "domain", "price":
			default:
				return usageErr(cmd, fmt.Errorf("invalid --sort %q (use input|domain|price)", sortBy))
			}

			comps, err := c.wire(cmd, nil)
			if err != nil {
				return err
			}
			results := comps.checker.CheckDomains(cmd.Context(), inputs)

			failed := false
			for _, r := range results {
				if !r.Success {
					failed = true
					break
				}
			}

			if availableOnly {
				results = slices.DeleteFunc(results, func(r availability.Result) bool {
					return r.Available == nil || !*r.Available
				})
			}
			sortResults(results, sortVal)

			if err := writeAvailability(cmd.OutOrStdout(), c.outFormat, results); err != nil {
				return &cliError{Code: 1, Err: fmt.Errorf("failed to write output: %w", err), Cmd: cmd}
			}
			if strict && failed {
				return &cliError{Code: 1}
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(usageErr)
	cmd.Flags().BoolVar(&availableOnly, "available-only", false, "Only output available domains")
	cmd.Flags().StringVar(&sortBy, "sort", "input", "Sort output: input|domain|price")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero if any check failed")

	return cmd
}

// sortResults orders by domain or registration price; unpriced results go
// last. "input" keeps the order given.
func sortResults(results []availability.Result, by string) {
	switch by {
	case "domain":
		slices.SortStableFunc(results, func(a, b availability.Result) int {
			return cmp.Compare(a.Domain, b.Domain)
		})
	case "price":
		slices.SortStableFunc(results, func(a, b availability.Result) int {
			switch {
			case a.Pricing == nil && b.Pricing == nil:
				return 0
			case a.Pricing == nil:
				return 1
			case b.Pricing == nil:
				return -1
			}
			return cmp.Compare(a.Pricing.Registration, b.Pricing.Registration)
		})
	}
}
