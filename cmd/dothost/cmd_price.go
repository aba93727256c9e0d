package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPriceCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price <amount...>",
		Short: "Convert registrar prices to sale prices (offline)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := c.converter(cmd)
			if err != nil {
				return err
			}

			rows := make([]priceRow, 0, len(args))
			for _, a := range args {
				v, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(a), "$"), 64)
				if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
					return usageErr(cmd, fmt.Errorf("invalid amount %q (want a non-negative number)", a))
				}
				rows = append(rows, priceRow{
					Source:         v,
					Local:          conv.Convert(v),
					SourceCurrency: c.cfg.Pricing.SourceCurrency,
					LocalCurrency:  c.cfg.Pricing.LocalCurrency,
				})
			}

			if err := writePrices(cmd.OutOrStdout(), c.outFormat, rows); err != nil {
				return &cliError{Code: 1, Err: fmt.Errorf("failed to write output: %w", err), Cmd: cmd}
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(usageErr)
	return cmd
}
