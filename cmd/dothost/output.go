package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/benithors/dothost/internal/availability"
	"github.com/benithors/dothost/internal/domain"
	"github.com/benithors/dothost/internal/suggest"
)

type outputFormat int

const (
	formatTable outputFormat = iota
	formatNDJSON
	formatJSON
	formatPlain
)

func resolveFormat(flagVal string, stdout io.Writer) outputFormat {
	switch strings.ToLower(strings.TrimSpace(flagVal)) {
	case "table":
		return formatTable
	case "ndjson", "jsonl":
		return formatNDJSON
	case "json":
		return formatJSON
	case "plain":
		return formatPlain
	case "auto", "":
	default:
		// Unknown format: fall back to auto.
	}

	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return formatTable
	}
	return formatNDJSON
}

// structured reports whether the whole result is printed as JSON, failures
// included.
func (f outputFormat) structured() bool {
	return f == formatJSON || f == formatNDJSON
}

func encodeLines[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}

func writeAvailability(w io.Writer, format outputFormat, results []availability.Result) error {
	switch format {
	case formatNDJSON:
		return encodeLines(w, results)
	case formatJSON:
		return json.NewEncoder(w).Encode(results)
	case formatPlain:
		for _, r := range results {
			reg := ""
			if r.Pricing != nil {
				reg = money(r.Pricing.Registration)
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", r.Domain, availabilityStatus(r), reg); err != nil {
				return err
			}
		}
		return nil
	default:
		tw := domain.NewTabWriter(w)
		fmt.Fprintln(tw, "DOMAIN\tSTATUS\tREGISTRATION\tRENEWAL\tTRANSFER\tDETAIL")
		for _, r := range results {
			var reg, ren, tra string
			if p := r.Pricing; p != nil {
				reg = withCurrency(p.Registration, p.Currency)
				ren = withCurrency(p.Renewal, p.Currency)
				tra = withCurrency(p.Transfer, p.Currency)
				if p.Estimated {
					reg += " (est)"
				}
			}
			detail := r.Message
			if r.Error != nil {
				detail = r.Error.Message
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Domain, availabilityStatus(r), reg, ren, tra, detail)
		}
		return tw.Flush()
	}
}

func availabilityStatus(r availability.Result) string {
	switch {
	case r.Error != nil:
		return string(r.Error.Kind)
	case r.Available != nil && *r.Available:
		return "available"
	default:
		return "taken"
	}
}

func writeKeywordResult(w io.Writer, format outputFormat, r suggest.KeywordResult) error {
	switch format {
	case formatNDJSON:
		return encodeLines(w, r.Suggestions)
	case formatJSON:
		return json.NewEncoder(w).Encode(r)
	case formatPlain:
		for _, s := range r.Suggestions {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", s.Domain, money(s.PriceSource), money(s.PriceLocal)); err != nil {
				return err
			}
		}
		return nil
	default:
		tw := domain.NewTabWriter(w)
		fmt.Fprintln(tw, "DOMAIN\tREGISTRAR PRICE\tPRICE")
		for _, s := range r.Suggestions {
			local := withCurrency(s.PriceLocal, r.Currency)
			if s.Estimated {
				local += " (est)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Domain, money(s.PriceSource), local)
		}
		return tw.Flush()
	}
}

func writeTLDResult(w io.Writer, format outputFormat, r suggest.TLDResult) error {
	switch format {
	case formatNDJSON:
		return encodeLines(w, r.Suggestions)
	case formatJSON:
		return json.NewEncoder(w).Encode(r)
	case formatPlain:
		for _, s := range r.Suggestions {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Domain, s.TLD, yesNo(s.Available), money(s.Price)); err != nil {
				return err
			}
		}
		return nil
	default:
		tw := domain.NewTabWriter(w)
		fmt.Fprintln(tw, "DOMAIN\tTLD\tTYPE\tAVAILABLE\tEST. PRICE")
		for _, s := range r.Suggestions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Domain, s.TLD, s.Type, yesNo(s.Available), withCurrency(s.Price, r.Currency))
		}
		return tw.Flush()
	}
}

type priceRow struct {
	Source         float64 `json:"source"`
	Local          float64 `json:"local"`
	SourceCurrency string  `json:"source_currency"`
	LocalCurrency  string  `json:"local_currency"`
}

func writePrices(w io.Writer, format outputFormat, rows []priceRow) error {
	switch format {
	case formatNDJSON:
		return encodeLines(w, rows)
	case formatJSON:
		return json.NewEncoder(w).Encode(rows)
	case formatPlain:
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", money(r.Source), money(r.Local)); err != nil {
				return err
			}
		}
		return nil
	default:
		tw := domain.NewTabWriter(w)
		fmt.Fprintln(tw, "SOURCE\tLOCAL")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\n", withCurrency(r.Source, r.SourceCurrency), withCurrency(r.Local, r.LocalCurrency))
		}
		return tw.Flush()
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func withCurrency(v float64, currency string) string {
	if currency == "" {
		return money(v)
	}
	return money(v) + " " + currency
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
