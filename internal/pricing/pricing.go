// Package pricing converts registrar prices (source currency) into sale
// prices (local currency) using a fixed exchange rate and profit margin.
package pricing

import (
	"fmt"
	"math"
)

// Digits is the number of fractional digits kept on converted amounts.
const Digits = 2

type Converter struct {
	rate   float64
	margin float64
}

// New returns a Converter. Rate must be positive and margin (a fraction,
// 0.10 = 10%) must be non-negative.
func New(rate, margin float64) (Converter, error) {
	if !isFinite(rate) || rate <= 0 {
		return Converter{}, fmt.Errorf("pricing: exchange rate must be positive, got %v", rate)
	}
	if !isFinite(margin) || margin < 0 {
		return Converter{}, fmt.Errorf("pricing: profit margin must be non-negative, got %v", margin)
	}
	return Converter{rate: rate, margin: margin}, nil
}

// MustNew is New for fixed, known-good values.
func MustNew(rate, margin float64) Converter {
	c, err := New(rate, margin)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Converter) Rate() float64   { return c.rate }
func (c Converter) Margin() float64 { return c.margin }

// Convert returns round(amount * rate * (1 + margin), 2).
// Negative and non-finite amounts are treated as zero: registrar payloads
// are untrusted and a sale price is never negative.
func (c Converter) Convert(amount float64) float64 {
	if !isFinite(amount) || amount <= 0 {
		return 0
	}
	return Round(amount*c.rate*(1+c.margin), Digits)
}

// Quote is a registrar price triple.
type Quote struct {
	Registration float64 `json:"registration"`
	Renewal      float64 `json:"renewal"`
	Transfer     float64 `json:"transfer"`
}

func (c Converter) ConvertQuote(q Quote) Quote {
	return Quote{
		Registration: c.Convert(q.Registration),
		Renewal:      c.Convert(q.Renewal),
		Transfer:     c.Convert(q.Transfer),
	}
}

// Round rounds x half away from zero to the given number of fractional digits.
func Round(x float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(x*p) / p
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
