// Package availability answers "can this domain be registered, and for how
// much" against the registrar API.
package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/benithors/dothost/internal/domain"
	"github.com/benithors/dothost/internal/logger"
	"github.com/benithors/dothost/internal/metrics"
	"github.com/benithors/dothost/internal/pricing"
	"github.com/benithors/dothost/internal/registrar"
)

const operation = "availability"

// Result is the outcome of one availability check. A domain that is taken
// is a successful result with Available=false, not an error.
type Result struct {
	Success    bool                 `json:"success"`
	Available  *bool                `json:"available,omitempty"`
	Domain     string               `json:"domain"`
	Input      string               `json:"input,omitempty"`
	Message    string               `json:"message,omitempty"`
	StatusCode int                  `json:"status_code,omitempty"`
	Pricing    *Pricing             `json:"pricing,omitempty"`
	Error      *registrar.ErrorInfo `json:"error,omitempty"`
}

// Pricing holds sale prices in local currency plus the registrar's quote.
type Pricing struct {
	Registration   float64       `json:"registration"`
	Renewal        float64       `json:"renewal"`
	Transfer       float64       `json:"transfer"`
	Currency       string        `json:"currency,omitempty"`
	Source         pricing.Quote `json:"source"`
	SourceCurrency string        `json:"source_currency,omitempty"`
	// Estimated is set when any fee was missing and the fallback price was used.
	Estimated bool `json:"estimated,omitempty"`
}

type Options struct {
	API           registrar.API
	Pricing       pricing.Converter
	FallbackPrice float64

	Currency       string
	SourceCurrency string

	// Concurrency bounds CheckDomains; single checks ignore it.
	Concurrency int

	Logger  logger.Logger
	Metrics *metrics.Metrics
}

type Checker struct {
	opts Options
	log  logger.Logger
}

func NewChecker(opts Options) *Checker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.FallbackPrice < 0 {
		opts.FallbackPrice = 0
	}
	return &Checker{
		opts: opts,
		log:  logger.BestEffort(opts.Logger),
	}
}

// CheckAvailability performs one registrar lookup for input. It never
// retries; errors are reported in the result, not returned.
func (c *Checker) CheckAvailability(ctx context.Context, input string) Result {
	start := time.Now()
	log := c.log.With(
		logger.String("operation", operation),
		logger.String("call_id", uuid.NewString()),
		logger.String("input", input),
	)

	r := c.check(ctx, log, input)

	fields := []logger.Field{
		logger.String("domain", r.Domain),
		logger.Bool("success", r.Success),
		logger.Duration("duration", time.Since(start)),
	}
	if r.Available != nil {
		fields = append(fields, logger.Bool("available", *r.Available))
	}
	if r.Pricing != nil {
		fields = append(fields, logger.Any("pricing", *r.Pricing))
	}
	var kind registrar.Kind
	if r.Error != nil {
		kind = r.Error.Kind
		fields = append(fields, logger.String("error_kind", string(kind)), logger.String("error", r.Error.Message))
		log.Warn("availability check failed", fields...)
	} else {
		log.Info("availability checked", fields...)
	}
	c.opts.Metrics.IncrementResult(operation, kind)
	return r
}

func (c *Checker) check(ctx context.Context, log logger.Logger, input string) Result {
	name, err := domain.Normalize(input)
	if err != nil {
		return failure(strings.TrimSpace(input), "", &registrar.Error{
			Kind:    registrar.KindInvalidInput,
			Op:      operation,
			Message: "enter a domain name such as example.com",
			Err:     err,
		})
	}

	r := Result{Domain: name}
	if trimmed := strings.TrimSpace(input); trimmed != name {
		r.Input = trimmed
	}

	if c.opts.API == nil {
		return failure(name, r.Input, registrar.Errorf(registrar.KindNetwork, operation, "no registrar configured"))
	}

	log.Debug("registrar request", logger.String("domain", name))
	p, err := c.opts.API.CheckDomainAvailable(ctx, name)
	if err != nil {
		return failure(name, r.Input, err)
	}
	log.Debug("registrar response", logger.Any("payload", p))

	if p.ResponseMsg == nil {
		return failure(name, r.Input, registrar.Errorf(registrar.KindMalformedResponse, operation, "response has no responseMsg"))
	}

	code := p.ResponseMsg.StatusCode
	msg := p.ResponseMsg.Message.String()
	r.StatusCode = code.Value

	switch {
	case code.Valid && code.Value == registrar.StatusAvailable:
		r.Success = true
		r.Available = boolPtr(true)
		r.Message = firstNonEmpty(msg, fmt.Sprintf("%s is available", name))
		r.Pricing = c.price(p.ResponseData)
		return r
	case code.Valid && registrar.IsUpstreamStatus(code.Value):
		e := registrar.Errorf(registrar.KindUpstream, operation, "registrar status %d", code.Value)
		if msg != "" {
			e.Message += ": " + msg
		}
		return failure(name, r.Input, e)
	default:
		r.Success = true
		r.Available = boolPtr(false)
		r.Message = firstNonEmpty(msg, fmt.Sprintf("%s is not available", name))
		return r
	}
}

func (c *Checker) price(d registrar.AvailabilityData) *Pricing {
	fb := c.opts.FallbackPrice
	src := pricing.Quote{
		Registration: d.RegistrationFee.Or(fb),
		Renewal:      d.RenewalFee.Or(fb),
		Transfer:     d.TransferFee.Or(fb),
	}
	local := c.opts.Pricing.ConvertQuote(src)
	return &Pricing{
		Registration:   local.Registration,
		Renewal:        local.Renewal,
		Transfer:       local.Transfer,
		Currency:       c.opts.Currency,
		Source:         src,
		SourceCurrency: c.opts.SourceCurrency,
		Estimated:      !d.RegistrationFee.Valid || !d.RenewalFee.Valid || !d.TransferFee.Valid,
	}
}

// CheckDomains checks each input independently with bounded concurrency.
// Output order matches input order.
func (c *Checker) CheckDomains(ctx context.Context, inputs []string) []Result {
	out := make([]Result, len(inputs))
	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			out[i] = c.CheckAvailability(ctx, in)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func failure(name, input string, err error) Result {
	info := registrar.Info(err)
	var re *registrar.Error
	if errors.As(err, &re) && re.Kind == registrar.KindInvalidInput && re.Message != "" {
		info.Message = re.Message
	}
	return Result{
		Success: false,
		Domain:  name,
		Input:   input,
		Error:   info,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func boolPtr(v bool) *bool { return &v }
