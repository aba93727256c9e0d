package suggest

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/benithors/dothost/internal/domain"
	"github.com/benithors/dothost/internal/logger"
	"github.com/benithors/dothost/internal/metrics"
	"github.com/benithors/dothost/internal/pricing"
	"github.com/benithors/dothost/internal/registrar"
)

const tldOperation = "tld_suggestions"

// DefaultTLDPriority is the ranking used when no override is configured:
// global generics first, then Nigerian country codes, then newer generics.
var DefaultTLDPriority = []string{
	".com", ".net", ".org",
	".ng", ".com.ng", ".org.ng",
	".co", ".io", ".info", ".biz",
	".online", ".store", ".tech", ".site",
}

// TLDSuggestion is one name from the TLD suggestion endpoint. Price is an
// estimate built from the fallback price; call CheckAvailability for the
// registrar's quote.
type TLDSuggestion struct {
	Domain    string  `json:"domain"`
	Available bool    `json:"available"`
	Price     float64 `json:"price"`
	TLD       string  `json:"tld"`
	Type      string  `json:"type"`
}

// TLDResult is returned by SuggestTLDs. Suggestions is never nil.
type TLDResult struct {
	Success     bool                 `json:"success"`
	Domain      string               `json:"domain"`
	Currency    string               `json:"currency,omitempty"`
	Suggestions []TLDSuggestion      `json:"suggestions"`
	Error       *registrar.ErrorInfo `json:"error,omitempty"`
}

type TLDOptions struct {
	API           registrar.API
	Pricing       pricing.Converter
	FallbackPrice float64
	Currency      string
	// Priority overrides DefaultTLDPriority when non-empty.
	Priority []string

	Logger  logger.Logger
	Metrics *metrics.Metrics
}

type TLDFetcher struct {
	opts TLDOptions
	log  logger.Logger
}

func NewTLDFetcher(opts TLDOptions) *TLDFetcher {
	if len(opts.Priority) == 0 {
		opts.Priority = DefaultTLDPriority
	}
	opts.Priority = slices.Clone(opts.Priority)
	if opts.FallbackPrice < 0 {
		opts.FallbackPrice = 0
	}
	return &TLDFetcher{opts: opts, log: logger.BestEffort(opts.Logger)}
}

// SuggestTLDs asks the registrar which TLDs are open for input and returns
// them ranked by the priority list.
func (f *TLDFetcher) SuggestTLDs(ctx context.Context, input string) TLDResult {
	start := time.Now()
	log := f.log.With(
		logger.String("operation", tldOperation),
		logger.String("call_id", uuid.NewString()),
		logger.String("input", input),
	)

	r := f.fetch(ctx, log, input)

	fields := []logger.Field{
		logger.String("domain", r.Domain),
		logger.Int("suggestions", len(r.Suggestions)),
		logger.Duration("duration", time.Since(start)),
	}
	var kind registrar.Kind
	if r.Error != nil {
		kind = r.Error.Kind
		fields = append(fields, logger.String("error_kind", string(kind)), logger.String("error", r.Error.Message))
		log.Warn("tld suggestions failed", fields...)
	} else {
		log.Info("tld suggestions fetched", fields...)
	}
	f.opts.Metrics.IncrementResult(tldOperation, kind)
	return r
}

func (f *TLDFetcher) fetch(ctx context.Context, log logger.Logger, input string) TLDResult {
	r := TLDResult{Currency: f.opts.Currency, Suggestions: []TLDSuggestion{}}

	name, err := domain.Normalize(input)
	if err != nil {
		r.Domain = strings.TrimSpace(input)
		return r.fail(&registrar.Error{
			Kind:    registrar.KindInvalidInput,
			Op:      tldOperation,
			Message: "enter a domain name such as example.com",
			Err:     err,
		})
	}
	r.Domain = name

	if f.opts.API == nil {
		return r.fail(registrar.Errorf(registrar.KindNetwork, tldOperation, "no registrar configured"))
	}

	log.Debug("registrar request", logger.String("domain", name))
	p, err := f.opts.API.TLDSuggestions(ctx, name)
	if err != nil {
		return r.fail(err)
	}
	log.Debug("registrar response", logger.Any("payload", p))

	if msg := p.ResponseMsg; msg != nil && msg.StatusCode.Valid && msg.StatusCode.Value != registrar.StatusAvailable {
		e := registrar.Errorf(registrar.KindUpstream, tldOperation, "registrar status %d", msg.StatusCode.Value)
		if m := msg.Message.String(); m != "" {
			e.Message += ": " + m
		}
		return r.fail(e)
	}

	price := f.opts.Pricing.Convert(f.opts.FallbackPrice)
	items := make([]TLDSuggestion, 0, len(p.ResponseData))
	for _, e := range p.ResponseData {
		full := strings.ToLower(strings.TrimSpace(e.WebsiteName.String()))
		if full == "" {
			continue
		}
		items = append(items, TLDSuggestion{
			Domain:    full,
			Available: bool(e.Available),
			Price:     price,
			TLD:       domain.TLDSuffix(full),
			Type:      e.DomainType.String(),
		})
	}
	r.Suggestions = Rank(items, f.opts.Priority)
	r.Success = true
	return r
}

func (r TLDResult) fail(err error) TLDResult {
	r.Success = false
	r.Suggestions = []TLDSuggestion{}
	r.Error = registrar.Info(err)
	return r
}

// Rank returns items with those whose TLD appears in priority first, in
// priority order, followed by the rest in their original order. Priority
// entries match with or without a leading dot.
func Rank(items []TLDSuggestion, priority []string) []TLDSuggestion {
	index := make(map[string]int, len(priority))
	for i, p := range priority {
		key := tldKey(p)
		if _, ok := index[key]; !ok && key != "" {
			index[key] = i
		}
	}

	var ranked, rest []TLDSuggestion
	for _, it := range items {
		if _, ok := index[tldKey(it.TLD)]; ok {
			ranked = append(ranked, it)
		} else {
			rest = append(rest, it)
		}
	}
	slices.SortStableFunc(ranked, func(a, b TLDSuggestion) int {
		return index[tldKey(a.TLD)] - index[tldKey(b.TLD)]
	})

	out := make([]TLDSuggestion, 0, len(items))
	out = append(out, ranked...)
	return append(out, rest...)
}

func tldKey(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
}
