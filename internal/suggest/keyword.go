// Package suggest implements the keyword and TLD suggestion fetchers.
package suggest

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/benithors/dothost/internal/domain"
	"github.com/benithors/dothost/internal/generate"
	"github.com/benithors/dothost/internal/logger"
	"github.com/benithors/dothost/internal/metrics"
	"github.com/benithors/dothost/internal/pricing"
	"github.com/benithors/dothost/internal/registrar"
)

const keywordOperation = "keyword_suggestions"

// KeywordSuggestion is one registrar suggestion with both prices.
type KeywordSuggestion struct {
	Domain      string  `json:"domain"`
	PriceSource float64 `json:"price_source"`
	PriceLocal  float64 `json:"price_local"`
	Estimated   bool    `json:"estimated,omitempty"`
}

// KeywordResult is returned by SuggestByKeyword. Suggestions is never nil;
// an empty list with Success=true means the registrar had nothing to offer.
type KeywordResult struct {
	Success bool   `json:"success"`
	Keyword string `json:"keyword"`
	// Candidate is the ladder entry whose call reached the registrar.
	Candidate   string               `json:"candidate,omitempty"`
	Attempts    []string             `json:"attempts,omitempty"`
	Currency    string               `json:"currency,omitempty"`
	Suggestions []KeywordSuggestion  `json:"suggestions"`
	Error       *registrar.ErrorInfo `json:"error,omitempty"`
}

type KeywordOptions struct {
	API           registrar.API
	Pricing       pricing.Converter
	FallbackPrice float64
	Currency      string

	DefaultTLD string
	// MaxResults applies when the caller passes maxResults <= 0.
	MaxResults int
	// MaxCandidates caps the ladder length.
	MaxCandidates int
	ProbePrefixes []string
	ProbeSuffixes []string

	Logger  logger.Logger
	Metrics *metrics.Metrics
}

type KeywordFetcher struct {
	opts KeywordOptions
	gen  *generate.Generator
	log  logger.Logger
}

func NewKeywordFetcher(opts KeywordOptions) *KeywordFetcher {
	opts.DefaultTLD = strings.Trim(strings.ToLower(strings.TrimSpace(opts.DefaultTLD)), ".")
	if opts.MaxResults <= 0 {
		opts.MaxResults = 20
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = 6
	}
	if opts.FallbackPrice < 0 {
		opts.FallbackPrice = 0
	}
	return &KeywordFetcher{
		opts: opts,
		gen:  generate.New(generate.Options{MaxLabels: opts.MaxCandidates, Hyphenated: true}),
		log:  logger.BestEffort(opts.Logger),
	}
}

// SuggestByKeyword walks the candidate ladder for keyword and returns the
// suggestions from the first candidate the registrar answers. Candidates
// are tried one at a time; only timeouts and network errors move on to the
// next one.
func (f *KeywordFetcher) SuggestByKeyword(ctx context.Context, keyword string, maxResults int) KeywordResult {
	start := time.Now()
	log := f.log.With(
		logger.String("operation", keywordOperation),
		logger.String("call_id", uuid.NewString()),
		logger.String("input", keyword),
	)

	r := f.fetch(ctx, log, keyword, maxResults)

	fields := []logger.Field{
		logger.String("keyword", r.Keyword),
		logger.Strings("attempts", r.Attempts),
		logger.Int("suggestions", len(r.Suggestions)),
		logger.Duration("duration", time.Since(start)),
	}
	var kind registrar.Kind
	if r.Error != nil {
		kind = r.Error.Kind
		fields = append(fields, logger.String("error_kind", string(kind)), logger.String("error", r.Error.Message))
		log.Warn("keyword suggestions failed", fields...)
	} else {
		log.Info("keyword suggestions fetched", fields...)
	}
	f.opts.Metrics.IncrementResult(keywordOperation, kind)
	return r
}

func (f *KeywordFetcher) fetch(ctx context.Context, log logger.Logger, keyword string, maxResults int) KeywordResult {
	r := KeywordResult{Currency: f.opts.Currency, Suggestions: []KeywordSuggestion{}}

	labels := f.gen.Labels(BaseKeyword(keyword))
	if len(labels) == 0 {
		return r.fail(&registrar.Error{
			Kind:    registrar.KindInvalidInput,
			Op:      keywordOperation,
			Message: "enter a keyword such as mybusiness",
		})
	}
	r.Keyword = labels[0].Label
	variants := make([]string, 0, len(labels)-1)
	for _, l := range labels[1:] {
		variants = append(variants, l.Label)
	}

	if maxResults <= 0 {
		maxResults = f.opts.MaxResults
	}
	maxResults = min(maxResults, registrar.MaxSuggestionResults)

	if f.opts.API == nil {
		return r.fail(registrar.Errorf(registrar.KindNetwork, keywordOperation, "no registrar configured"))
	}

	var lastErr error
	for cand := range f.Ladder(r.Keyword, variants) {
		if err := ctx.Err(); err != nil {
			return r.fail(registrar.Wrap(keywordOperation, err))
		}
		r.Attempts = append(r.Attempts, cand)
		log.Debug("registrar request", logger.String("candidate", cand), logger.Int("max_results", maxResults))

		p, err := f.opts.API.DomainSuggestions(ctx, cand, maxResults)
		if err != nil {
			if registrar.IsTransportFailure(err) {
				log.Debug("candidate failed", logger.String("candidate", cand), logger.Error(err))
				lastErr = err
				continue
			}
			return r.fail(err)
		}
		log.Debug("registrar response", logger.String("candidate", cand), logger.Any("payload", p))

		r.Candidate = cand
		if err := f.collect(&r, p, maxResults); err != nil {
			return r.fail(err)
		}
		r.Success = true
		return r
	}

	return r.fail(&registrar.Error{
		Kind:    registrar.KindAllCandidatesFailed,
		Op:      keywordOperation,
		Message: fmt.Sprintf("%d candidates failed", len(r.Attempts)),
		Err:     lastErr,
	})
}

func (f *KeywordFetcher) collect(r *KeywordResult, p registrar.SuggestionPayload, maxResults int) error {
	msg := p.ResponseMsg
	if msg == nil {
		return registrar.Errorf(registrar.KindMalformedResponse, keywordOperation, "response has no responseMsg")
	}
	if msg.StatusCode.Valid && registrar.IsUpstreamStatus(msg.StatusCode.Value) {
		e := registrar.Errorf(registrar.KindUpstream, keywordOperation, "registrar status %d", msg.StatusCode.Value)
		if m := msg.Message.String(); m != "" {
			e.Message += ": " + m
		}
		return e
	}

	for _, e := range p.Suggestions() {
		if len(r.Suggestions) >= maxResults {
			break
		}
		name := strings.ToLower(strings.TrimSpace(e.DomainName.String()))
		if name == "" {
			continue
		}
		src := e.Price.Or(f.opts.FallbackPrice)
		r.Suggestions = append(r.Suggestions, KeywordSuggestion{
			Domain:      name,
			PriceSource: src,
			PriceLocal:  f.opts.Pricing.Convert(src),
			Estimated:   !e.Price.Valid,
		})
	}
	return nil
}

func (r KeywordResult) fail(err error) KeywordResult {
	r.Success = false
	r.Suggestions = []KeywordSuggestion{}
	r.Error = registrar.Info(err)
	return r
}

// Ladder yields the candidates for base in the order they are tried:
// base with the default TLD, bare base, the given variants, then the
// configured prefix and suffix probes. Duplicates are skipped and at most
// MaxCandidates entries are produced. Stages are only built when reached.
func (f *KeywordFetcher) Ladder(base string, variants []string) iter.Seq[string] {
	stages := []func() []string{
		func() []string {
			if f.opts.DefaultTLD == "" {
				return nil
			}
			return []string{base + "." + f.opts.DefaultTLD}
		},
		func() []string { return []string{base} },
		func() []string { return variants },
		func() []string {
			probes := make([]string, 0, len(f.opts.ProbePrefixes)+len(f.opts.ProbeSuffixes))
			for _, p := range f.opts.ProbePrefixes {
				probes = append(probes, p+base)
			}
			for _, s := range f.opts.ProbeSuffixes {
				probes = append(probes, base+s)
			}
			return probes
		},
	}

	return func(yield func(string) bool) {
		if base == "" {
			return
		}
		seen := make(map[string]struct{}, f.opts.MaxCandidates)
		for _, stage := range stages {
			for _, c := range stage() {
				c = strings.ToLower(strings.TrimSpace(c))
				if c == "" {
					continue
				}
				if _, dup := seen[c]; dup {
					continue
				}
				seen[c] = struct{}{}
				if !yield(c) || len(seen) >= f.opts.MaxCandidates {
					return
				}
			}
		}
	}
}

// BaseKeyword reduces free-form input to the phrase before the first dot,
// after dropping any scheme and a leading "www.". "https://www.Shop.ng/x"
// becomes "shop".
func BaseKeyword(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(domain.BaseKeyword(s))
}
