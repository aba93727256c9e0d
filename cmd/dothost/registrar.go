package main

import (
	"github.com/spf13/cobra"

	"github.com/benithors/dothost/internal/availability"
	"github.com/benithors/dothost/internal/metrics"
	"github.com/benithors/dothost/internal/pricing"
	"github.com/benithors/dothost/internal/registrar/restapi"
	"github.com/benithors/dothost/internal/suggest"
)

// components are the fetchers for one command run, all sharing a single
// registrar client so pacing and the in-flight cap apply across them.
type components struct {
	checker  *availability.Checker
	keywords *suggest.KeywordFetcher
	tlds     *suggest.TLDFetcher
}

func (c *cli) converter(cmd *cobra.Command) (pricing.Converter, error) {
	conv, err := c.cfg.Pricing.Converter()
	if err != nil {
		return pricing.Converter{}, &cliError{Code: 2, Err: err, Cmd: cmd}
	}
	return conv, nil
}

// wire builds the fetchers from the loaded config. It needs registrar
// credentials. m may be nil.
func (c *cli) wire(cmd *cobra.Command, m *metrics.Metrics) (*components, error) {
	if err := c.cfg.RequireCredentials(); err != nil {
		return nil, usageErr(cmd, err)
	}
	conv, err := c.converter(cmd)
	if err != nil {
		return nil, err
	}

	rc := c.cfg.Registrar
	api, err := restapi.NewClient(restapi.Options{
		BaseURL:           rc.BaseURL,
		APIKey:            rc.APIKey,
		Timeout:           rc.Timeout,
		RequestsPerSecond: rc.RequestsPerSecond,
		Burst:             rc.Burst,
		MaxConcurrent:     rc.MaxConcurrent,
		UserAgent:         "dothost/" + c.Version,
		Observer:          m,
	})
	if err != nil {
		return nil, &cliError{Code: 2, Err: err, Cmd: cmd}
	}

	pc := c.cfg.Pricing
	sc := c.cfg.Suggest
	return &components{
		checker: availability.NewChecker(availability.Options{
			API:            api,
			Pricing:        conv,
			FallbackPrice:  pc.FallbackPrice,
			Currency:       pc.LocalCurrency,
			SourceCurrency: pc.SourceCurrency,
			Concurrency:    rc.MaxConcurrent,
			Logger:         c.log,
			Metrics:        m,
		}),
		keywords: suggest.NewKeywordFetcher(suggest.KeywordOptions{
			API:           api,
			Pricing:       conv,
			FallbackPrice: pc.FallbackPrice,
			Currency:      pc.LocalCurrency,
			DefaultTLD:    sc.DefaultTLD,
			MaxResults:    sc.MaxResults,
			MaxCandidates: sc.MaxCandidates,
			ProbePrefixes: sc.ProbePrefixes,
			ProbeSuffixes: sc.ProbeSuffixes,
			Logger:        c.log,
			Metrics:       m,
		}),
		tlds: suggest.NewTLDFetcher(suggest.TLDOptions{
			API:           api,
			Pricing:       conv,
			FallbackPrice: pc.FallbackPrice,
			Currency:      pc.LocalCurrency,
			Priority:      sc.TLDPriority,
			Logger:        c.log,
			Metrics:       m,
		}),
	}, nil
}
