// Package restapi is the HTTP client for the registrar's reseller REST API.
package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/benithors/dothost/internal/registrar"
)

const (
	OpCheckAvailable = "checkdomainavailable"
	OpSuggestions    = "domainSuggestion"
	OpTLDSuggestions = "getTldSuggestion"

	maxBodyBytes = 1 << 20
)

// Observer receives one call per outbound request. kind is empty on success.
type Observer interface {
	ObserveRegistrarCall(op string, kind registrar.Kind, d time.Duration)
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// Client-side pacing to reduce the chance of hitting provider limits.
	RequestsPerSecond float64
	Burst             int
	MaxConcurrent     int
	UserAgent         string

	// HTTPClient overrides the default client; its Timeout is left alone.
	HTTPClient *http.Client
	Observer   Observer
}

type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	sem     chan struct{}
}

var _ registrar.API = (*Client)(nil)

func NewClient(opts Options) (*Client, error) {
	opts.APIKey = strings.TrimSpace(opts.APIKey)
	if opts.APIKey == "" {
		return nil, fmt.Errorf("restapi: missing api key (set DOTHOST_REGISTRAR_API_KEY)")
	}
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("restapi: missing base url")
	}
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("restapi: bad base url: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "dothost/registrar-restapi"
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}

	return &Client{
		opts:    opts,
		http:    httpc,
		limiter: rate.NewLimiter(limit, opts.Burst),
		sem:     make(chan struct{}, opts.MaxConcurrent),
	}, nil
}

func (c *Client) CheckDomainAvailable(ctx context.Context, domain string) (registrar.AvailabilityPayload, error) {
	var out registrar.AvailabilityPayload
	if strings.TrimSpace(domain) == "" {
		return out, registrar.Errorf(registrar.KindInvalidInput, OpCheckAvailable, "empty domain")
	}
	q := url.Values{}
	q.Set("websiteName", domain)
	err := c.get(ctx, OpCheckAvailable, q, &out)
	return out, err
}

func (c *Client) DomainSuggestions(ctx context.Context, keyword string, maxResults int) (registrar.SuggestionPayload, error) {
	var out registrar.SuggestionPayload
	if strings.TrimSpace(keyword) == "" {
		return out, registrar.Errorf(registrar.KindInvalidInput, OpSuggestions, "empty keyword")
	}
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("maxResult", strconv.Itoa(ClampResults(maxResults)))
	err := c.get(ctx, OpSuggestions, q, &out)
	return out, err
}

func (c *Client) TLDSuggestions(ctx context.Context, domain string) (registrar.TLDPayload, error) {
	var out registrar.TLDPayload
	if strings.TrimSpace(domain) == "" {
		return out, registrar.Errorf(registrar.KindInvalidInput, OpTLDSuggestions, "empty domain")
	}
	q := url.Values{}
	q.Set("websiteName", domain)
	err := c.get(ctx, OpTLDSuggestions, q, &out)
	return out, err
}

// ClampResults bounds n to [1, registrar.MaxSuggestionResults].
func ClampResults(n int) int {
	if n < 1 {
		return 1
	}
	if n > registrar.MaxSuggestionResults {
		return registrar.MaxSuggestionResults
	}
	return n
}

func (c *Client) get(ctx context.Context, op string, q url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.opts.Observer != nil {
			c.opts.Observer.ObserveRegistrarCall(op, registrar.KindOf(err), time.Since(start))
		}
	}()

	// Limit in-flight requests.
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return registrar.Wrap(op, ctx.Err())
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return registrar.Wrap(op, ctx.Err())
		}
		return &registrar.Error{Kind: registrar.KindTimeout, Op: op, Message: "pacing wait exceeds deadline", Err: err}
	}

	// The per-call deadline starts after pacing so queued calls are not
	// charged for waiting their turn.
	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	q.Set("APIKey", c.opts.APIKey)
	u := c.opts.BaseURL + "/" + op + "?" + q.Encode()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, u, nil)
	if err != nil {
		return &registrar.Error{Kind: registrar.KindInvalidInput, Op: op, Err: err}
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("user-agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.transportError(ctx, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &registrar.Error{
			Kind:       registrar.KindNetwork,
			Op:         op,
			Message:    fmt.Sprintf("http %d: %s", resp.StatusCode, snippet(b)),
			HTTPStatus: resp.StatusCode,
		}
	}

	if err := decodeObject(b, out); err != nil {
		return &registrar.Error{Kind: registrar.KindMalformedResponse, Op: op, Message: snippet(b), Err: err}
	}
	return nil
}

// transportError classifies err, preferring the caller's context state:
// a cancelled parent means cancelled even if the transport saw a timeout.
func (c *Client) transportError(parent context.Context, op string, err error) error {
	// The request URL carries the API key; never let it reach logs.
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = c.opts.BaseURL + "/" + op
	}

	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return &registrar.Error{Kind: registrar.KindCancelled, Op: op, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &registrar.Error{
			Kind:    registrar.KindTimeout,
			Op:      op,
			Message: fmt.Sprintf("no response within %s", c.opts.Timeout),
			Err:     err,
		}
	}
	return registrar.Wrap(op, err)
}

// decodeObject requires a JSON object at the top level; any other shape is
// a schema violation.
func decodeObject(b []byte, out any) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return errors.New("empty body")
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("expected JSON object, got %q", trimmed[:1])
	}
	return json.Unmarshal(b, out)
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
