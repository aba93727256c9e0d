package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benithors/dothost/internal/pricing"
	"github.com/benithors/dothost/internal/registrar"
	"github.com/benithors/dothost/internal/registrar/restapi"
)

// fakeAPI answers DomainSuggestions from a per-keyword script and records
// every keyword it was asked for.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []string
	maxSeen []int
	answers map[string]func() (registrar.SuggestionPayload, error)
	tld     func(string) (registrar.TLDPayload, error)
}

func (f *fakeAPI) CheckDomainAvailable(context.Context, string) (registrar.AvailabilityPayload, error) {
	return registrar.AvailabilityPayload{}, errors.New("not scripted")
}

func (f *fakeAPI) DomainSuggestions(_ context.Context, keyword string, maxResults int) (registrar.SuggestionPayload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, keyword)
	f.maxSeen = append(f.maxSeen, maxResults)
	answer, ok := f.answers[keyword]
	f.mu.Unlock()
	if !ok {
		return registrar.SuggestionPayload{}, registrar.Errorf(registrar.KindNetwork, "domainSuggestion", "connection refused")
	}
	return answer()
}

func (f *fakeAPI) TLDSuggestions(_ context.Context, domain string) (registrar.TLDPayload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, domain)
	f.mu.Unlock()
	return f.tld(domain)
}

func payload(t *testing.T, body string) func() (registrar.SuggestionPayload, error) {
	t.Helper()
	var p registrar.SuggestionPayload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return func() (registrar.SuggestionPayload, error) { return p, nil }
}

func timeoutErr() (registrar.SuggestionPayload, error) {
	return registrar.SuggestionPayload{}, &registrar.Error{Kind: registrar.KindTimeout, Op: "domainSuggestion", Err: context.DeadlineExceeded}
}

func newKeywordFetcher(api registrar.API) *KeywordFetcher {
	return NewKeywordFetcher(KeywordOptions{
		API:           api,
		Pricing:       pricing.MustNew(1500, 0.10),
		FallbackPrice: 12.99,
		Currency:      "NGN",
		DefaultTLD:    "com",
		MaxCandidates: 6,
		ProbePrefixes: []string{"get"},
		ProbeSuffixes: []string{"hq"},
	})
}

func TestSuggestByKeyword_StopsAtFirstTransportSuccess(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{answers: map[string]func() (registrar.SuggestionPayload, error){
		"shop.com": timeoutErr,
		"shop":     payload(t, `{"responseMsg":{"registryDomainSuggestionList":[]}}`),
		"getshop":  payload(t, `{"responseMsg":{"registryDomainSuggestionList":[{"domainName":"x.com","price":1}]}}`),
	}}
	got := newKeywordFetcher(api).SuggestByKeyword(context.Background(), "shop", 10)

	require.True(t, got.Success, "error=%v", got.Error)
	assert.NotNil(t, got.Suggestions)
	assert.Empty(t, got.Suggestions)
	assert.Equal(t, []string{"shop.com", "shop"}, api.calls)
	assert.Equal(t, "shop", got.Candidate)
}

func TestSuggestByKeyword_ConvertsPrices(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{answers: map[string]func() (registrar.SuggestionPayload, error){
		"shop.com": payload(t, `{"responseMsg":{"registryDomainSuggestionList":[
			{"domainName":"Shop.NG","price":"10"},
			{"domainName":"shopnow.com"},
			{"domainName":""}
		]}}`),
	}}
	got := newKeywordFetcher(api).SuggestByKeyword(context.Background(), "Shop.ng", 10)

	require.True(t, got.Success)
	assert.Equal(t, "shop", got.Keyword)
	require.Len(t, got.Suggestions, 2)
	assert.Equal(t, KeywordSuggestion{Domain: "shop.ng", PriceSource: 10, PriceLocal: 16500}, got.Suggestions[0])
	assert.Equal(t, "shopnow.com", got.Suggestions[1].Domain)
	assert.Equal(t, 12.99, got.Suggestions[1].PriceSource)
	assert.Equal(t, pricing.MustNew(1500, 0.10).Convert(12.99), got.Suggestions[1].PriceLocal)
	assert.True(t, got.Suggestions[1].Estimated)
}

func TestSuggestByKeyword_NonFinitePriceUsesFallback(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{answers: map[string]func() (registrar.SuggestionPayload, error){
		"shop.com": payload(t, `{"responseMsg":{"registryDomainSuggestionList":[
			{"domainName":"shop.ng","price":"NaN"},
			{"domainName":"shop.io","price":"Inf"}
		]}}`),
	}}
	got := newKeywordFetcher(api).SuggestByKeyword(context.Background(), "shop", 10)

	require.True(t, got.Success, "error=%v", got.Error)
	require.Len(t, got.Suggestions, 2)
	for _, s := range got.Suggestions {
		assert.Equal(t, 12.99, s.PriceSource, s.Domain)
		assert.True(t, s.Estimated, s.Domain)
	}
	_, err := json.Marshal(got)
	assert.NoError(t, err)
}

func TestSuggestByKeyword_MultiwordStartsWithFullPhrase(t *testing.T) {
	t.Parallel()

	full := "internationalbusinessmachinescorporationlimited"
	api := &fakeAPI{}
	got := newKeywordFetcher(api).SuggestByKeyword(context.Background(), "international business machines corporation limited", 10)

	assert.Equal(t, full, got.Keyword)
	require.GreaterOrEqual(t, len(api.calls), 2)
	assert.Equal(t, []string{full + ".com", full}, api.calls[:2])
}

func TestSuggestByKeyword_AllCandidatesFail(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	got := newKeywordFetcher(api).SuggestByKeyword(context.Background(), "shop", 10)

	assert.False(t, got.Success)
	require.NotNil(t, got.Error)
	assert.Equal(t, registrar.KindAllCandidatesFailed, got.Error.Kind)
	assert.Contains(t, got.Error.Message, "connection refused")
	assert.Equal(t, []string{"shop.com", "shop", "getshop", "shophq"}, api.calls)
	assert.Equal(t, api.calls, got.Attempts)
	assert.NotNil(t, got.Suggestions)
}

func TestSuggestByKeyword_MalformedStopsLadder(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{answers: map[string]func() (registrar.SuggestionPayload, error){
		"shop.com": func() (registrar.SuggestionPayload, error) {
			return registrar.SuggestionPayload{}, registrar.Errorf(registrar.KindMalformedResponse, "domainSuggestion", "not json")
		},
	}}
	got := newKeywordFetcher(api).SuggestByKeyword(context.Background(), "shop", 10)

	require.NotNil(t, got.Error)
	assert.Equal(t, registrar.KindMalformedResponse, got.Error.Kind)
	assert.Len(t, api.calls, 1)
}

func TestSuggestByKeyword_MissingEnvelopeIsMalformed(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{answers: map[string]func() (registrar.SuggestionPayload, error){
		"shop.com": payload(t, `{}`),
	}}
	got := newKeywordFetcher(api).SuggestByKeyword(context.Background(), "shop", 10)

	require.NotNil(t, got.Error)
	assert.Equal(t, registrar.KindMalformedResponse, got.Error.Kind)
}

func TestSuggestByKeyword_UpstreamStatus(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{answers: map[string]func() (registrar.SuggestionPayload, error){
		"shop.com": payload(t, `{"responseMsg":{"statusCode":429,"message":"slow down"}}`),
	}}
	got := newKeywordFetcher(api).SuggestByKeyword(context.Background(), "shop", 10)

	require.NotNil(t, got.Error)
	assert.Equal(t, registrar.KindUpstream, got.Error.Kind)
	assert.Len(t, api.calls, 1)
}

func TestSuggestByKeyword_InvalidInput(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	f := newKeywordFetcher(api)
	for _, in := range []string{"", "   ", ".com", "https://www."} {
		got := f.SuggestByKeyword(context.Background(), in, 10)
		require.NotNil(t, got.Error, "input=%q", in)
		assert.Equal(t, registrar.KindInvalidInput, got.Error.Kind, "input=%q", in)
	}
	assert.Empty(t, api.calls)
}

func TestSuggestByKeyword_ClampsMaxResults(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{answers: map[string]func() (registrar.SuggestionPayload, error){
		"shop.com": payload(t, `{"responseMsg":{"registryDomainSuggestionList":[]}}`),
	}}
	f := newKeywordFetcher(api)
	f.SuggestByKeyword(context.Background(), "shop", 500)
	f.SuggestByKeyword(context.Background(), "shop", 0)

	assert.Equal(t, []int{registrar.MaxSuggestionResults, 20}, api.maxSeen)
}

func TestSuggestByKeyword_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := &fakeAPI{}
	got := newKeywordFetcher(api).SuggestByKeyword(ctx, "shop", 10)

	require.NotNil(t, got.Error)
	assert.Equal(t, registrar.KindCancelled, got.Error.Kind)
	assert.Empty(t, api.calls)
}

// The first candidate hangs past the client timeout; the second answers.
func TestSuggestByKeyword_TimeoutThenSuccessOverHTTP(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kw := r.URL.Query().Get("keyword")
		mu.Lock()
		seen = append(seen, kw)
		mu.Unlock()
		if kw == "shop.com" {
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte(`{"responseMsg":{"registryDomainSuggestionList":[]}}`))
	}))
	defer srv.Close()

	api, err := restapi.NewClient(restapi.Options{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	got := newKeywordFetcher(api).SuggestByKeyword(context.Background(), "shop", 10)

	require.True(t, got.Success, "error=%v", got.Error)
	assert.Empty(t, got.Suggestions)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"shop.com", "shop"}, seen)
}

func TestLadder(t *testing.T) {
	t.Parallel()

	f := newKeywordFetcher(nil)
	got := slices.Collect(f.Ladder("bestpizza", []string{"best-pizza", "bestpizza", "pizza"}))
	assert.Equal(t, []string{"bestpizza.com", "bestpizza", "best-pizza", "pizza", "getbestpizza", "bestpizzahq"}, got)

	f = NewKeywordFetcher(KeywordOptions{DefaultTLD: ".NG", MaxCandidates: 2, ProbePrefixes: []string{"my"}})
	assert.Equal(t, []string{"shop.ng", "shop"}, slices.Collect(f.Ladder("shop", nil)))

	var first []string
	for c := range f.Ladder("shop", nil) {
		first = append(first, c)
		break
	}
	assert.Equal(t, []string{"shop.ng"}, first)

	assert.Empty(t, slices.Collect(f.Ladder("", nil)))
}

func TestBaseKeyword(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ in, want string }{
		{"shop", "shop"},
		{"Shop.com.ng", "shop"},
		{"https://www.Shop.ng/x", "shop"},
		{"  best pizza.ng ", "best pizza"},
		{"", ""},
	} {
		assert.Equal(t, tc.want, BaseKeyword(tc.in), "input=%q", tc.in)
	}
}
