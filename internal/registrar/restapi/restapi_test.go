package restapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benithors/dothost/internal/registrar"
)

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL: url,
		APIKey:  "k",
		Timeout: timeout,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RequiresKeyAndURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Options{BaseURL: "https://api.example"}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if _, err := NewClient(Options{APIKey: "k"}); err == nil {
		t.Fatalf("expected error for missing base url")
	}
}

func TestClient_CheckDomainAvailable_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method=%q, want GET", r.Method)
		}
		if r.URL.Path != "/checkdomainavailable" {
			t.Errorf("path=%q, want /checkdomainavailable", r.URL.Path)
		}
		if got := r.URL.Query().Get("APIKey"); got != "k" {
			t.Errorf("APIKey=%q, want k", got)
		}
		if got := r.URL.Query().Get("websiteName"); got != "example.com" {
			t.Errorf("websiteName=%q, want example.com", got)
		}
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{
			"responseMsg":{"statusCode":200,"message":"Domain is available"},
			"responseData":{"available":true,"registrationFee":10,"renewalfee":12,"transferFee":8}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/", 2*time.Second)
	got, err := c.CheckDomainAvailable(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("CheckDomainAvailable: %v", err)
	}
	if got.ResponseMsg == nil || got.ResponseMsg.StatusCode.Value != 200 {
		t.Fatalf("statusCode=%#v, want 200", got.ResponseMsg)
	}
	if got.ResponseData.RegistrationFee.Value != 10 || got.ResponseData.RenewalFee.Value != 12 || got.ResponseData.TransferFee.Value != 8 {
		t.Fatalf("fees=%#v", got.ResponseData)
	}
}

func TestClient_DomainSuggestions_ClampsMaxResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/domainSuggestion" {
			t.Errorf("path=%q, want /domainSuggestion", r.URL.Path)
		}
		if got := r.URL.Query().Get("maxResult"); got != "50" {
			t.Errorf("maxResult=%q, want 50", got)
		}
		_, _ = w.Write([]byte(`{"responseMsg":{"registryDomainSuggestionList":[{"domainName":"shop.com","price":"9.99"}]}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2*time.Second)
	got, err := c.DomainSuggestions(context.Background(), "shop", 500)
	if err != nil {
		t.Fatalf("DomainSuggestions: %v", err)
	}
	list := got.Suggestions()
	if len(list) != 1 || list[0].DomainName != "shop.com" || list[0].Price.Value != 9.99 {
		t.Fatalf("suggestions=%#v", list)
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv.URL, 50*time.Millisecond)
	_, err := c.TLDSuggestions(context.Background(), "example.com")
	if got := registrar.KindOf(err); got != registrar.KindTimeout {
		t.Fatalf("kind=%q err=%v, want timeout", got, err)
	}
	if strings.Contains(err.Error(), "APIKey=k") {
		t.Fatalf("error leaks api key: %v", err)
	}
}

func TestClient_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	_, err := c.CheckDomainAvailable(ctx, "example.com")
	if got := registrar.KindOf(err); got != registrar.KindCancelled {
		t.Fatalf("kind=%q err=%v, want cancelled", got, err)
	}
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, time.Second)
	_, err := c.CheckDomainAvailable(context.Background(), "example.com")
	if got := registrar.KindOf(err); got != registrar.KindNetwork {
		t.Fatalf("kind=%q err=%v, want network_error", got, err)
	}
	if !registrar.IsTransportFailure(err) {
		t.Fatalf("IsTransportFailure=false, want true")
	}
}

func TestClient_Non2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.CheckDomainAvailable(context.Background(), "example.com")
	var re *registrar.Error
	if !errors.As(err, &re) {
		t.Fatalf("err=%v, want *registrar.Error", err)
	}
	if re.Kind != registrar.KindNetwork || re.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("kind=%q status=%d, want network_error/502", re.Kind, re.HTTPStatus)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`<html>oops</html>`, `[1,2,3]`, ``, `{"responseMsg":`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		c := newTestClient(t, srv.URL, time.Second)
		_, err := c.CheckDomainAvailable(context.Background(), "example.com")
		srv.Close()
		if got := registrar.KindOf(err); got != registrar.KindMalformedResponse {
			t.Fatalf("body=%q kind=%q err=%v, want malformed_response", body, got, err)
		}
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveRegistrarCall(op string, kind registrar.Kind, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, op+":"+string(kind))
}

func TestClient_Observer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responseMsg":{"statusCode":200},"responseData":[]}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c, err := NewClient(Options{BaseURL: srv.URL, APIKey: "k", Observer: obs})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.TLDSuggestions(context.Background(), "example.com"); err != nil {
		t.Fatalf("TLDSuggestions: %v", err)
	}
	if _, err := c.TLDSuggestions(context.Background(), ""); err == nil {
		t.Fatalf("expected invalid input error")
	}
	if len(obs.calls) != 1 || obs.calls[0] != "getTldSuggestion:" {
		t.Fatalf("calls=%v, want one successful getTldSuggestion", obs.calls)
	}
}
