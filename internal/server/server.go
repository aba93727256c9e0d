// Package server exposes the fetchers over HTTP for the web layer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/benithors/dothost/internal/availability"
	"github.com/benithors/dothost/internal/logger"
	"github.com/benithors/dothost/internal/registrar"
	"github.com/benithors/dothost/internal/suggest"
)

// statusClientClosedRequest is nginx's code for a request the client gave up on.
const statusClientClosedRequest = 499

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, input string) availability.Result
}

type KeywordSuggester interface {
	SuggestByKeyword(ctx context.Context, keyword string, maxResults int) suggest.KeywordResult
}

type TLDSuggester interface {
	SuggestTLDs(ctx context.Context, domain string) suggest.TLDResult
}

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Availability AvailabilityChecker
	Keywords     KeywordSuggester
	TLDs         TLDSuggester

	// Gatherer backs /metrics; the route is omitted when nil.
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
}

type Server struct {
	opts   Options
	log    logger.Logger
	router chi.Router
}

func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{opts: opts, log: logger.BestEffort(opts.Logger)}
	s.router = s.routes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Cache-Control", "no-store"))
		r.Get("/availability", s.handleAvailability)
		r.Get("/suggestions", s.handleSuggestions)
		r.Get("/tlds", s.handleTLDs)
	})
	return r
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if s.opts.Availability == nil {
		http.NotFound(w, r)
		return
	}
	res := s.opts.Availability.CheckAvailability(r.Context(), r.URL.Query().Get("domain"))
	writeJSON(w, statusFor(res.Error), res)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if s.opts.Keywords == nil {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	maxResults := 0
	if raw := q.Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, suggest.KeywordResult{
				Suggestions: []suggest.KeywordSuggestion{},
				Error:       &registrar.ErrorInfo{Kind: registrar.KindInvalidInput, Message: "max must be a non-negative integer"},
			})
			return
		}
		maxResults = n
	}
	res := s.opts.Keywords.SuggestByKeyword(r.Context(), q.Get("keyword"), maxResults)
	writeJSON(w, statusFor(res.Error), res)
}

func (s *Server) handleTLDs(w http.ResponseWriter, r *http.Request) {
	if s.opts.TLDs == nil {
		http.NotFound(w, r)
		return
	}
	res := s.opts.TLDs.SuggestTLDs(r.Context(), r.URL.Query().Get("domain"))
	writeJSON(w, statusFor(res.Error), res)
}

// statusFor maps a fetcher failure to an HTTP status. Negative outcomes
// such as "not available" carry no error and are 200.
func statusFor(e *registrar.ErrorInfo) int {
	if e == nil {
		return http.StatusOK
	}
	switch e.Kind {
	case registrar.KindInvalidInput:
		return http.StatusBadRequest
	case registrar.KindTimeout:
		return http.StatusGatewayTimeout
	case registrar.KindCancelled:
		return statusClientClosedRequest
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Duration("duration", time.Since(start)),
		)
	})
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("http server listening", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		s.log.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
