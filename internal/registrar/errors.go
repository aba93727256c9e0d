package registrar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies why a registrar operation failed.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindTimeout             Kind = "timeout"
	KindNetwork             Kind = "network_error"
	KindMalformedResponse   Kind = "malformed_response"
	KindAllCandidatesFailed Kind = "all_candidates_failed"
	KindUpstream            Kind = "upstream_error"
	KindCancelled           Kind = "cancelled"
)

// Error is a classified registrar failure.
type Error struct {
	Kind    Kind
	Op      string // e.g. "checkdomainavailable"
	Message string
	// HTTPStatus is set when the registrar answered with a non-2xx status.
	HTTPStatus int
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("registrar")
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so callers can match with errors.Is(err, &Error{Kind: k}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or
// Classify(err) when there is none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return Classify(err)
}

// Classify maps a raw transport/decoding error to a Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}

	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	if errors.As(err, &syn) || errors.As(err, &typ) {
		return KindMalformedResponse
	}

	return KindNetwork
}

// Wrap classifies err and attaches op. An existing *Error is returned as is.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	return &Error{Kind: Classify(err), Op: op, Err: err}
}

// IsTransportFailure reports whether err means no usable response reached
// us: the request timed out, could not be delivered, or got a non-2xx reply.
func IsTransportFailure(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindNetwork:
		return true
	default:
		return false
	}
}

// ErrorInfo is the serializable failure carried in fetcher results.
type ErrorInfo struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Info converts err into an ErrorInfo; nil stays nil.
func Info(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	return &ErrorInfo{Kind: KindOf(err), Message: err.Error()}
}
