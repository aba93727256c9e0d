package registrar

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The registrar is inconsistent about JSON types (numbers arrive as
// strings, booleans as "yes"/1). These scalar types decode any of those
// shapes and fall back to their zero value instead of failing.

// Amount is a price in the registrar's currency. Valid is false when the
// field was absent, null, negative, non-finite or unparseable.
type Amount struct {
	Value float64
	Valid bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount{}
	raw, ok := scalar(b)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	raw = strings.ReplaceAll(raw, ",", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(f) || f < 0 {
		return nil
	}
	*a = Amount{Value: f, Valid: true}
	return nil
}

// Or returns the amount when valid, fallback otherwise.
func (a Amount) Or(fallback float64) float64 {
	if a.Valid {
		return a.Value
	}
	return fallback
}

// Int is an integer field such as statusCode.
type Int struct {
	Value int
	Valid bool
}

func (i *Int) UnmarshalJSON(b []byte) error {
	*i = Int{}
	raw, ok := scalar(b)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !finite(f) {
		return nil
	}
	*i = Int{Value: int(f), Valid: true}
	return nil
}

// Bool accepts true/false, "yes"/"no", "true"/"false" and 1/0.
type Bool bool

func (v *Bool) UnmarshalJSON(b []byte) error {
	raw, ok := scalar(b)
	if !ok {
		*v = false
		return nil
	}
	*v = Bool(yesNo(raw))
	return nil
}

// Text accepts a string or any scalar and keeps its textual form.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	raw, ok := scalar(b)
	if !ok {
		*t = ""
		return nil
	}
	*t = Text(strings.TrimSpace(raw))
	return nil
}

func (t Text) String() string { return string(t) }

// scalar unwraps a JSON string, number or bool into its text. Objects,
// arrays and null report ok=false.
func scalar(b []byte) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", false
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	default:
		return string(b), true
	}
}

// finite rejects the NaN and Inf spellings ParseFloat accepts.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func yesNo(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "yes", "true", "1", "available":
		return true
	default:
		return false
	}
}
