// Package http provides the JSON API server and its handlers.
//
// This file implements request parsing: bounded body decoding and typed
// query parameters. Parse failures are returned as *RequestError so
// handlers can map them to 400 or 422 uniformly.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"debtplan/internal/core"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// RequestError is a client error detected while reading a request.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string { return e.Message }
func (e *RequestError) Unwrap() error { return e.Err }

func malformed(format string, args ...any) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func invalid(err error, format string, args ...any) *RequestError {
	return &RequestError{Status: http.StatusUnprocessableEntity, Message: fmt.Sprintf(format, args...), Err: err}
}

// DecodeJSON reads a bounded JSON body into v, rejecting unknown fields
// and trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return &RequestError{Status: http.StatusUnsupportedMediaType, Message: "content type must be application/json"}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return malformed("request body is empty")
		case errors.As(err, &maxErr):
			return &RequestError{Status: http.StatusRequestEntityTooLarge, Message: "request body too large"}
		default:
			return malformed("malformed JSON body: %v", err)
		}
	}
	if dec.More() {
		return malformed("request body must contain a single JSON object")
	}
	return nil
}

// PlanParams are the query parameters shared by the plan endpoints.
type PlanParams struct {
	Budget   float64
	Strategy core.Strategy
	Cascade  bool
}

// ParsePlanParams reads budget (required), strategy (default avalanche)
// and cascade (default false).
func ParsePlanParams(q url.Values) (PlanParams, error) {
	p := PlanParams{Strategy: core.Avalanche}

	raw := strings.TrimSpace(q.Get("budget"))
	if raw == "" {
		return p, invalid(core.ErrInvalidBudget, "budget is required")
	}
	budget, err := core.ParseAmount(raw)
	if err != nil {
		return p, invalid(core.ErrInvalidBudget, "invalid budget %q", raw)
	}
	p.Budget = budget

	if s := strings.TrimSpace(q.Get("strategy")); s != "" {
		st, err := core.ParseStrategy(s)
		if err != nil {
			return p, invalid(err, "unknown strategy %q", s)
		}
		p.Strategy = st
	}

	cascade, err := ParseBoolParam(q, "cascade")
	if err != nil {
		return p, err
	}
	p.Cascade = cascade
	return p, nil
}

// ParseBoolParam reads an optional boolean query parameter.
func ParseBoolParam(q url.Values, key string) (bool, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, malformed("invalid %s %q", key, v)
	}
	return b, nil
}

// ParseIDPath reads a positive integer path value.
func ParseIDPath(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, malformed("invalid %s %q", name, raw)
	}
	return id, nil
}

// sanitizeInput removes control characters other than tab and newlines
// and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
