// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Step submissions arrive either form-encoded (HTMX) or as JSON, and both are
// funnelled into a core.StepRecord here.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stepqueen/internal/core"
)

// maxBodyBytes bounds step submissions; a record is three short fields.
const maxBodyBytes = 16 << 10

// valueSource is satisfied by url.Values and RequestBodyParser.
type valueSource interface {
	Get(key string) string
}

// ParseMonthParams extracts year and month from query parameters. Missing or
// out-of-range values fall back to the given month.
func ParseMonthParams(query url.Values, fallback core.YearMonth) core.YearMonth {
	ym := fallback

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1 && y <= 9999 {
			ym.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			ym.Month = time.Month(m)
		}
	}

	return ym
}

// ParseStepRecord builds a record from the person, date and steps fields.
// An empty date falls back to defaultDate; pass the zero Date to require one.
// The result is validated.
func ParseStepRecord(src valueSource, defaultDate core.Date) (core.StepRecord, error) {
	rec := core.StepRecord{
		Person: sanitizeInput(src.Get("person")),
		Date:   defaultDate,
	}

	if v := strings.TrimSpace(src.Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.StepRecord{}, err
		}
		rec.Date = d
	}

	steps, err := core.ParseSteps(src.Get("steps"))
	if err != nil {
		return core.StepRecord{}, err
	}
	rec.Steps = steps

	if err := rec.Validate(); err != nil {
		return core.StepRecord{}, err
	}
	return rec, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}
