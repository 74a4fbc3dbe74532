// Package http provides the HTTP server and handlers of the cash-flow sheet.
//
// This file holds the request parsing helpers shared by the handlers: the
// year/month selection read by every view and the cell edit body, which
// may arrive form-encoded or as JSON.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxBodyBytes bounds cell edit bodies; a cell address plus an amount is tiny.
const maxBodyBytes = 16 << 10

// Selection is the period a view is computed for.
type Selection struct {
	Year  int
	Month time.Month
}

// Prev returns the previous month.
func (s Selection) Prev() Selection {
	if s.Month == time.January {
		return Selection{Year: s.Year - 1, Month: time.December}
	}
	return Selection{Year: s.Year, Month: s.Month - 1}
}

// Next returns the following month.
func (s Selection) Next() Selection {
	if s.Month == time.December {
		return Selection{Year: s.Year + 1, Month: time.January}
	}
	return Selection{Year: s.Year, Month: s.Month + 1}
}

// ParseSelection extracts year and month from query parameters. Missing or
// invalid values fall back to the current year and month.
func ParseSelection(query url.Values, now time.Time) Selection {
	return Selection{
		Year:  ParseYear(query, now),
		Month: parseMonth(query.Get("month"), now.Month()),
	}
}

// ParseYear extracts the year query parameter, defaulting to now's year.
func ParseYear(query url.Values, now time.Time) int {
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1 && y <= 9999 {
			return y
		}
	}
	return now.Year()
}

func parseMonth(v string, fallback time.Month) time.Month {
	m, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || m < 1 || m > 12 {
		return fallback
	}
	return time.Month(m)
}

// CellInput is one cell edit as submitted by the client. Amount is raw
// user input; coercion happens in the service.
type CellInput struct {
	Date     string
	Category string
	Amount   string

	// JSON is set when the body was a JSON document.
	JSON bool
}

// ErrMissingField is returned when a required cell field is absent.
var ErrMissingField = errors.New("missing field")

// ParseCellInput reads a cell edit from a JSON or form-encoded body.
func ParseCellInput(r *http.Request) (CellInput, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return CellInput{}, err
	}
	in := CellInput{
		Date:     p.Get("date"),
		Category: p.Get("category"),
		Amount:   p.Get("amount"),
		JSON:     p.IsJSON(),
	}
	if in.Date == "" {
		return in, &fieldError{field: "date"}
	}
	if in.Category == "" {
		return in, &fieldError{field: "category"}
	}
	return in, nil
}

type fieldError struct{ field string }

func (e *fieldError) Error() string { return ErrMissingField.Error() + ": " + e.field }
func (e *fieldError) Unwrap() error { return ErrMissingField }

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
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
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
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

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string. Numbers arrive as
// json.Number so amounts keep their exact decimal text.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *ResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *ResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// wantsHTML reports whether the client is a browser form submission that
// should be redirected back to the sheet instead of receiving JSON.
func wantsHTML(r *http.Request, in CellInput) bool {
	return !in.JSON && strings.Contains(r.Header.Get("Accept"), "text/html")
}
