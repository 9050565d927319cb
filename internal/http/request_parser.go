// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// bounded JSON body decoding and typed query parameters.

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

	"scadenze/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// decodeJSON reads exactly one JSON object from the body into dst. Unknown fields,
// trailing data and oversized bodies are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", core.ErrValidation)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body exceeds %d bytes", core.ErrValidation, maxErr.Limit)
		default:
			return fmt.Errorf("%w: malformed JSON body: %v", core.ErrValidation, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", core.ErrValidation)
	}
	return nil
}

// queryInt reads an integer query parameter, returning def when it is absent.
func queryInt(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: query parameter %s must be an integer", core.ErrValidation, key)
	}
	return n, nil
}

// queryEntryType reads the optional type parameter. Absent means every type.
func queryEntryType(query url.Values) (core.EntryType, error) {
	v := strings.TrimSpace(query.Get("type"))
	if v == "" {
		return "", nil
	}
	return core.ParseEntryType(v)
}

// ParseSeriesParams extracts year and limit for the monthly series endpoints. Both
// default to zero, which the dashboard resolves to "up to today" and its own limit.
func ParseSeriesParams(query url.Values) (core.SeriesOptions, error) {
	year, err := queryInt(query, "year", 0)
	if err != nil {
		return core.SeriesOptions{}, err
	}
	limit, err := queryInt(query, "limit", 0)
	if err != nil {
		return core.SeriesOptions{}, err
	}
	return core.SeriesOptions{Year: year, Limit: limit}, nil
}

// ParseMonthParam reads the optional month (YYYY-MM) parameter.
func ParseMonthParam(query url.Values) (string, error) {
	month := strings.TrimSpace(query.Get("month"))
	if month != "" && !core.ValidMonthKey(month) {
		return "", core.ErrInvalidMonth
	}
	return month, nil
}

// amountInput accepts an amount as either a JSON number or a JSON string, so that
// "12,34" typed by a user is accepted like 12.34.
type amountInput string

func (a *amountInput) UnmarshalJSON(b []byte) error {
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("amount must be a number or a string")
		}
		s = n.String()
	}
	*a = amountInput(s)
	return nil
}
