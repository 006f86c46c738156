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
	"time"

	"yield/internal/core"
)

const maxBodyBytes = 64 << 10

// errBadRequest marks malformed requests, as opposed to invalid field values.
var errBadRequest = errors.New("bad request")

// parseYear reads ?year=, defaulting to the current year.
func parseYear(q url.Values, now time.Time) (int, error) {
	v := strings.TrimSpace(q.Get("year"))
	if v == "" {
		return now.Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 1 || y > 9999 {
		return 0, core.NewValidationError("year", "year must be a number between 1 and 9999", err)
	}
	return y, nil
}

// parseMonth reads ?month= as 1-12; empty means unset.
func parseMonth(q url.Values) (int, error) {
	v := strings.TrimSpace(q.Get("month"))
	if v == "" {
		return 0, nil
	}
	m, err := strconv.Atoi(v)
	if err != nil || m < 1 || m > core.MonthsPerYear {
		return 0, core.NewValidationError("month", "month must be between 1 and 12", err)
	}
	return m, nil
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", errBadRequest)
	}
	return nil
}

// sanitizeInput trims s and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
