// Package remote implements the service ports against another instance's
// JSON API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yield/internal/core"
	"yield/internal/ports"
)

var _ ports.Backend = (*Client)(nil)

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// ErrorBody is the JSON error payload of the API.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// AddTotalValueRequest is the body of POST /api/total-values.
type AddTotalValueRequest struct {
	Date            string `json:"date"`
	TotalValueInUSD string `json:"totalValueInUSD"`
	TotalValueInBRL string `json:"totalValueInBRL"`
	Broker          string `json:"broker"`
}

// AddTotalValueResponse is the body returned by POST /api/total-values.
type AddTotalValueResponse struct {
	Msg string `json:"msg"`
}

// DeleteTotalValueResponse is the body returned by DELETE /api/total-values/{id}.
type DeleteTotalValueResponse struct {
	Message string `json:"message"`
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported remote URL scheme %q", u.Scheme)
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) ListBrokers(ctx context.Context) ([]core.Broker, error) {
	var out []core.Broker
	if err := c.do(ctx, http.MethodGet, "/api/brokers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddBroker(ctx context.Context, b core.Broker) (core.Broker, error) {
	var out core.Broker
	if err := c.do(ctx, http.MethodPost, "/api/brokers", core.Broker{Name: b.Name, Currency: b.Currency}, &out); err != nil {
		return core.Broker{}, err
	}
	return out, nil
}

func (c *Client) ListTotalValues(ctx context.Context) ([]core.TotalValueRecord, error) {
	var out []core.TotalValueRecord
	if err := c.do(ctx, http.MethodGet, "/api/total-values", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddTotalValue(ctx context.Context, rec core.TotalValueRecord) (string, error) {
	body := AddTotalValueRequest{
		Date:            rec.Date,
		TotalValueInUSD: rec.TotalValueInUSD,
		TotalValueInBRL: rec.TotalValueInBRL,
		Broker:          rec.Broker.Name,
	}
	var out AddTotalValueResponse
	if err := c.do(ctx, http.MethodPost, "/api/total-values", body, &out); err != nil {
		return "", err
	}
	return out.Msg, nil
}

func (c *Client) DeleteTotalValue(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", core.ErrMissingID
	}
	var out DeleteTotalValueResponse
	if err := c.do(ctx, http.MethodDelete, "/api/total-values/"+url.PathEscape(id), nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Ping checks the remote readiness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/readyz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(method, path string, resp *http.Response) error {
	var eb ErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &eb); err != nil || eb.Error == "" {
		eb.Error = strings.TrimSpace(string(raw))
	}
	if eb.Error == "" {
		eb.Error = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", eb.Error, core.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", eb.Error, core.ErrDuplicateBroker)
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return core.NewValidationError(eb.Field, eb.Error, nil)
	}
	return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Message: eb.Error}
}

// StatusError is an unexpected response status from the remote API.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Message)
}

// IsStatus reports whether err is a StatusError with code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
