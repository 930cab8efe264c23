// Package backend is the HTTP client for the food-ordering backend. Every call
// maps to one REST endpoint; none of them retries.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SessionHeader carries the customer's session token.
const SessionHeader = "token"

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

// NewClient builds a client for the backend rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: logger.WithField("component", "backend"),
	}
}

// BaseURL is the backend root, used to build image links.
func (c *Client) BaseURL() string { return c.baseURL }

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	CartData json.RawMessage `json:"cartData"`
}

type call struct {
	op     string
	method string
	path   string
	token  string
	query  url.Values
	body   any
}

func (c *Client) do(ctx context.Context, cl call) (*envelope, error) {
	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", cl.op, err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set(SessionHeader, cl.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("op", cl.op).Warn("backend request failed")
		return nil, fmt.Errorf("%s: %w: %v", cl.op, ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: read body: %v", cl.op, ErrUnreachable, err)
	}

	c.log.WithFields(logrus.Fields{
		"op":       cl.op,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("backend call")

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: %w: status %d with non-JSON body", cl.op, ErrUnreachable, resp.StatusCode)
	}
	if !env.Success {
		return &env, &RejectedError{Op: cl.op, Message: env.Message}
	}
	return &env, nil
}

func decodeData[T any](op string, raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%s: decode data: %w", op, err)
	}
	return out, nil
}
