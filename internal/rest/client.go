package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenSource yields the current bearer token, or "" when signed out. The
// credential store implements this; the token is read fresh on every call so
// a re-login elsewhere takes effect on the very next request.
type TokenSource interface {
	Token() (string, error)
}

// Client issues authenticated JSON requests against the marketplace API.
type Client struct {
	base      string
	http      *http.Client
	tokens    TokenSource
	logger    *zap.Logger
	onExpired func()
}

// New creates a client for the given base URL ("https://host/api").
// onExpired runs once per authentication rejection, before the error is
// returned; the app wires it to clear credentials and force re-login.
func New(base string, tokens TokenSource, logger *zap.Logger, onExpired func()) *Client {
	return &Client{
		base:      strings.TrimRight(base, "/"),
		http:      &http.Client{},
		tokens:    tokens,
		logger:    logger,
		onExpired: onExpired,
	}
}

// Do performs method path with body (marshalled as JSON when non-nil) and
// decodes a 2xx response into out (skipped when out is nil). Errors are
// classified per the package taxonomy; on a 401 the session-expiry side
// effect has already run by the time the error is returned, and callers
// must treat the call as terminal.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	reqID := uuid.New().String()
	req.Header.Set("X-Request-Id", reqID)

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if c.logger != nil {
		c.logger.Debug("api call",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Int("status", resp.StatusCode))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if c.onExpired != nil {
			c.onExpired()
		}
		return fmt.Errorf("%s %s: %w", method, path, ErrSessionExpired)

	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &ServerError{Status: resp.StatusCode, Message: decodeServerMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeServerMessage extracts {"error": "..."} from a failure body.
// Returns "" when the body is empty or not in that shape.
func decodeServerMessage(r io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
