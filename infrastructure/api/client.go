// Package api talks to the remote voting API over JSON/HTTP. It implements
// the repository interfaces of domain/services.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/resty.v1"

	"github.com/CedricFinance/partyvote/domain/services"
)

const requestIDHeader = "X-Request-ID"

type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// New creates a client for the API at baseURL. A zero timeout disables the
// per-request timeout; callers are expected to bound requests with ctx then.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	h := resty.New().
		SetHostURL(baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if timeout > 0 {
		h.SetTimeout(timeout)
	}

	return &Client{http: h, logger: logger.With("component", "api")}
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	UserId  string `json:"user_id,omitempty"`
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(path)
	return c.decode(http.MethodGet, path, resp, err, out)
}

func (c *Client) post(ctx context.Context, path string, requestId string, body interface{}, out interface{}) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if requestId != "" {
		req.SetHeader(requestIDHeader, requestId)
	}
	resp, err := req.Post(path)
	return c.decode(http.MethodPost, path, resp, err, out)
}

func (c *Client) decode(method string, path string, resp *resty.Response, err error, out interface{}) error {
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return errors.Wrapf(err, "%s %s", method, path)
	}

	c.logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode(),
		"duration_ms", resp.Time().Milliseconds(),
	)

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return services.StatusError{Method: method, Path: path, Code: resp.StatusCode()}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}

	return nil
}

var (
	_ services.VoteRepository    = (*Client)(nil)
	_ services.AccountRepository = (*Client)(nil)
	_ services.ReferenceData     = (*Client)(nil)
	_ services.Greeter           = (*Client)(nil)
)
