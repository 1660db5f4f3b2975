package rest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"chatwire/internal/config"
	"chatwire/internal/core/domain"
)

// Client talks to the collaborator REST API: message history, the
// guaranteed-delivery create-message fallback, read marks and the
// conversation list.
type Client struct {
	log     *slog.Logger
	base    string
	token   func() string
	http    *fasthttp.Client
	timeout time.Duration
}

// NewClient builds the API client. token supplies the current bearer token
// per request so a refreshed session needs no client rebuild.
func NewClient(log *slog.Logger, baseURL string, cfg config.RESTConfig, token func() string) *Client {
	return &Client{
		log:   log,
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		http: &fasthttp.Client{
			MaxConnsPerHost: cfg.MaxConnsHost,
			ReadTimeout:     cfg.Timeout,
			WriteTimeout:    cfg.Timeout,
		},
		timeout: cfg.Timeout,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	// Every endpoint is behind auth; without a session the server would
	// reject the call anyway, so fail before touching the network.
	tok := c.token()
	if tok == "" {
		return nil, domain.ErrNoActiveSession
	}

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.SetBody(body)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, code)
	}
	out := append([]byte(nil), resp.Body()...)
	return out, nil
}
