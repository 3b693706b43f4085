// Package device provides the request/response transport used to talk to
// one physical endpoint (a thermostat or a ceiling fan). The control loop
// only depends on the Client interface; everything here is replaceable glue.
package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client performs one blocking exchange against a single device endpoint.
// Read issues a status query, Write issues a command. Both return the
// device's status code and raw body, or a transport error.
type Client interface {
	Read(ctx context.Context) (status int, body []byte, err error)
	Write(ctx context.Context, payload []byte) (status int, body []byte, err error)
}

// DefaultTimeout bounds a single exchange so a hung device cannot stall the
// control cycle. These requests are tiny; 10s is already generous, but
// shorter values caused spurious failures on busy home networks.
const DefaultTimeout = 10 * time.Second

// HTTPClient talks JSON-over-HTTP to one device URL. Reads are GETs,
// commands are POSTs, matching both the thermostat and fan APIs.
type HTTPClient struct {
	url string
	hc  *http.Client
}

// NewHTTPClient builds a client for a single endpoint. A zero timeout
// falls back to DefaultTimeout.
func NewHTTPClient(url string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		url: url,
		hc:  &http.Client{Timeout: timeout},
	}
}

// URL returns the endpoint this client is bound to.
func (c *HTTPClient) URL() string { return c.url }

func (c *HTTPClient) Read(ctx context.Context) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build read request for %s: %w", c.url, err)
	}
	return c.do(req)
}

func (c *HTTPClient) Write(ctx context.Context, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("build write request for %s: %w", c.url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s: %w", c.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response from %s: %w", c.url, err)
	}
	return resp.StatusCode, body, nil
}
