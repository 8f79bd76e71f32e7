// internal/llm/transport.go
package llm

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// pacedClient wraps http.Client with client-side request pacing. Providers
// enforce per-credential rate limits upstream; spacing our own calls keeps
// most runs from ever seeing a 429. Pacing is not retry: a limited or failed
// request still surfaces as an error for the caller's policy to handle.
type pacedClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

// defaultRequestsPerMinute is conservative enough for free-tier quotas on
// every provider the registry knows about.
const defaultRequestsPerMinute = 20

func newPacedClient(rpm int) *pacedClient {
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	return &pacedClient{
		client: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   5,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
	}
}

// Do waits for the pacing limiter, then executes the request once.
func (c *pacedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.client.Do(req.WithContext(ctx))
}

// newJSONRequest builds a POST request whose body can be re-read, so the
// same request value is safe to hand to Do more than once.
func newJSONRequest(ctx context.Context, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.Body, _ = req.GetBody()
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
