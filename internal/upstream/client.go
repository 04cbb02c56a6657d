package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TemirB/bazar/internal/domain"
)

const maxBody = 4 << 20

// Response is a fully read upstream reply, kept raw so it can be passed through.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
	Addr        string
}

func (r *Response) OK() bool { return r.Status == http.StatusOK }

// Client performs single-attempt calls against replica base addresses. A
// transport failure is reported as domain.ErrUpstreamUnavailable; any HTTP
// status, including 5xx, is a successful round trip.
type Client struct {
	http *http.Client
}

func New(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

func NewWithHTTP(c *http.Client) *Client {
	return &Client{http: c}
}

func (c *Client) Get(ctx context.Context, base, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, base, path, nil)
}

func (c *Client) Post(ctx context.Context, base, path string, header http.Header) (*Response, error) {
	return c.Do(ctx, http.MethodPost, base, path, header)
}

func (c *Client) Do(ctx context.Context, method, base, path string, header http.Header) (*Response, error) {
	url := base + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, url, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrUpstreamUnavailable, method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrUpstreamUnavailable, url, err)
	}
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Addr:        base,
	}, nil
}
