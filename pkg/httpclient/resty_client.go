package httpclient

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the httpclient interfaces.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// Download streams the response body into dest. The caller owns dest; nothing
// is written on a transport error.
func (r *RestyClient) Download(ctx context.Context, url string, headers map[string]string, dest io.Writer) (int, int64, error) {
	req := r.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(url)
	if err != nil {
		return 0, 0, err
	}
	raw := resp.RawBody()
	if raw == nil {
		return resp.StatusCode(), 0, fmt.Errorf("response has no body")
	}
	defer raw.Close()

	if resp.StatusCode() != 200 {
		// Drain a bounded snippet so the caller can report something useful.
		snippet, _ := io.ReadAll(io.LimitReader(raw, 512))
		return resp.StatusCode(), 0, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	n, err := io.Copy(dest, raw)
	if err != nil {
		return resp.StatusCode(), n, fmt.Errorf("copy response body: %w", err)
	}
	return resp.StatusCode(), n, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
