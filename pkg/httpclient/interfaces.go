package httpclient

import (
	"context"
	"io"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Downloader streams a remote resource into dest without buffering it in memory.
// It returns the HTTP status code and the number of bytes written.
type Downloader interface {
	Download(ctx context.Context, url string, headers map[string]string, dest io.Writer) (int, int64, error)
}
