package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"payrouter/pkg/connectors"
)

// Transport executes a built connector request.
type Transport interface {
	Execute(ctx context.Context, req *connectors.Request) (*connectors.Response, error)
}

const maxResponseBytes = 4 << 20

// HTTPTransport sends connector requests over net/http.
type HTTPTransport struct {
	client *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{client: &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}}
}

// NewHTTPTransportWithClient wraps an existing client, mainly for tests.
func NewHTTPTransportWithClient(c *http.Client) *HTTPTransport {
	return &HTTPTransport{client: c}
}

func (t *HTTPTransport) Execute(ctx context.Context, req *connectors.Request) (*connectors.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body.Bytes.Expose())
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, connectors.RequestEncodingFailed(fmt.Errorf("build http request: %w", err))
	}
	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value.Expose())
	}
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, connectors.TransportError(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, connectors.TransportError(fmt.Errorf("read body: %w", err))
	}
	return &connectors.Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: b}, nil
}
