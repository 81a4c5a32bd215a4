// Package pipelinetest provides an in-memory transport for exercising
// connector flows without a network.
package pipelinetest

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"payrouter/internal/pipeline"
	"payrouter/pkg/connectors"
)

// Handler answers one outbound request.
type Handler func(req *connectors.Request) (*connectors.Response, error)

// Transport records every request it is asked to execute.
type Transport struct {
	mu       sync.Mutex
	handler  Handler
	requests []*connectors.Request
}

var _ pipeline.Transport = (*Transport)(nil)

func NewTransport(h Handler) *Transport { return &Transport{handler: h} }

func (t *Transport) Execute(_ context.Context, req *connectors.Request) (*connectors.Response, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()
	return t.handler(req)
}

// Requests returns the requests seen so far, in order.
func (t *Transport) Requests() []*connectors.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*connectors.Request(nil), t.requests...)
}

// JSON builds a response with a JSON body.
func JSON(status int, body string) *connectors.Response {
	return &connectors.Response{
		StatusCode: status,
		Headers:    http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(body),
	}
}

// NewExecutor wires an executor with a no-op logger and no metrics.
func NewExecutor(reg *connectors.Registry, t pipeline.Transport, endpoints map[string]connectors.Endpoints, opts ...pipeline.Option) *pipeline.Executor {
	return pipeline.NewExecutor(reg, t, endpoints, zap.NewNop().Sugar(), opts...)
}
