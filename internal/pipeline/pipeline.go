// Package pipeline drives connector flows end to end: optional token pretask,
// header/URL/body construction, transport and response normalization.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"payrouter/pkg/connectors"
	"payrouter/pkg/masking"
)

// Executor holds what every attempt shares. It has no per-attempt state, so
// one Executor serves concurrent attempts.
type Executor struct {
	registry  *connectors.Registry
	transport Transport
	endpoints map[string]connectors.Endpoints
	log       *zap.SugaredLogger
	metrics   *Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(*Executor)

func WithMetrics(m *Metrics) Option { return func(e *Executor) { e.metrics = m } }

func WithClock(now func() time.Time) Option { return func(e *Executor) { e.now = now } }

func NewExecutor(reg *connectors.Registry, t Transport, endpoints map[string]connectors.Endpoints, log *zap.SugaredLogger, opts ...Option) *Executor {
	e := &Executor{
		registry:  reg,
		transport: t,
		endpoints: endpoints,
		log:       log,
		tracer:    otel.Tracer("payrouter/pipeline"),
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Executor) Registry() *connectors.Registry { return e.registry }

// Execute runs flow for the envelope's connector. The returned envelope always
// carries exactly one outcome. A non-nil error means the attempt failed
// before a connector answer could be normalized; the same failure is also
// stored on the envelope as an ErrorResponse.
func Execute[Req, Resp any](ctx context.Context, e *Executor, flow connectors.Flow[Req, Resp], data *connectors.RouterData[Req, Resp]) (*connectors.RouterData[Req, Resp], error) {
	data.Flow = flow.Kind
	integration, err := connectors.Lookup(e.registry, data.Connector, flow)
	if err != nil {
		return fail(flow, data, err)
	}
	if flow.Kind != connectors.FlowAccessTokenAuth && requiresAccessToken(integration) {
		acquireAccessToken(ctx, e, data)
	}
	return run(ctx, e, flow, integration, data)
}

func run[Req, Resp any](ctx context.Context, e *Executor, flow connectors.Flow[Req, Resp], integration connectors.Integration[Req, Resp], data *connectors.RouterData[Req, Resp]) (*connectors.RouterData[Req, Resp], error) {
	start := e.now()
	ctx, span := e.tracer.Start(ctx, "connector."+string(flow.Kind), trace.WithAttributes(
		attribute.String("connector", data.Connector),
		attribute.String("flow", string(flow.Kind)),
		attribute.String("attempt_id", data.AttemptID),
	))
	defer span.End()

	statusCode := 0
	out, err := func() (*connectors.RouterData[Req, Resp], error) {
		req, err := BuildRequest(flow, integration, data, e.endpoints[data.Connector])
		if err != nil {
			return fail(flow, data, err)
		}
		e.log.Debugw("connector request",
			"connector", data.Connector, "flow", flow.Kind, "method", req.Method,
			"url", req.URL, "headers", req.MaskedHeaders())

		res, err := e.transport.Execute(ctx, req)
		if err != nil {
			if _, ok := connectors.AsConnectorError(err); !ok {
				err = connectors.TransportError(err)
			}
			return fail(flow, data, err)
		}
		statusCode = res.StatusCode
		return handle(flow, integration, data, res)
	}()

	outcome := outcomeSuccess
	switch {
	case err != nil:
		outcome = outcomePipelineError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !out.Response.Ok():
		outcome = outcomeConnectorErr
	}
	span.SetAttributes(attribute.Int("http.status_code", statusCode), attribute.String("outcome", outcome))
	elapsed := e.now().Sub(start)
	e.metrics.observe(data.Connector, string(flow.Kind), outcome, elapsed)
	fields := []any{
		"connector", data.Connector, "flow", flow.Kind, "attempt_id", data.AttemptID,
		"status_code", statusCode, "outcome", outcome, "duration_ms", elapsed.Milliseconds(),
	}
	if err != nil {
		e.log.Warnw("connector attempt", append(fields, "err", err)...)
	} else {
		e.log.Infow("connector attempt", fields...)
	}
	return out, err
}

func handle[Req, Resp any](flow connectors.Flow[Req, Resp], integration connectors.Integration[Req, Resp], data *connectors.RouterData[Req, Resp], res *connectors.Response) (*connectors.RouterData[Req, Resp], error) {
	if res.Success() {
		updated, err := integration.HandleResponse(data, res)
		if err == nil {
			if updated == nil || !updated.Response.Set() {
				return fail(flow, data, connectors.ResponseDeserializationFailed(fmt.Errorf("handler produced no outcome")))
			}
			return updated, nil
		}
		if !errors.Is(err, connectors.ErrResponseDeserializationFailed) {
			return fail(flow, data, err)
		}
		// a 2xx body that does not fit the success shape may still be a
		// connector error in disguise
		errResp, nerr := integration.ErrorResponse(res)
		if nerr != nil {
			return fail(flow, data, err)
		}
		data.Response = connectors.Failure[Resp](*errResp)
		return data, nil
	}
	errResp, err := integration.ErrorResponse(res)
	if err != nil {
		return fail(flow, data, err)
	}
	data.Response = connectors.Failure[Resp](*errResp)
	return data, nil
}

// BuildRequest runs the header, URL and body steps in order and assembles the
// outbound request. The first failing step aborts.
func BuildRequest[Req, Resp any](flow connectors.Flow[Req, Resp], integration connectors.Integration[Req, Resp], data *connectors.RouterData[Req, Resp], ep connectors.Endpoints) (*connectors.Request, error) {
	headers, err := integration.Headers(data, ep)
	if err != nil {
		return nil, err
	}
	url, err := integration.URL(data, ep)
	if err != nil {
		return nil, err
	}
	var body *connectors.RequestBody
	if flow.Method != http.MethodGet {
		payload, err := integration.RequestBody(data, ep)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			if body, err = connectors.EncodeBody(integration.ContentType(), payload); err != nil {
				return nil, err
			}
		}
	}
	all := make([]connectors.Header, 0, len(headers)+1)
	all = append(all, connectors.Header{Name: connectors.HeaderAccept, Value: masking.Normal(string(connectors.ContentTypeJSON))})
	all = append(all, headers...)
	return &connectors.Request{Method: flow.Method, URL: url, Headers: all, Body: body}, nil
}

func fail[Req, Resp any](flow connectors.Flow[Req, Resp], data *connectors.RouterData[Req, Resp], err error) (*connectors.RouterData[Req, Resp], error) {
	data.Response = connectors.Failure[Resp](connectors.AsErrorResponse(err))
	return data, fmt.Errorf("%s via %s: %w", flow.Kind, data.Connector, err)
}
