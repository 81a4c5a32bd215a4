// pkg/middleware/tracing.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"

	"payrouter/pkg/config"
)

var (
	tracingOnce  sync.Once
	instrumented bool
)

// InitTracing installs an OTLP tracer provider when an endpoint is configured.
// The returned shutdown flushes pending spans.
func InitTracing(cfg config.Config, log *zap.SugaredLogger) func(context.Context) error {
	shutdown := func(context.Context) error { return nil }
	tracingOnce.Do(func() {
		if cfg.OTLPEndpoint == "" {
			return
		}
		opts := []otlptracehttp.Option{}
		if strings.HasPrefix(strings.ToLower(cfg.OTLPEndpoint), "http://") {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(context.Background(), opts...)
		if err != nil {
			log.Warnw("tracing exporter init failed, instrumentation disabled", "err", err)
			return
		}
		res, err := resource.New(context.Background(), resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
		if err != nil {
			log.Warnw("tracing resource init failed", "err", err)
			return
		}
		tp := trace.NewTracerProvider(trace.WithBatcher(exp), trace.WithResource(res))
		otel.SetTracerProvider(tp)
		instrumented = true
		shutdown = tp.Shutdown
	})
	return shutdown
}

// Tracing wraps handlers with otelhttp once tracing is initialized.
func Tracing(operation string) func(http.Handler) http.Handler {
	if !instrumented {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler { return otelhttp.NewHandler(next, operation) }
}
