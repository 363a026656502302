// Package observability configura el SDK de OpenTelemetry (trazas OTLP/HTTP).
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/jhoicas/inventario-ledger/pkg/config"
)

// ServiceVersion versión reportada en el recurso de las trazas.
const ServiceVersion = "1.0.0"

// SetupTracing registra el TracerProvider global y el propagador W3C.
// Sin OTEL_ENDPOINT los spans se crean pero no se exportan.
func SetupTracing(ctx context.Context, app config.AppConfig, cfg config.OTelConfig) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(app.Name),
			semconv.ServiceVersion(ServiceVersion),
			attribute.String("deployment.environment", app.Env),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("crear recurso otel: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.Endpoint != "" {
		exporterOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithURLPath(cfg.TracesPath),
		}
		if cfg.AuthHeader != "" {
			exporterOpts = append(exporterOpts, otlptracehttp.WithHeaders(map[string]string{"Authorization": cfg.AuthHeader}))
		}
		exporter, err := otlptracehttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("crear exportador OTLP: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter,
			sdktrace.WithMaxQueueSize(2048),
			sdktrace.WithBatchTimeout(5*time.Second),
		))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
	}
	return tp, shutdown, nil
}
