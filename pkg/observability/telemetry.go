package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// TelemetryOptions describes the service the metrics belong to
type TelemetryOptions struct {
	ServiceName string
	Environment string
	// RuntimeMetrics adds the Go runtime and process collectors
	RuntimeMetrics bool
}

// Telemetry pairs the OpenTelemetry meter provider with the Prometheus
// registry it exports to. Nothing is registered on the global registry.
type Telemetry struct {
	provider *metric.MeterProvider
	registry *prometheus.Registry
}

// NewTelemetry builds the meter provider and installs it as the global one
func NewTelemetry(opts TelemetryOptions) (*Telemetry, error) {
	registry := prometheus.NewRegistry()

	if opts.RuntimeMetrics {
		if err := registry.Register(collectors.NewGoCollector()); err != nil {
			return nil, fmt.Errorf("failed to register go collector: %w", err)
		}
		if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, fmt.Errorf("failed to register process collector: %w", err)
		}
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	attrs := []attribute.KeyValue{attribute.String("service.name", opts.ServiceName)}
	if opts.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", opts.Environment))
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(resource.NewSchemaless(attrs...)),
	)
	otel.SetMeterProvider(provider)

	return &Telemetry{provider: provider, registry: registry}, nil
}

func (t *Telemetry) MeterProvider() *metric.MeterProvider {
	return t.provider
}

// Handler serves the registry in the Prometheus text format
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{Registry: t.registry})
}

// Shutdown flushes and stops the meter provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
