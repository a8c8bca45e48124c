// Package observability wires the metrics instrumentation surface: an
// OpenTelemetry meter provider backed by the Prometheus exporter, so the
// rest of the module records via the vendor-neutral otel API while
// operators still scrape a plain Prometheus /metrics endpoint.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the instruments the registry records against while serving
// requests and running background health checks.
type Metrics struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	healthChecks       metric.Int64Counter
	servicesRegistered metric.Int64Counter
	heartbeats         metric.Int64Counter
}

// New builds a Metrics instance with its own Prometheus registry, so tests
// and parallel instances never collide with the global default registry.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("serviceatlas")

	healthChecks, err := meter.Int64Counter(
		"serviceatlas_health_checks_total",
		metric.WithDescription("Active health probes performed, labeled by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create health_checks counter: %w", err)
	}

	servicesRegistered, err := meter.Int64Counter(
		"serviceatlas_services_registered_total",
		metric.WithDescription("Service registrations accepted"),
	)
	if err != nil {
		return nil, fmt.Errorf("create services_registered counter: %w", err)
	}

	heartbeats, err := meter.Int64Counter(
		"serviceatlas_heartbeats_total",
		metric.WithDescription("Heartbeats received from registered services"),
	)
	if err != nil {
		return nil, fmt.Errorf("create heartbeats counter: %w", err)
	}

	return &Metrics{
		registry:           reg,
		provider:           provider,
		healthChecks:       healthChecks,
		servicesRegistered: servicesRegistered,
		heartbeats:         heartbeats,
	}, nil
}

// RecordHealthCheck increments the health-check counter with the outcome
// as a label ("healthy" or "unhealthy").
func (m *Metrics) RecordHealthCheck(ctx context.Context, healthy bool) {
	outcome := "healthy"
	if !healthy {
		outcome = "unhealthy"
	}
	m.healthChecks.Add(ctx, 1, metric.WithAttributes(outcomeAttr(outcome)))
}

// RecordServiceRegistered increments the registration counter.
func (m *Metrics) RecordServiceRegistered(ctx context.Context) {
	m.servicesRegistered.Add(ctx, 1)
}

// RecordHeartbeat increments the heartbeat counter.
func (m *Metrics) RecordHeartbeat(ctx context.Context) {
	m.heartbeats.Add(ctx, 1)
}

// Handler returns the Prometheus scrape endpoint for this Metrics instance.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and releases the underlying meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

func outcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String("outcome", outcome)
}
