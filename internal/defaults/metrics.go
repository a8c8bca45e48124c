package defaults

import (
	"context"

	"github.com/kestrel-dev/serviceatlas/core/registry"
	"github.com/kestrel-dev/serviceatlas/internal/observability"
)

const moduleMetricsExporter = "metrics_exporter"

var _ registry.Module = (*metricsModule)(nil)

// metricsModule owns the lifecycle of the Prometheus-backed meter
// provider: nothing to start, but Shutdown must flush it.
type metricsModule struct {
	metrics *observability.Metrics
}

func newMetricsModule(m *observability.Metrics) *metricsModule {
	return &metricsModule{metrics: m}
}

func (m *metricsModule) Name() string                   { return moduleMetricsExporter }
func (m *metricsModule) Init(_ context.Context) error   { return nil }
func (m *metricsModule) Health(_ context.Context) error { return nil }

func (m *metricsModule) Shutdown(ctx context.Context) error {
	return m.metrics.Shutdown(ctx)
}
