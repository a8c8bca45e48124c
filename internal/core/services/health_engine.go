package services

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kestrel-dev/serviceatlas/core/domain"
	"github.com/kestrel-dev/serviceatlas/core/ports"
	"github.com/kestrel-dev/serviceatlas/core/registry"
	"github.com/kestrel-dev/serviceatlas/internal/config"
)

const moduleHealthEngine = "health_engine"

var (
	_ ports.HealthEngine = (*HealthEngine)(nil)
	_ registry.Module    = (*HealthEngine)(nil)
)

// HealthEngine runs the periodic active-probe and heartbeat-timeout
// sweeps, plus an optional self-heartbeat job, as background tickers. It
// also exposes RunHealthCheckNow for the synchronous, on-demand variant.
type HealthEngine struct {
	services ports.ServiceStore
	cfg      config.RegistryConfig
	boot     config.BootstrapConfig
	client   *http.Client
	logger   *slog.Logger
	metrics  ports.MetricsRecorder

	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewHealthEngine constructs a HealthEngine.
func NewHealthEngine(services ports.ServiceStore, cfg config.RegistryConfig, boot config.BootstrapConfig, logger *slog.Logger) *HealthEngine {
	return &HealthEngine{
		services: services,
		cfg:      cfg,
		boot:     boot,
		client:   &http.Client{Timeout: cfg.HealthCheckTimeout},
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// WithMetrics attaches a metrics recorder; omitted, health checks simply
// aren't recorded.
func (h *HealthEngine) WithMetrics(m ports.MetricsRecorder) *HealthEngine {
	h.metrics = m
	return h
}

// Name identifies this module in the registry.
func (h *HealthEngine) Name() string { return moduleHealthEngine }

// Init starts the background ticker jobs.
func (h *HealthEngine) Init(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	h.wg.Add(2)
	go h.probeLoop(runCtx)
	go h.heartbeatSweepLoop(runCtx)

	if h.boot.SelfRegister {
		h.wg.Add(1)
		go h.selfHeartbeatLoop(runCtx)
	}

	go func() {
		h.wg.Wait()
		close(h.done)
	}()

	h.logger.Info("health engine started",
		slog.Duration("interval", h.cfg.HealthCheckInterval),
		slog.Duration("heartbeat_timeout", h.cfg.HeartbeatTimeout))
	return nil
}

// Health reports nil: the engine has no external dependency of its own
// beyond the Store, whose health is checked separately.
func (h *HealthEngine) Health(_ context.Context) error { return nil }

// Shutdown cancels the ticker jobs and waits for them to exit.
func (h *HealthEngine) Shutdown(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *HealthEngine) probeLoop(ctx context.Context) {
	defer h.wg.Done()
	ticker := time.NewTicker(h.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := h.RunHealthCheckNow(ctx); err != nil {
				h.logger.Error("health probe sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (h *HealthEngine) heartbeatSweepLoop(ctx context.Context) {
	defer h.wg.Done()
	ticker := time.NewTicker(h.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.sweepHeartbeatTimeouts(ctx); err != nil {
				h.logger.Error("heartbeat timeout sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (h *HealthEngine) selfHeartbeatLoop(ctx context.Context) {
	defer h.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := h.services.UpdateHeartbeat(ctx, h.boot.ServiceID); err != nil {
				h.logger.Error("self heartbeat failed", slog.String("error", err.Error()))
			}
		}
	}
}

// sweepHeartbeatTimeouts marks a service unhealthy when its last_heartbeat
// is older than the configured timeout and it isn't already unhealthy.
// Ported from original_source/app/services/health.py:check_heartbeat_timeout.
func (h *HealthEngine) sweepHeartbeatTimeouts(ctx context.Context) error {
	svcs, err := h.services.List(ctx, ports.ServiceFilter{})
	if err != nil {
		return err
	}

	deadline := time.Now().Add(-h.cfg.HeartbeatTimeout)
	for _, svc := range svcs {
		if svc.Status == domain.ServiceStatusUnhealthy {
			continue
		}
		if svc.LastHeartbeat.Before(deadline) {
			if err := h.services.UpdateStatus(ctx, svc.ID, domain.ServiceStatusUnhealthy, svc.ConsecutiveFailures); err != nil {
				h.logger.Error("mark service unhealthy on heartbeat timeout",
					slog.String("service_id", svc.ID), slog.String("error", err.Error()))
			}
		}
	}
	return nil
}

// RunHealthCheckNow actively probes every registered service's health
// endpoint and updates its status, returning an immediate summary. Shared
// by the ticker job and POST /monitor/health-check. Ported from
// original_source/app/services/health.py:check_all_services.
func (h *HealthEngine) RunHealthCheckNow(ctx context.Context) (ports.CheckSummary, error) {
	svcs, err := h.services.List(ctx, ports.ServiceFilter{})
	if err != nil {
		return ports.CheckSummary{}, err
	}

	summary := ports.CheckSummary{Timestamp: time.Now()}
	for _, svc := range svcs {
		summary.Checked++
		if h.probeOne(ctx, svc) {
			summary.Healthy++
		} else {
			summary.Unhealthy++
		}
	}
	return summary, nil
}

// probeOne issues a GET against svc's health endpoint and updates its
// status/consecutive_failures accordingly. Returns whether the service is
// now considered healthy. Ported from
// original_source/app/services/health.py:update_service_status.
func (h *HealthEngine) probeOne(ctx context.Context, svc *domain.Service) bool {
	probeCtx, cancel := context.WithTimeout(ctx, h.cfg.HealthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, svc.HealthURL(), nil)
	if err != nil {
		h.logger.Error("build health probe request",
			slog.String("service_id", svc.ID), slog.String("error", err.Error()))
		return h.recordFailure(ctx, svc)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return h.recordFailure(ctx, svc)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return h.recordFailure(ctx, svc)
	}

	if err := h.services.UpdateStatus(ctx, svc.ID, domain.ServiceStatusHealthy, 0); err != nil {
		h.logger.Error("record healthy probe",
			slog.String("service_id", svc.ID), slog.String("error", err.Error()))
	}
	if h.metrics != nil {
		h.metrics.RecordHealthCheck(ctx, true)
	}
	return true
}

// recordFailure increments the consecutive failure count and flips status
// to unhealthy once it reaches the configured threshold; below threshold
// the prior status is left as-is (a single dropped probe doesn't flap a
// healthy service).
func (h *HealthEngine) recordFailure(ctx context.Context, svc *domain.Service) bool {
	failures := svc.ConsecutiveFailures + 1
	status := svc.Status
	if failures >= h.cfg.UnhealthyThreshold {
		status = domain.ServiceStatusUnhealthy
	}

	if err := h.services.UpdateStatus(ctx, svc.ID, status, failures); err != nil {
		h.logger.Error("record failed probe",
			slog.String("service_id", svc.ID), slog.String("error", err.Error()))
	}
	healthy := status == domain.ServiceStatusHealthy
	if h.metrics != nil {
		h.metrics.RecordHealthCheck(ctx, healthy)
	}
	return healthy
}
