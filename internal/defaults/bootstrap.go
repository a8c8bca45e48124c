package defaults

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kestrel-dev/serviceatlas/core/ports"
	"github.com/kestrel-dev/serviceatlas/core/registry"
	"github.com/kestrel-dev/serviceatlas/internal/config"
)

const moduleBootstrap = "bootstrap"

var _ registry.Module = (*bootstrapModule)(nil)

// bootstrapModule adapts ports.Bootstrap (a plain preload/self-register API)
// into the module lifecycle: on Init it reads the preload document, if
// present, then optionally self-registers the registry's own HTTP endpoint
// as a discoverable service.
type bootstrapModule struct {
	bootstrap ports.Bootstrap
	cfg       config.BootstrapConfig
	logger    *slog.Logger
}

func newBootstrapModule(bootstrap ports.Bootstrap, cfg config.BootstrapConfig, logger *slog.Logger) *bootstrapModule {
	return &bootstrapModule{bootstrap: bootstrap, cfg: cfg, logger: logger}
}

func (m *bootstrapModule) Name() string { return moduleBootstrap }

func (m *bootstrapModule) Init(ctx context.Context) error {
	doc, err := m.loadDocument()
	if err != nil {
		return err
	}
	if doc != nil {
		if err := m.bootstrap.Preload(ctx, *doc); err != nil {
			return err
		}
	}

	if m.cfg.SelfRegister {
		if err := m.bootstrap.SelfRegister(ctx); err != nil {
			return fmt.Errorf("self-register: %w", err)
		}
	}
	return nil
}

func (m *bootstrapModule) loadDocument() (*ports.BootstrapDocument, error) {
	raw, err := os.ReadFile(m.cfg.DocumentPath)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Info("no bootstrap document found, skipping preload", "path", m.cfg.DocumentPath)
			return nil, nil
		}
		return nil, fmt.Errorf("read bootstrap document %q: %w", m.cfg.DocumentPath, err)
	}

	var doc ports.BootstrapDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse bootstrap document %q: %w", m.cfg.DocumentPath, err)
	}
	return &doc, nil
}

func (m *bootstrapModule) Health(_ context.Context) error { return nil }

func (m *bootstrapModule) Shutdown(_ context.Context) error { return nil }
