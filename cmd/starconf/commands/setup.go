package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/starconf/starconf/pkg/manager"
	"github.com/starconf/starconf/pkg/telemetry"
)

// runtime bundles everything a command needs after manifest processing.
type runtime struct {
	manifest *manager.Manifest
	manager  *manager.Manager
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer
}

// setup loads the manifest and builds the manager with telemetry wired in.
// onResult may be nil.
func setup(version string, onResult manager.ResultFunc) (*runtime, error) {
	fsys := afero.NewOsFs()

	m, err := manager.LoadManifest(fsys, manifestPath)
	if err != nil {
		return nil, err
	}

	if verbose && m.Logging.Level == "" {
		m.Logging.Level = "debug"
	}
	logger, err := telemetry.NewLogger(m.Logging)
	if err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}

	metrics, err := telemetry.NewMetrics(m.Metrics)
	if err != nil {
		return nil, fmt.Errorf("configuring metrics: %w", err)
	}

	tracer, err := telemetry.NewTracer(m.Tracing, "starconf", version, "cli")
	if err != nil {
		return nil, fmt.Errorf("configuring tracer: %w", err)
	}

	opts := m.Options()
	opts.Fs = fsys
	opts.Logger = logger
	opts.Metrics = metrics
	opts.Tracer = tracer
	opts.OnResult = onResult

	mgr, err := manager.New(opts)
	if err != nil {
		return nil, err
	}

	return &runtime{
		manifest: m,
		manager:  mgr,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
	}, nil
}
