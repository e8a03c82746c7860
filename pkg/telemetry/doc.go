// Package telemetry provides observability instrumentation for the
// configuration loader: structured logging (zerolog), tracing
// (OpenTelemetry) and metrics (Prometheus).
//
// Initialize at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	logger, err := telemetry.NewLogger(cfg.Logging)
//	metrics, err := telemetry.NewMetrics(cfg.Metrics)
//	tracer, err := telemetry.NewTracer(cfg.Tracing,
//	    cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
//	defer tracer.Shutdown(ctx)
//
// Key metrics:
//
//   - starconf_reloads_total
//   - starconf_reload_duration_seconds
//   - starconf_files_processed_total{outcome}
//   - starconf_diagnostics_total
//   - starconf_state_fields
//
// The reload pipeline itself stays synchronous; telemetry only observes it.
package telemetry
