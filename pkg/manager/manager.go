package manager

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/starconf/starconf/pkg/schema"
	"github.com/starconf/starconf/pkg/script"
	"github.com/starconf/starconf/pkg/telemetry"
)

var validate = validator.New()

// Descriptor is the outcome of attempting to load one config file. Exactly
// one descriptor is produced per declared path per reload pass, in path
// order. Descriptors are ephemeral; the manager retains none of them.
//
// The three failure outcomes are mutually exclusive: absence (Exists false,
// Errors empty), static-validation failure (Errors non-empty, the file never
// executed), and dynamic failure (Exception set, Errors empty).
type Descriptor struct {
	Name      string              `json:"name"`
	Exists    bool                `json:"exists"`
	Loaded    bool                `json:"loaded"`
	Errors    []script.Diagnostic `json:"errors"`
	Exception string              `json:"exception,omitempty"`
}

// ResultFunc receives one descriptor per attempted file per reload pass.
// Rendering diagnostics for humans and deciding whether a failure is fatal
// belong entirely to this callback; the manager never terminates the
// process.
type ResultFunc func(Descriptor)

// Options configures a Manager. Exactly one of Initial and Regenerate is
// required; to start from an empty configuration, pass an empty non-nil
// Initial map.
type Options struct {
	// Files is the ordered list of config script paths. Missing files are
	// expected and non-fatal: config files are optional overlays.
	Files []string `validate:"dive,required"`

	// SchemaPath locates the CUE schema module.
	SchemaPath string `validate:"required"`

	// Initial is the starting configuration state.
	Initial map[string]any

	// Regenerate, when set, recomputes the starting state at the beginning
	// of every reload pass, discarding prior mutations.
	Regenerate func() map[string]any

	// OnResult, when set, receives every descriptor as it is produced.
	OnResult ResultFunc

	// LoadRoot overrides the root for run-time load() resolution. Empty
	// means the process working directory.
	LoadRoot string

	// Fs is the filesystem used for all reads and existence checks.
	// Defaults to the OS filesystem.
	Fs afero.Fs

	Logger  zerolog.Logger
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer
}

// Manager owns the ordered file list and the shared mutable state, and
// drives full reload passes over them.
//
// Reload is not reentrant: the shared state is mutated without locking, so
// concurrent callers must serialize (see Watcher for a packaged way).
type Manager struct {
	files      []string
	schema     *schema.Schema
	state      *script.State
	regenerate func() map[string]any
	onResult   ResultFunc

	fs       afero.Fs
	executor *script.Executor
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer
}

// New validates the options, resolves the schema and creates the shared
// state. An unresolvable schema is the single fatal, unrecoverable
// condition: nothing can be type-checked without it.
func New(opts Options) (*Manager, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, newInitError(ErrCodeOptions, "invalid options", err)
	}
	if (opts.Initial == nil) == (opts.Regenerate == nil) {
		return nil, newInitError(ErrCodeOptions,
			"exactly one of Initial and Regenerate is required", nil)
	}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	sc, err := schema.Resolve(fsys, opts.SchemaPath)
	if err != nil {
		return nil, newInitError(ErrCodeSchema, "cannot resolve schema", err)
	}

	initial := opts.Initial
	if opts.Regenerate != nil {
		initial = opts.Regenerate()
	}
	state, err := script.NewState(initial)
	if err != nil {
		return nil, newInitError(ErrCodeState, "cannot build initial state", err)
	}

	return &Manager{
		files:      append([]string(nil), opts.Files...),
		schema:     sc,
		state:      state,
		regenerate: opts.Regenerate,
		onResult:   opts.OnResult,
		fs:         fsys,
		executor:   script.NewExecutor(fsys, sc, opts.LoadRoot, opts.Logger),
		logger:     opts.Logger.With().Str("component", "manager").Logger(),
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
	}, nil
}

// State returns the live configuration state. Callers holding the reference
// observe in-place mutations from every subsequent reload pass.
func (m *Manager) State() *script.State {
	return m.state
}

// Schema returns the resolved schema.
func (m *Manager) Schema() *schema.Schema {
	return m.schema
}

// Snapshot converts the current state to a plain Go value.
func (m *Manager) Snapshot() (map[string]any, error) {
	return m.state.Snapshot()
}

// Validate unifies the accumulated state with the schema. It is a post-hoc
// conformance check for callers that want one; Reload never performs it.
func (m *Manager) Validate() error {
	snap, err := m.state.Snapshot()
	if err != nil {
		return err
	}
	return m.schema.ValidateState(snap)
}

// Reload runs one full pass: regenerate the state if a regenerator was
// supplied, then attempt every declared file in order. The pass is fully
// synchronous and processes every file regardless of earlier outcomes;
// exactly one descriptor per path is delivered to the callback and returned.
func (m *Manager) Reload() []Descriptor {
	start := time.Now()
	passID := uuid.NewString()
	logger := m.logger.With().Str("pass_id", passID).Logger()

	ctx := context.Background()
	if m.tracer != nil {
		var span trace.Span
		ctx, span = m.tracer.Start(ctx, "config.reload", trace.WithAttributes(
			attribute.String("pass.id", passID),
			attribute.Int("files.declared", len(m.files)),
		))
		defer span.End()
	}

	logger.Info().Int("files", len(m.files)).Msg("Reloading configuration")

	if m.regenerate != nil {
		if err := m.state.Reset(m.regenerate()); err != nil {
			logger.Error().Err(err).Msg("State regeneration produced an unconvertible value")
		}
	}

	pass := m.executor.NewPass()
	descriptors := make([]Descriptor, 0, len(m.files))
	for _, path := range m.files {
		d := m.loadFile(ctx, logger, pass, path)
		descriptors = append(descriptors, d)
		if m.onResult != nil {
			m.onResult(d)
		}
	}

	if m.metrics != nil {
		m.metrics.RecordReload(time.Since(start))
		m.metrics.SetStateFields(len(m.state.AttrNames()))
	}
	logger.Info().Dur("duration", time.Since(start)).Msg("Reload pass complete")

	return descriptors
}

// Check runs static analysis over every declared file without executing
// anything or touching the state. In the returned descriptors, Loaded=true
// means the file is statically clean and would have been executed.
func (m *Manager) Check() []Descriptor {
	descriptors := make([]Descriptor, 0, len(m.files))
	for _, path := range m.files {
		d := Descriptor{Name: path, Errors: []script.Diagnostic{}}

		exists, err := afero.Exists(m.fs, path)
		if err == nil && exists {
			d.Exists = true
			if raw, readErr := afero.ReadFile(m.fs, path); readErr != nil {
				d.Exception = fmt.Sprintf("reading %s: %v", path, readErr)
			} else {
				abs, absErr := filepath.Abs(path)
				if absErr != nil {
					abs = path
				}
				host := script.NewHost(m.fs, m.schema, abs, script.Rewrite(string(raw), m.schema))
				if _, diags := script.NewChecker(host, m.schema, m.logger).Check(); len(diags) > 0 {
					d.Errors = diags
				} else {
					d.Loaded = true
				}
			}
		}

		descriptors = append(descriptors, d)
	}
	return descriptors
}

// loadFile attempts one file: existence check, rewrite, static analysis,
// execution. Any panic escaping the attempt is swallowed here so one
// catastrophic file cannot abort the remaining files in the pass.
func (m *Manager) loadFile(ctx context.Context, logger zerolog.Logger, pass *script.Pass, path string) (d Descriptor) {
	d = Descriptor{Name: path, Errors: []script.Diagnostic{}}

	defer func() {
		if r := recover(); r != nil {
			d.Loaded = false
			d.Errors = []script.Diagnostic{}
			d.Exception = fmt.Sprintf("%v", r)
			logger.Error().Str("file", path).Msg("Unexpected failure while loading config file")
		}
		m.recordOutcome(d)
	}()

	if m.tracer != nil {
		var span trace.Span
		_, span = m.tracer.Start(ctx, "config.file",
			trace.WithAttributes(attribute.String("file.path", path)))
		defer span.End()
	}

	exists, err := afero.Exists(m.fs, path)
	if err != nil || !exists {
		return d
	}
	d.Exists = true

	raw, err := afero.ReadFile(m.fs, path)
	if err != nil {
		d.Exception = fmt.Sprintf("reading %s: %v", path, err)
		return d
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	rewritten := script.Rewrite(string(raw), m.schema)
	host := script.NewHost(m.fs, m.schema, abs, rewritten)
	checker := script.NewChecker(host, m.schema, m.logger)

	unit, diags := checker.Check()
	if len(diags) > 0 {
		d.Errors = diags
		logger.Warn().Str("file", path).Int("diagnostics", len(diags)).Msg("Static validation failed")
		return d
	}

	if err := pass.Execute(unit, m.state); err != nil {
		d.Exception = err.Error()
		logger.Warn().Str("file", path).Err(err).Msg("Script execution failed")
		return d
	}

	d.Loaded = true
	logger.Debug().Str("file", path).Msg("Config file loaded")
	return d
}

// recordOutcome maps a descriptor onto metrics.
func (m *Manager) recordOutcome(d Descriptor) {
	if m.metrics == nil {
		return
	}
	switch {
	case !d.Exists:
		m.metrics.RecordFileOutcome(telemetry.OutcomeMissing)
	case d.Loaded:
		m.metrics.RecordFileOutcome(telemetry.OutcomeLoaded)
	case len(d.Errors) > 0:
		m.metrics.RecordFileOutcome(telemetry.OutcomeStaticError)
		m.metrics.AddDiagnostics(len(d.Errors))
	default:
		m.metrics.RecordFileOutcome(telemetry.OutcomeExecError)
	}
}
