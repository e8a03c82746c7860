package manager

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/starconf/starconf/pkg/telemetry"
)

// Manifest is the on-disk description of a configuration set: the schema
// module, the ordered script paths and the starting state. The CLI loads
// one of these; embedding applications typically construct Options directly.
type Manifest struct {
	// Schema is the path of the CUE schema module, relative to the manifest.
	Schema string `yaml:"schema" validate:"required"`

	// Files are the config script paths, in load order, relative to the
	// manifest.
	Files []string `yaml:"files" validate:"dive,required"`

	// Initial is the starting configuration state.
	Initial map[string]any `yaml:"initial"`

	// LoadRoot overrides the run-time load() root.
	LoadRoot string `yaml:"load_root"`

	// Logging configures the CLI logger.
	Logging telemetry.LoggingConfig `yaml:"logging"`

	// Metrics configures the CLI metrics endpoint.
	Metrics telemetry.MetricsConfig `yaml:"metrics"`

	// Tracing configures the CLI tracer.
	Tracing telemetry.TracingConfig `yaml:"tracing"`
}

// LoadManifest reads and validates a manifest. Relative schema and file
// paths are resolved against the manifest's directory.
func LoadManifest(fsys afero.Fs, path string) (*Manifest, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	m.Schema = resolveAgainst(base, m.Schema)
	for i, f := range m.Files {
		m.Files[i] = resolveAgainst(base, f)
	}
	if m.LoadRoot != "" {
		m.LoadRoot = resolveAgainst(base, m.LoadRoot)
	}

	return &m, nil
}

// Options converts the manifest into manager options.
func (m *Manifest) Options() Options {
	initial := m.Initial
	if initial == nil {
		initial = map[string]any{}
	}
	return Options{
		Files:      m.Files,
		SchemaPath: m.Schema,
		Initial:    initial,
		LoadRoot:   m.LoadRoot,
	}
}

func resolveAgainst(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
