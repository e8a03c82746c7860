package script

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/starconf/starconf/pkg/schema"
)

// StdModule is the specifier of the built-in standard declarations module.
const StdModule = "starconf/std"

// stdDeclarations is the source of the standard declarations module. It is
// served from memory like the schema declarations; scripts opt in with
// load("starconf/std", ...).
const stdDeclarations = `# starconf standard declarations.

def merge(base, overlay):
    out = dict(base)
    out.update(overlay)
    return out

def coalesce(*values):
    for v in values:
        if v != None:
            return v
    return None
`

// Host supplies source text to the checker for the three source categories:
// the script under validation (in-memory, already rewritten), the schema and
// standard declaration modules (generated), and anything else (on-disk
// lookup). All queries are deterministic: the host holds no hidden state and
// never consults the environment, so identical inputs produce identical
// diagnostics.
type Host struct {
	fs         afero.Fs
	schema     *schema.Schema
	scriptPath string
	scriptSrc  string
}

// NewHost builds a host for one validation pass over a single script.
// scriptPath must be absolute; rewritten is the script's post-rewrite text.
func NewHost(fsys afero.Fs, sc *schema.Schema, scriptPath, rewritten string) *Host {
	return &Host{
		fs:         fsys,
		schema:     sc,
		scriptPath: scriptPath,
		scriptSrc:  rewritten,
	}
}

// ScriptPath returns the path of the script under validation.
func (h *Host) ScriptPath() string {
	return h.scriptPath
}

// GetSource returns the source text for name.
func (h *Host) GetSource(name string) (string, error) {
	switch name {
	case h.scriptPath:
		return h.scriptSrc, nil
	case h.schema.Path, Placeholder:
		return h.schema.Declarations(), nil
	case StdModule:
		return stdDeclarations, nil
	}

	src, err := afero.ReadFile(h.fs, name)
	if err != nil {
		return "", fmt.Errorf("source %s not found: %w", name, err)
	}
	return string(src), nil
}

// ResolveImport resolves a load() specifier appearing in containingFile to
// an absolute location.
//
// When containingFile is the script under validation, relative specifiers
// resolve against the schema module's directory rather than the script's
// own: a script's imports resolve the same project-relative way the schema's
// would, even though the script itself may live elsewhere. This rule holds
// at check time only; run-time loading resolves against the real caller's
// working directory (see Executor).
func (h *Host) ResolveImport(specifier, containingFile string) (string, error) {
	switch specifier {
	case Placeholder:
		return h.schema.Path, nil
	case StdModule:
		return StdModule, nil
	}

	path := specifier
	if !filepath.IsAbs(path) {
		base := filepath.Dir(containingFile)
		if containingFile == h.scriptPath {
			base = h.schema.Dir
		}
		path = filepath.Join(base, path)
	}
	path = filepath.Clean(path)

	if path == h.schema.Path {
		return path, nil
	}

	ok, err := afero.Exists(h.fs, path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", specifier, err)
	}
	if !ok {
		return "", fmt.Errorf("cannot resolve module %q (looked at %s)", specifier, path)
	}
	return path, nil
}
