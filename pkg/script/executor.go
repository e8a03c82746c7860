package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/starconf/starconf/pkg/schema"
)

// Executor runs compiled units against the shared state. Each unit is
// executed exactly once, as a fresh program initialization with the injected
// values of the module-wrapper shape: an exports stub, a load implementation,
// the script's path and directory, and the state bound to the config global.
//
// Run-time load() resolves relative specifiers against the executor's root,
// which defaults to the process working directory. This is a deliberate
// asymmetry with check-time resolution (rooted at the schema's directory):
// at run time, genuine imports must resolve relative to the real caller.
// The two rules are distinct contracts; do not unify them.
type Executor struct {
	fs     afero.Fs
	schema *schema.Schema
	root   string
	logger zerolog.Logger
}

// NewExecutor builds an executor. root may be empty, in which case the
// process working directory is captured once.
func NewExecutor(fsys afero.Fs, sc *schema.Schema, root string, logger zerolog.Logger) *Executor {
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = wd
		} else {
			root = "."
		}
	}
	return &Executor{
		fs:     fsys,
		schema: sc,
		root:   root,
		logger: logger.With().Str("component", "executor").Logger(),
	}
}

// Pass scopes module loading for one reload pass: a module brought in
// through load() is resolved and executed once within the pass, no matter
// how many units load it. Every unit of a pass must run through the same
// Pass value.
type Pass struct {
	executor *Executor
	load     func(*starlark.Thread, string) (starlark.StringDict, error)
}

// NewPass begins a pass with an empty module cache.
func (e *Executor) NewPass() *Pass {
	return &Pass{executor: e, load: e.newLoader()}
}

// Execute runs a single unit in a pass of its own.
func (e *Executor) Execute(unit *CompiledUnit, st *State) error {
	return e.NewPass().Execute(unit, st)
}

// Execute rehydrates and runs a compiled unit with st bound to the config
// global. Any error or panic raised by the script is contained and returned;
// mutations made before the failure are retained, by design.
func (p *Pass) Execute(unit *CompiledUnit, st *State) (err error) {
	e := p.executor

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic executing %s: %v", unit.Path, r)
		}
	}()

	prog, err := starlark.CompiledProgram(bytes.NewReader(unit.Code))
	if err != nil {
		return fmt.Errorf("rehydrating %s: %w", unit.Name, err)
	}

	thread := &starlark.Thread{
		Name: unit.Path,
		Load: p.load,
		Print: func(_ *starlark.Thread, msg string) {
			e.logger.Debug().Str("script", unit.Path).Msg(msg)
		},
	}

	if _, err = prog.Init(thread, injected(st, unit.Path)); err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			e.logger.Debug().
				Str("script", unit.Path).
				Str("backtrace", evalErr.Backtrace()).
				Msg("Script execution failed")
		}
		return err
	}
	return nil
}

// injected builds the predeclared environment for one script execution. It
// must bind exactly the names the checker resolved as predeclared.
func injected(st *State, scriptPath string) starlark.StringDict {
	return starlark.StringDict{
		ConfigGlobal:  st,
		"exports":     starlark.NewDict(0),
		"script_path": starlark.String(scriptPath),
		"script_dir":  starlark.String(filepath.Dir(scriptPath)),
		"struct":      starlarkstruct.Default,
	}
}

// moduleEnv is the environment visible to modules brought in through
// load(). Modules cannot see the config state; only scripts mutate it.
var moduleEnv = starlark.StringDict{
	"struct": starlarkstruct.Default,
}

type loadEntry struct {
	globals starlark.StringDict
	err     error
}

// newLoader returns a load() implementation backing one Pass. Modules are
// memoized for the lifetime of the pass and load cycles are reported as
// errors.
func (e *Executor) newLoader() func(*starlark.Thread, string) (starlark.StringDict, error) {
	cache := make(map[string]*loadEntry)

	return func(thread *starlark.Thread, module string) (starlark.StringDict, error) {
		name, src, err := e.resolveModule(module)
		if err != nil {
			return nil, err
		}

		entry, seen := cache[name]
		if seen && entry == nil {
			return nil, fmt.Errorf("cycle in load graph at %s", name)
		}
		if seen {
			return entry.globals, entry.err
		}

		cache[name] = nil // in progress
		globals, execErr := starlark.ExecFileOptions(fileOptions, thread, name, src, moduleEnv)
		cache[name] = &loadEntry{globals: globals, err: execErr}
		return globals, execErr
	}
}

// resolveModule maps a run-time load() specifier to a module name and its
// source text. The schema and standard declarations are served from memory;
// everything else is read from disk relative to the executor's root.
func (e *Executor) resolveModule(module string) (name, src string, err error) {
	switch module {
	case Placeholder, e.schema.Path:
		return e.schema.Path, e.schema.Declarations(), nil
	case StdModule:
		return StdModule, stdDeclarations, nil
	}

	name = module
	if !filepath.IsAbs(name) {
		name = filepath.Join(e.root, name)
	}
	name = filepath.Clean(name)

	if name == e.schema.Path {
		return e.schema.Path, e.schema.Declarations(), nil
	}

	data, err := afero.ReadFile(e.fs, name)
	if err != nil {
		return "", "", fmt.Errorf("cannot load module %q: %w", module, err)
	}
	return name, string(data), nil
}
