package script

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/starconf/starconf/pkg/schema"
)

// ConfigGlobal is the name of the implicit global binding through which
// every script reads and mutates the shared configuration state.
const ConfigGlobal = "config"

// predeclaredNames is the set of names injected into every script. The
// checker and the executor must agree on it exactly: a name resolved as
// predeclared at check time must be supplied at run time.
var predeclaredNames = map[string]bool{
	ConfigGlobal:  true,
	"exports":     true,
	"script_path": true,
	"script_dir":  true,
	"struct":      true,
}

// IsPredeclared reports whether name is injected into scripts.
func IsPredeclared(name string) bool {
	return predeclaredNames[name]
}

// fileOptions is the script dialect. Config scripts are ordinary programs,
// not build files: top-level if and for, while loops, recursion, sets and
// global reassignment are all allowed. The checker and the executor must
// apply the same options so a script accepted statically runs unchanged,
// and loaded modules get the same surface as scripts.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Checker runs static analysis on one rewritten script and, when the script
// is clean, emits its compiled unit. Diagnostics and a unit are mutually
// exclusive outcomes.
type Checker struct {
	host   *Host
	schema *schema.Schema
	logger zerolog.Logger
}

// NewChecker builds a checker over the given host.
func NewChecker(host *Host, sc *schema.Schema, logger zerolog.Logger) *Checker {
	return &Checker{
		host:   host,
		schema: sc,
		logger: logger.With().Str("component", "checker").Logger(),
	}
}

// Check parses, resolves and semantically checks the script under
// validation. Any diagnostic aborts before code generation; with zero
// diagnostics the compiled program is serialized as the CompiledUnit.
func (c *Checker) Check() (*CompiledUnit, []Diagnostic) {
	path := c.host.ScriptPath()

	src, err := c.host.GetSource(path)
	if err != nil {
		return nil, []Diagnostic{{
			File:     path,
			Line:     1,
			Column:   1,
			Message:  err.Error(),
			Severity: SeverityError,
		}}
	}

	f, prog, err := starlark.SourceProgramOptions(fileOptions, path, src, IsPredeclared)
	if f == nil {
		return nil, c.convertErrors(err, src)
	}

	diags := c.checkSemantics(f, src)
	if err != nil {
		diags = append(diags, c.convertErrors(err, src)...)
	}

	if len(diags) > 0 {
		c.logger.Debug().
			Str("script", path).
			Int("diagnostics", len(diags)).
			Msg("Static analysis rejected script")
		return nil, diags
	}

	var buf bytes.Buffer
	if err := prog.Write(&buf); err != nil {
		return nil, []Diagnostic{{
			File:     path,
			Line:     1,
			Column:   1,
			Message:  fmt.Sprintf("emitting compiled unit: %v", err),
			Severity: SeverityError,
		}}
	}

	return &CompiledUnit{
		Path: path,
		Name: CompiledName(path),
		Code: buf.Bytes(),
	}, nil
}

// convertErrors maps parser and resolver errors onto diagnostics with their
// source locations and offending line text.
func (c *Checker) convertErrors(err error, src string) []Diagnostic {
	switch e := err.(type) {
	case syntax.Error:
		return []Diagnostic{c.diag(e.Pos, e.Msg, src)}
	case *syntax.Error:
		return []Diagnostic{c.diag(e.Pos, e.Msg, src)}
	case resolve.Error:
		return []Diagnostic{c.diag(e.Pos, e.Msg, src)}
	case resolve.ErrorList:
		diags := make([]Diagnostic, 0, len(e))
		for _, re := range e {
			diags = append(diags, c.diag(re.Pos, re.Msg, src))
		}
		return diags
	default:
		return []Diagnostic{{
			File:     c.host.ScriptPath(),
			Line:     1,
			Column:   1,
			Message:  err.Error(),
			Severity: SeverityError,
		}}
	}
}

// diag builds one diagnostic at pos.
func (c *Checker) diag(pos syntax.Position, msg, src string) Diagnostic {
	line := int(pos.Line)
	col := int(pos.Col)
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	file := pos.Filename()
	if file == "" || file == "<invalid>" {
		file = c.host.ScriptPath()
	}
	return Diagnostic{
		File:     file,
		Line:     line,
		Column:   col,
		Message:  msg,
		Severity: SeverityError,
		Text:     sourceLine(src, line),
	}
}
