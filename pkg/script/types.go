package script

import (
	"strings"
)

// Severity labels attached to diagnostics.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Diagnostic is a single static-analysis finding with its source location.
// Line and Column are 1-based. Text carries the literal offending source
// line so callers can render caret-style markers without re-reading files.
type Diagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"char"`
	Message  string `json:"message"`
	Severity string `json:"type"`
	Text     string `json:"text"`
}

// CompiledUnit is the executable form of a script that passed static
// analysis. Code holds the serialized Starlark program; units are ephemeral
// and discarded after execution.
type CompiledUnit struct {
	// Path is the script the unit was compiled from.
	Path string

	// Name is the emitted unit's name: the same logical unit as the script
	// under a different generated extension.
	Name string

	// Code is the serialized program.
	Code []byte
}

// CompiledExt is the extension of emitted units.
const CompiledExt = ".starc"

// ScriptExt is the extension of config scripts.
const ScriptExt = ".star"

// CompiledName maps a script path to its emitted unit name.
func CompiledName(path string) string {
	return strings.TrimSuffix(path, ScriptExt) + CompiledExt
}

// sourceLine returns the 1-based line of src, without its line ending, or
// the empty string when the line is out of range.
func sourceLine(src string, line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[line-1], "\r")
}
