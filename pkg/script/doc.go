// Package script implements the compile-validate-execute pipeline for
// Starlark configuration scripts.
//
// # Overview
//
// Configuration is not flat key/value data but small scripts, statically
// validated against a declared CUE schema and executed in order against one
// shared mutable state object. This package owns the per-script half of that
// pipeline; ordering and outcome reporting live in pkg/manager.
//
// # Components
//
// Host: the virtual toolchain host. It supplies source text for the script
// under validation (in-memory), the schema and standard declaration modules
// (generated), and any other import (on-disk lookup through afero), and it
// resolves load() specifiers. At check time, relative imports appearing in
// the script resolve against the schema module's directory.
//
// Rewrite: transforms raw script text into a checkable unit. The reserved
// placeholder token @schema is replaced with the schema module's path, and a
// synthetic load of the schema declarations is appended when the script does
// not already reference the schema path.
//
// Checker: parses and resolves the rewritten unit and runs a schema-aware
// semantic pass over its syntax tree. Any diagnostic aborts before code
// generation; a clean script is compiled and serialized as a CompiledUnit.
// A script either yields diagnostics or a unit, never both.
//
// Executor: runs a CompiledUnit once, injecting the module-wrapper values
// (exports stub, load implementation, script path, script directory) plus
// the live State bound to the config global. Run-time load() resolves
// against the process working directory, not the schema directory. Thrown
// errors and panics are contained, never propagated.
//
// State: the shared mutable configuration object. Scripts read and assign
// its fields through the implicit config global; partial mutations made
// before a run-time failure are retained.
//
// # Script surface
//
//	load("@schema", "fields", "defaults")
//
//	config.port = 3001
//	if config.port < 1024:
//	    config.debug = True
//
// The config global is always available without an import. Scripts are
// ordinary programs, not build files: top-level if and for, while loops,
// recursion and global reassignment are all accepted. Scripts may also load
// helper modules:
//
//	load("starconf/std", "merge", "coalesce")
//
// # Diagnostics
//
// Every static finding carries the file, 1-based line and column, message,
// severity and the literal text of the offending source line:
//
//	Diagnostic{
//	    File:     "/etc/app/port.star",
//	    Line:     3,
//	    Column:   15,
//	    Message:  `cannot assign string to config.port (schema declares number)`,
//	    Severity: "error",
//	    Text:     `config.port = "cheese"`,
//	}
//
// # Determinism
//
// The host answers every query from explicit inputs, so repeated validation
// of the same script against the same schema produces identical diagnostics.
package script
