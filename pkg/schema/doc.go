// Package schema resolves the CUE module that declares the configuration's
// structural type.
//
// The schema module is resolved exactly once, before any config script is
// processed. An unreadable or uncompilable schema is a fatal initialization
// error: no script can be validated without it. After resolution the schema
// is immutable and identified by its absolute path.
//
// A resolved schema exposes three things to the rest of the pipeline:
//
//   - per-field CUE kinds, consumed by the static checker to reject scripts
//     that assign mistyped literals to declared fields
//   - a generated Starlark declarations module (see Declarations), which is
//     what a script observes when it loads the schema path
//   - ValidateState, a post-hoc unification of accumulated state with the
//     schema for callers that want a final conformance check
//
// The schema's type is taken from the #Config definition if the module
// declares one, otherwise from the module's top-level struct:
//
//	#Config: {
//		port?:  number
//		debug?: bool
//		name:   string | *"starconf"
//	}
package schema
