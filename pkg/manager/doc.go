// Package manager drives full reload passes over an ordered list of config
// scripts, owning the shared mutable state they accumulate into.
//
// A pass is fully synchronous and blocking: existence checks, static
// analysis, code generation and execution all run sequentially on the
// calling goroutine, so configuration is fully resolved before Reload
// returns. Files are applied strictly in declared order; each sees all
// mutations from earlier files in the same pass. Nothing is retried, and a
// failed file is reported and skipped, never allowed to abort the pass.
//
//	mgr, err := manager.New(manager.Options{
//	    Files:      []string{"/etc/app/base.star", "/etc/app/local.star"},
//	    SchemaPath: "/etc/app/schema.cue",
//	    Initial:    map[string]any{},
//	    OnResult: func(d manager.Descriptor) {
//	        // render d.Errors, decide whether to abort startup
//	    },
//	})
//	mgr.Reload()
//	state := mgr.State() // live; later passes mutate it in place
//
// Without a Regenerate function, successive passes compose: the second pass
// builds on whatever state survived the first. With one, every pass starts
// from a freshly computed value.
//
// Partial mutations made by a script before a run-time failure are retained.
// That is intentional, not an oversight; embedders wanting transactional
// behavior can snapshot the state around a pass.
package manager
