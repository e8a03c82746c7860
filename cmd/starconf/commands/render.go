package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/starconf/starconf/pkg/manager"
	"github.com/starconf/starconf/pkg/script"
)

// renderDescriptors prints one line per attempted file, with caret-style
// diagnostics under static failures. Presentation is deliberately the CLI's
// job: the core only produces descriptors.
func renderDescriptors(w io.Writer, descriptors []manager.Descriptor, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(descriptors)
	}

	for _, d := range descriptors {
		switch {
		case !d.Exists:
			fmt.Fprintf(w, "  - %s (absent)\n", d.Name)
		case d.Loaded:
			fmt.Fprintf(w, "  ✓ %s\n", d.Name)
		case len(d.Errors) > 0:
			fmt.Fprintf(w, "  ✗ %s (%d diagnostics)\n", d.Name, len(d.Errors))
			for _, diag := range d.Errors {
				renderDiagnostic(w, diag)
			}
		default:
			fmt.Fprintf(w, "  ✗ %s (execution failed)\n", d.Name)
			fmt.Fprintf(w, "      %s\n", d.Exception)
		}
	}
	return nil
}

// renderDiagnostic prints a diagnostic with the offending source line and a
// caret under the reported column.
func renderDiagnostic(w io.Writer, d script.Diagnostic) {
	fmt.Fprintf(w, "      %s:%d:%d: %s: %s\n", d.File, d.Line, d.Column, d.Severity, d.Message)
	if d.Text == "" {
		return
	}
	fmt.Fprintf(w, "        %s\n", d.Text)
	fmt.Fprintf(w, "        %s^\n", caretPad(d.Text, d.Column))
}

// caretPad builds the whitespace run that aligns a caret with column col,
// preserving tabs so the caret lines up in terminals. Columns count runes,
// not bytes, matching the diagnostic positions.
func caretPad(text string, col int) string {
	pad := make([]rune, 0, col)
	for _, r := range text {
		if len(pad) >= col-1 {
			break
		}
		if r == '\t' {
			pad = append(pad, '\t')
		} else {
			pad = append(pad, ' ')
		}
	}
	return string(pad)
}

// failed reports whether any existing file did not load.
func failed(descriptors []manager.Descriptor) bool {
	for _, d := range descriptors {
		if d.Exists && !d.Loaded {
			return true
		}
	}
	return false
}
