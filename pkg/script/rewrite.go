package script

import (
	"fmt"
	"strings"

	"github.com/starconf/starconf/pkg/schema"
)

// Placeholder is the reserved token scripts may use to reference the schema
// module path without knowing where it lives:
//
//	load("@schema", "fields", "defaults")
const Placeholder = "@schema"

// syntheticAlias is the binding name used by the synthetic schema load. The
// leading underscore keeps it out of the script's visible exports.
const syntheticAlias = "_schema_fields"

// Rewrite transforms raw script text into a checkable unit. Every occurrence
// of the placeholder token is replaced with the schema module's path; if the
// result does not reference the schema path at all, a synthetic load of the
// schema declarations is appended. Appending rather than prepending keeps the
// script's own line numbers stable for diagnostics.
//
// The implicit config global is deliberately not injected as source text: it
// is declared to the resolver as a predeclared name (see IsPredeclared) and
// bound to the live state at execution time. A predeclared binding is checked
// less precisely than a lexical one; that is the accepted cost of letting
// every script mutate configuration without an explicit import.
func Rewrite(src string, sc *schema.Schema) string {
	out := strings.ReplaceAll(src, Placeholder, sc.Path)
	if strings.Contains(out, sc.Path) {
		return out
	}
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out + fmt.Sprintf("load(%q, %s = %q)\n", sc.Path, syntheticAlias, schema.ExportFields)
}
