package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Names exported by the generated declarations module.
const (
	ExportFields   = "fields"
	ExportDefaults = "defaults"
)

// Declarations returns the Starlark declarations module generated for this
// schema. Scripts that load the schema path receive this module; it exports
// the field table and a defaults constructor.
func (s *Schema) Declarations() string {
	return s.declarations
}

// HasExport reports whether the declarations module exports the given name.
func (s *Schema) HasExport(name string) bool {
	return name == ExportFields || name == ExportDefaults
}

// generateDeclarations renders the schema's Starlark-visible surface.
func (s *Schema) generateDeclarations() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Generated from %s. Do not edit.\n\n", s.Path)

	b.WriteString("fields = {\n")
	for _, f := range s.fields {
		fmt.Fprintf(&b, "    %s: %s,\n", starlarkString(f.Name), starlarkString(f.Type))
	}
	b.WriteString("}\n\n")

	b.WriteString("def defaults():\n")
	b.WriteString("    return {\n")
	for _, f := range s.fields {
		if !f.hasDefault {
			continue
		}
		fmt.Fprintf(&b, "        %s: %s,\n", starlarkString(f.Name), starlarkLiteral(f.Default))
	}
	b.WriteString("    }\n")

	return b.String()
}

// starlarkLiteral renders a Go value as Starlark literal source.
func starlarkLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return starlarkString(val)
	case int, int64, uint64:
		return fmt.Sprintf("%d", val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case []any:
		elems := make([]string, len(val))
		for i, e := range val {
			elems[i] = starlarkLiteral(e)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = starlarkString(k) + ": " + starlarkLiteral(val[k])
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	default:
		return "None"
	}
}

// starlarkString quotes a string for Starlark source. Go and Starlark share
// double-quoted string syntax for printable text.
func starlarkString(v string) string {
	return strconv.Quote(v)
}
