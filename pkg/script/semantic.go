package script

import (
	"fmt"

	"cuelang.org/go/cue"
	"go.starlark.net/syntax"

	"github.com/starconf/starconf/pkg/schema"
)

// checkSemantics walks the script's syntax tree and checks its use of the
// config global and its load() statements against the schema and the host.
//
// Only what is statically determinable is checked: a literal assigned to a
// declared field must match the field's kind, and a directly named field
// must exist in the schema. Computed values pass unchecked; the schema can
// still be enforced post hoc through schema.ValidateState.
func (c *Checker) checkSemantics(f *syntax.File, src string) []Diagnostic {
	var diags []Diagnostic
	add := func(pos syntax.Position, format string, args ...any) {
		diags = append(diags, c.diag(pos, fmt.Sprintf(format, args...), src))
	}

	syntax.Walk(f, func(n syntax.Node) bool {
		switch node := n.(type) {
		case nil:
			return true
		case *syntax.LoadStmt:
			c.checkLoad(node, add)
			return false
		case *syntax.DotExpr:
			if ident, ok := node.X.(*syntax.Ident); ok && ident.Name == ConfigGlobal {
				if _, found := c.schema.Field(node.Name.Name); !found {
					add(node.Name.NamePos, "config has no field %q declared in the schema", node.Name.Name)
				}
			}
		case *syntax.AssignStmt:
			c.checkAssign(node, add)
		}
		return true
	})

	return diags
}

// checkLoad resolves a load() specifier through the host and, when the
// target is the schema module, verifies the requested symbols exist in the
// generated declarations.
func (c *Checker) checkLoad(stmt *syntax.LoadStmt, add func(syntax.Position, string, ...any)) {
	mod, ok := stmt.Module.Value.(string)
	if !ok {
		return
	}

	resolved, err := c.host.ResolveImport(mod, c.host.ScriptPath())
	if err != nil {
		add(stmt.Module.TokenPos, "%s", err.Error())
		return
	}

	if resolved != c.schema.Path {
		return
	}
	for _, from := range stmt.From {
		if !c.schema.HasExport(from.Name) {
			add(from.NamePos, "schema declarations export no symbol %q", from.Name)
		}
	}
}

// checkAssign checks a plain assignment of a literal to a declared config
// field against the field's CUE kind. Unknown fields are reported by the
// DotExpr case of the walk; augmented assignments and computed right-hand
// sides are out of static reach.
func (c *Checker) checkAssign(stmt *syntax.AssignStmt, add func(syntax.Position, string, ...any)) {
	if stmt.Op != syntax.EQ {
		return
	}
	dot, ok := stmt.LHS.(*syntax.DotExpr)
	if !ok {
		return
	}
	ident, ok := dot.X.(*syntax.Ident)
	if !ok || ident.Name != ConfigGlobal {
		return
	}
	field, found := c.schema.Field(dot.Name.Name)
	if !found {
		return
	}

	kind := literalKind(stmt.RHS)
	if kind == 0 || kind&field.Kind != 0 {
		return
	}

	pos, _ := stmt.RHS.Span()
	add(pos, "cannot assign %s to config.%s (schema declares %s)",
		schema.KindName(kind), field.Name, field.Type)
}

// literalKind maps a literal expression onto a CUE kind, or 0 when the
// expression's type is not statically determinable.
func literalKind(e syntax.Expr) cue.Kind {
	switch expr := e.(type) {
	case *syntax.Literal:
		switch expr.Token {
		case syntax.STRING:
			return cue.StringKind
		case syntax.INT:
			return cue.IntKind
		case syntax.FLOAT:
			return cue.FloatKind
		case syntax.BYTES:
			return cue.BytesKind
		}
	case *syntax.Ident:
		switch expr.Name {
		case "True", "False":
			return cue.BoolKind
		case "None":
			return cue.NullKind
		}
	case *syntax.ListExpr:
		return cue.ListKind
	case *syntax.DictExpr:
		return cue.StructKind
	case *syntax.UnaryExpr:
		if expr.Op == syntax.MINUS || expr.Op == syntax.PLUS {
			if k := literalKind(expr.X); k&cue.NumberKind != 0 {
				return k
			}
		}
	}
	return 0
}
