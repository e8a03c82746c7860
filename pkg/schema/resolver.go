package schema

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/afero"
)

// ConfigDefinition is the CUE definition looked up in the schema module.
// If the module does not declare it, the module's top-level struct is used.
const ConfigDefinition = "#Config"

// Field describes one top-level field of the configuration schema.
type Field struct {
	// Name is the field label.
	Name string `json:"name"`

	// Kind is the incomplete CUE kind of the field's type.
	Kind cue.Kind `json:"-"`

	// Type is the human-readable kind name ("string", "number", "bool", ...).
	Type string `json:"type"`

	// Optional reports whether the field may be absent.
	Optional bool `json:"optional"`

	// Default is the field's default value, if the schema declares one.
	Default any `json:"default,omitempty"`

	hasDefault bool
}

// Schema is the resolved configuration schema. It is immutable after
// resolution and identified by the absolute path of its CUE module.
type Schema struct {
	// Path is the absolute path of the schema module.
	Path string

	// Dir is the directory containing the schema module. Check-time import
	// resolution for scripts is rooted here.
	Dir string

	// Source is the raw CUE source text.
	Source string

	ctx    *cue.Context
	value  cue.Value
	fields []Field
	byName map[string]Field

	declarations string
}

// Resolve reads and compiles the schema module at path. Every failure is a
// single unrecoverable initialization error: nothing can be type-checked
// without a schema, so there is no per-file recovery from a bad one.
func Resolve(fsys afero.Fs, path string) (*Schema, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("schema path %s: %w", path, err)
	}

	ok, err := afero.Exists(fsys, abs)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", abs, err)
	}
	if !ok {
		return nil, fmt.Errorf("schema %s does not exist", abs)
	}

	src, err := afero.ReadFile(fsys, abs)
	if err != nil {
		return nil, fmt.Errorf("schema %s is not readable: %w", abs, err)
	}

	ctx := cuecontext.New()
	val := ctx.CompileString(string(src), cue.Filename(abs))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("schema %s failed to compile: %w", abs, err)
	}

	root := val
	if def := val.LookupPath(cue.ParsePath(ConfigDefinition)); def.Exists() {
		root = def
	}

	s := &Schema{
		Path:   abs,
		Dir:    filepath.Dir(abs),
		Source: string(src),
		ctx:    ctx,
		value:  root,
		byName: make(map[string]Field),
	}

	if err := s.extractFields(); err != nil {
		return nil, fmt.Errorf("schema %s: %w", abs, err)
	}
	s.declarations = s.generateDeclarations()

	return s, nil
}

// extractFields walks the top-level fields of the schema struct.
func (s *Schema) extractFields() error {
	iter, err := s.value.Fields(cue.Optional(true))
	if err != nil {
		return fmt.Errorf("not a struct: %w", err)
	}

	for iter.Next() {
		sel := iter.Selector()
		f := Field{
			Name:     selectorName(sel),
			Kind:     iter.Value().IncompleteKind(),
			Optional: iter.IsOptional(),
		}
		f.Type = KindName(f.Kind)

		if def, ok := iter.Value().Default(); ok && def.IsConcrete() {
			var v any
			if err := def.Decode(&v); err == nil {
				f.Default = v
				f.hasDefault = true
			}
		}

		s.fields = append(s.fields, f)
		s.byName[f.Name] = f
	}

	return nil
}

// Fields returns the schema's top-level fields in declaration order.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Field looks up a top-level field by name.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// ValidateState unifies a configuration state value with the schema and
// reports any violation. This is a post-hoc check; the loading pipeline
// never calls it on its own.
func (s *Schema) ValidateState(state map[string]any) error {
	val := s.ctx.Encode(state)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	unified := s.value.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("state violates schema %s: %w", s.Path, err)
	}
	return nil
}

// KindName returns the human-readable name of a CUE kind.
func KindName(k cue.Kind) string {
	switch k {
	case cue.NullKind:
		return "null"
	case cue.BoolKind:
		return "bool"
	case cue.IntKind:
		return "int"
	case cue.FloatKind:
		return "float"
	case cue.NumberKind:
		return "number"
	case cue.StringKind:
		return "string"
	case cue.BytesKind:
		return "bytes"
	case cue.ListKind:
		return "list"
	case cue.StructKind:
		return "struct"
	default:
		return "any"
	}
}

// selectorName strips optionality markers and quoting from a field selector.
func selectorName(sel cue.Selector) string {
	name := sel.String()
	name = strings.TrimSuffix(name, "?")
	name = strings.TrimSuffix(name, "!")
	if strings.HasPrefix(name, `"`) {
		if unquoted, err := strconv.Unquote(name); err == nil {
			return unquoted
		}
	}
	return name
}
