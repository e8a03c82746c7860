package script

import (
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"
)

// State is the single shared mutable configuration object. It is created
// once, bound to the config global of every executed script, and mutated in
// place; callers holding the pointer observe mutations without re-fetching.
//
// State is a Starlark value with mutable fields. It deliberately ignores
// freezing: the whole point of the object is to accumulate mutations across
// sequentially executed scripts. The pipeline is single-threaded, so the
// usual data-race rationale for freezing does not apply.
type State struct {
	entries map[string]starlark.Value
	keys    []string
}

// NewState builds a state from an initial Go value.
func NewState(initial map[string]any) (*State, error) {
	s := &State{entries: make(map[string]starlark.Value)}
	if err := s.Reset(initial); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards all fields and repopulates the state from initial. The
// receiver keeps its identity: references held by callers stay valid.
func (s *State) Reset(initial map[string]any) error {
	s.entries = make(map[string]starlark.Value, len(initial))
	s.keys = s.keys[:0]

	names := make([]string, 0, len(initial))
	for name := range initial {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		val, err := toStarlark(initial[name])
		if err != nil {
			return fmt.Errorf("initial value for %s: %w", name, err)
		}
		s.set(name, val)
	}
	return nil
}

// Snapshot converts the current state to a plain Go value. Mutating the
// snapshot does not affect the state.
func (s *State) Snapshot() (map[string]any, error) {
	out := make(map[string]any, len(s.keys))
	for _, name := range s.keys {
		v, err := fromStarlark(s.entries[name])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func (s *State) set(name string, v starlark.Value) {
	if _, exists := s.entries[name]; !exists {
		s.keys = append(s.keys, name)
	}
	s.entries[name] = v
}

// Attr implements starlark.HasAttrs.
func (s *State) Attr(name string) (starlark.Value, error) {
	if v, ok := s.entries[name]; ok {
		return v, nil
	}
	return nil, starlark.NoSuchAttrError(fmt.Sprintf("config has no field %q", name))
}

// AttrNames implements starlark.HasAttrs.
func (s *State) AttrNames() []string {
	names := make([]string, len(s.keys))
	copy(names, s.keys)
	sort.Strings(names)
	return names
}

// SetField implements starlark.HasSetField. Fields may be set freely; the
// checker has already rejected statically detectable schema violations, and
// run-time values are type-erased by design.
func (s *State) SetField(name string, val starlark.Value) error {
	s.set(name, val)
	return nil
}

// String implements starlark.Value.
func (s *State) String() string {
	var b strings.Builder
	b.WriteString("config(")
	for i, name := range s.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = %s", name, s.entries[name].String())
	}
	b.WriteString(")")
	return b.String()
}

// Type implements starlark.Value.
func (s *State) Type() string { return "config" }

// Freeze implements starlark.Value. It is a no-op: see the type comment.
func (s *State) Freeze() {}

// Truth implements starlark.Value.
func (s *State) Truth() starlark.Bool { return len(s.keys) > 0 }

// Hash implements starlark.Value.
func (s *State) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: config")
}
