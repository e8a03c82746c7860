package script

import (
	"reflect"
	"testing"

	"go.starlark.net/starlark"
)

func TestState_ResetKeepsIdentity(t *testing.T) {
	st := newTestState(t, map[string]any{"port": 80, "debug": true})

	if err := st.SetField("name", starlark.String("app")); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	if err := st.Reset(map[string]any{"port": 8080}); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := map[string]any{"port": int64(8080)}
	if !reflect.DeepEqual(snap, want) {
		t.Errorf("snapshot after reset = %v, want %v", snap, want)
	}
}

func TestState_AttrAndSetField(t *testing.T) {
	st := newTestState(t, map[string]any{"port": 80})

	v, err := st.Attr("port")
	if err != nil {
		t.Fatalf("Attr failed: %v", err)
	}
	iv, ok := v.(starlark.Int)
	if !ok {
		t.Fatalf("Attr(port) = %T, want starlark.Int", v)
	}
	if n, _ := iv.Int64(); n != 80 {
		t.Errorf("Attr(port) = %v, want 80", iv)
	}

	if _, err := st.Attr("absent"); err == nil {
		t.Error("expected NoSuchAttrError for absent field")
	} else if _, ok := err.(starlark.NoSuchAttrError); !ok {
		t.Errorf("expected NoSuchAttrError, got %T", err)
	}

	if err := st.SetField("debug", starlark.True); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	names := st.AttrNames()
	want := []string{"debug", "port"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("AttrNames() = %v, want %v", names, want)
	}
}

func TestState_SnapshotIsDetached(t *testing.T) {
	st := newTestState(t, map[string]any{"hosts": []any{"a"}})

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	snap["hosts"] = []any{"mutated"}
	snap["extra"] = 1

	again, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := map[string]any{"hosts": []any{"a"}}
	if !reflect.DeepEqual(again, want) {
		t.Errorf("state changed through snapshot: %v", again)
	}
}

func TestState_Conversions(t *testing.T) {
	initial := map[string]any{
		"str":    "value",
		"int":    42,
		"float":  1.5,
		"bool":   true,
		"null":   nil,
		"list":   []any{int64(1), "two"},
		"nested": map[string]any{"inner": int64(3)},
	}
	st := newTestState(t, initial)

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	want := map[string]any{
		"str":    "value",
		"int":    int64(42),
		"float":  1.5,
		"bool":   true,
		"null":   nil,
		"list":   []any{int64(1), "two"},
		"nested": map[string]any{"inner": int64(3)},
	}
	if !reflect.DeepEqual(snap, want) {
		t.Errorf("snapshot = %#v, want %#v", snap, want)
	}
}

func TestState_StarlarkValue(t *testing.T) {
	st := newTestState(t, map[string]any{"port": 80})

	if st.Type() != "config" {
		t.Errorf("Type() = %s, want config", st.Type())
	}
	if !bool(st.Truth()) {
		t.Error("non-empty state must be truthy")
	}
	if _, err := st.Hash(); err == nil {
		t.Error("state must be unhashable")
	}

	empty := newTestState(t, nil)
	if bool(empty.Truth()) {
		t.Error("empty state must be falsy")
	}
}
