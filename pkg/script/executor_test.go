package script

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

func newTestState(t *testing.T, initial map[string]any) *State {
	t.Helper()
	st, err := NewState(initial)
	if err != nil {
		t.Fatalf("building state: %v", err)
	}
	return st
}

func compile(t *testing.T, src string) *CompiledUnit {
	t.Helper()
	fs, sc := testSchema(t)
	unit, diags := check(t, fs, sc, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return unit
}

func TestExecute_MutatesState(t *testing.T) {
	fs, sc := testSchema(t)
	unit := compile(t, "config.port = 3001\nconfig.debug = True\n")

	st := newTestState(t, nil)
	exec := NewExecutor(fs, sc, "/project", zerolog.Nop())
	if err := exec.Execute(unit, st); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap["port"] != int64(3001) {
		t.Errorf("port = %v, want 3001", snap["port"])
	}
	if snap["debug"] != true {
		t.Errorf("debug = %v, want true", snap["debug"])
	}
}

func TestExecute_ReadsExistingState(t *testing.T) {
	fs, sc := testSchema(t)
	unit := compile(t, "config.port = config.port + 1\n")

	st := newTestState(t, map[string]any{"port": 80})
	exec := NewExecutor(fs, sc, "/project", zerolog.Nop())

	// Running the same unit twice accumulates onto the same state.
	for i := 0; i < 2; i++ {
		if err := exec.Execute(unit, st); err != nil {
			t.Fatalf("Execute pass %d failed: %v", i+1, err)
		}
	}

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap["port"] != int64(82) {
		t.Errorf("port = %v, want 82", snap["port"])
	}
}

func TestExecute_FailureRetainsPartialMutations(t *testing.T) {
	fs, sc := testSchema(t)
	unit := compile(t, "config.debug = True\nconfig.port = 1 // 0\n")

	st := newTestState(t, nil)
	exec := NewExecutor(fs, sc, "/project", zerolog.Nop())

	err := exec.Execute(unit, st)
	if err == nil {
		t.Fatal("expected an execution error")
	}
	if !strings.Contains(err.Error(), "division by zero") {
		t.Errorf("unexpected error: %v", err)
	}

	// Mutations made before the failure stay visible.
	snap, snapErr := st.Snapshot()
	if snapErr != nil {
		t.Fatalf("Snapshot failed: %v", snapErr)
	}
	if snap["debug"] != true {
		t.Errorf("debug = %v, want true", snap["debug"])
	}
	if _, set := snap["port"]; set {
		t.Error("port must not be set after the failing statement")
	}
}

func TestExecute_RuntimeImportRoot(t *testing.T) {
	fs, sc := testSchema(t)

	// Check-time resolution looks in the schema directory; run-time
	// resolution looks in the executor root. Give the two locations
	// different module bodies to observe which one the runtime used.
	for path, content := range map[string]string{
		"/project/helper.star": "value = 1\n",
		"/work/helper.star":    "value = 41\n",
	} {
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	unit, diags := check(t, fs, sc, `load("helper.star", "value")`+"\nconfig.port = value + 1\n")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	st := newTestState(t, nil)
	exec := NewExecutor(fs, sc, "/work", zerolog.Nop())
	if err := exec.Execute(unit, st); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap["port"] != int64(42) {
		t.Errorf("port = %v, want 42 (resolved against executor root)", snap["port"])
	}
}

func TestExecute_SchemaDeclarationsModule(t *testing.T) {
	fs, sc := testSchema(t)
	src := `load("@schema", "fields", "defaults")` + "\n" +
		"config.name = defaults()[\"name\"]\n" +
		"config.debug = \"debug\" in fields\n"

	unit, diags := check(t, fs, sc, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	st := newTestState(t, nil)
	exec := NewExecutor(fs, sc, "/project", zerolog.Nop())
	if err := exec.Execute(unit, st); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap["name"] != "starconf" {
		t.Errorf("name = %v, want starconf (schema default)", snap["name"])
	}
	if snap["debug"] != true {
		t.Errorf("debug = %v, want true", snap["debug"])
	}
}

func TestExecute_StdModule(t *testing.T) {
	fs, sc := testSchema(t)
	src := `load("starconf/std", "coalesce")` + "\n" +
		"config.port = coalesce(None, 8080)\n"

	unit, diags := check(t, fs, sc, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	st := newTestState(t, nil)
	exec := NewExecutor(fs, sc, "/project", zerolog.Nop())
	if err := exec.Execute(unit, st); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap["port"] != int64(8080) {
		t.Errorf("port = %v, want 8080", snap["port"])
	}
}

// countingFs counts Open calls per path, to observe how often module
// sources are actually read.
type countingFs struct {
	afero.Fs
	opens map[string]int
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.opens[name]++
	return c.Fs.Open(name)
}

func TestExecute_ConditionalScript(t *testing.T) {
	fs, sc := testSchema(t)
	unit := compile(t, "config.debug = True\nif config.debug:\n    config.port = 3001\n")

	st := newTestState(t, nil)
	exec := NewExecutor(fs, sc, "/project", zerolog.Nop())
	if err := exec.Execute(unit, st); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap["port"] != int64(3001) {
		t.Errorf("port = %v, want 3001", snap["port"])
	}
}

func TestExecute_LoadCycle(t *testing.T) {
	fs, sc := testSchema(t)
	for path, content := range map[string]string{
		"/project/a.star": `load("b.star", "b")` + "\na = b\n",
		"/project/b.star": `load("a.star", "a")` + "\nb = a\n",
	} {
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	unit, diags := check(t, fs, sc, `load("a.star", "a")`+"\nconfig.port = a\n")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	st := newTestState(t, nil)
	exec := NewExecutor(fs, sc, "/project", zerolog.Nop())

	err := exec.Execute(unit, st)
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	if !strings.Contains(err.Error(), "cycle in load graph") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPass_MemoizesModules(t *testing.T) {
	baseFs, sc := testSchema(t)
	if err := afero.WriteFile(baseFs, "/project/shared.star", []byte("value = 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	fs := &countingFs{Fs: baseFs, opens: make(map[string]int)}

	src := `load("shared.star", "value")` + "\nconfig.port = value\n"
	unit, diags := check(t, baseFs, sc, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	st := newTestState(t, nil)
	exec := NewExecutor(fs, sc, "/project", zerolog.Nop())

	pass := exec.NewPass()
	for i := 0; i < 2; i++ {
		if err := pass.Execute(unit, st); err != nil {
			t.Fatalf("Execute %d failed: %v", i+1, err)
		}
	}
	if n := fs.opens["/project/shared.star"]; n != 1 {
		t.Errorf("module read %d times within one pass, want 1", n)
	}

	// A fresh pass starts with an empty module cache.
	if err := exec.NewPass().Execute(unit, st); err != nil {
		t.Fatalf("Execute in new pass failed: %v", err)
	}
	if n := fs.opens["/project/shared.star"]; n != 2 {
		t.Errorf("module read %d times across two passes, want 2", n)
	}
}

func TestExecute_ScriptPathBindings(t *testing.T) {
	fs, sc := testSchema(t)
	unit := compile(t, "config.name = script_path\nconfig.hosts = [script_dir]\n")

	st := newTestState(t, nil)
	exec := NewExecutor(fs, sc, "/project", zerolog.Nop())
	if err := exec.Execute(unit, st); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap["name"] != testScriptPath {
		t.Errorf("script_path = %v, want %s", snap["name"], testScriptPath)
	}
}
