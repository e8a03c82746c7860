package manager

import (
	"testing"

	"github.com/spf13/afero"
)

const testManifest = `schema: schema.cue
files:
  - base.star
  - overlays/prod.star
initial:
  port: 80
load_root: modules
logging:
  level: debug
`

func TestLoadManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/cfg/starconf.yaml", []byte(testManifest), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(fs, "/cfg/starconf.yaml")
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	if m.Schema != "/cfg/schema.cue" {
		t.Errorf("schema = %s, want /cfg/schema.cue", m.Schema)
	}
	wantFiles := []string{"/cfg/base.star", "/cfg/overlays/prod.star"}
	for i, f := range wantFiles {
		if m.Files[i] != f {
			t.Errorf("file %d = %s, want %s", i, m.Files[i], f)
		}
	}
	if m.LoadRoot != "/cfg/modules" {
		t.Errorf("load_root = %s, want /cfg/modules", m.LoadRoot)
	}
	if m.Initial["port"] != 80 {
		t.Errorf("initial port = %v, want 80", m.Initial["port"])
	}
	if m.Logging.Level != "debug" {
		t.Errorf("logging level = %s, want debug", m.Logging.Level)
	}
}

func TestLoadManifest_AbsolutePathsKept(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "schema: /elsewhere/schema.cue\nfiles:\n  - /elsewhere/base.star\n"
	if err := afero.WriteFile(fs, "/cfg/starconf.yaml", []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(fs, "/cfg/starconf.yaml")
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if m.Schema != "/elsewhere/schema.cue" {
		t.Errorf("schema = %s, absolute path must be kept", m.Schema)
	}
	if m.Files[0] != "/elsewhere/base.star" {
		t.Errorf("file = %s, absolute path must be kept", m.Files[0])
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing schema key", "files:\n  - base.star\n"},
		{"malformed yaml", "schema: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "/cfg/starconf.yaml", []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadManifest(fs, "/cfg/starconf.yaml"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := LoadManifest(fs, "/cfg/starconf.yaml"); err == nil {
		t.Error("expected an error for a missing manifest")
	}
}

func TestManifest_Options(t *testing.T) {
	m := &Manifest{
		Schema: "/cfg/schema.cue",
		Files:  []string{"/cfg/base.star"},
	}

	opts := m.Options()
	if opts.SchemaPath != m.Schema {
		t.Errorf("schema path = %s", opts.SchemaPath)
	}
	// A manifest with no initial block still satisfies the
	// exactly-one-of-initial-and-regenerate contract.
	if opts.Initial == nil {
		t.Error("nil initial must be replaced with an empty map")
	}
}
