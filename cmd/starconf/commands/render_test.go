package commands

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/starconf/starconf/pkg/manager"
	"github.com/starconf/starconf/pkg/script"
)

func TestCaretPad(t *testing.T) {
	tests := []struct {
		name string
		text string
		col  int
		want string
	}{
		{
			name: "ascii",
			text: `config.port = "x"`,
			col:  15,
			want: strings.Repeat(" ", 14),
		},
		{
			name: "tabs preserved",
			text: "\tconfig.port = 1",
			col:  3,
			want: "\t ",
		},
		{
			name: "multibyte runes before the column",
			text: `cönfig.pört = "x"`,
			col:  15,
			want: strings.Repeat(" ", 14),
		},
		{
			name: "column one",
			text: "config.port = 1",
			col:  1,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := caretPad(tt.text, tt.col)
			if got != tt.want {
				t.Errorf("caretPad(%q, %d) = %q, want %q", tt.text, tt.col, got, tt.want)
			}
			if n := utf8.RuneCountInString(got); n != tt.col-1 {
				t.Errorf("pad is %d runes, want %d", n, tt.col-1)
			}
		})
	}
}

func TestRenderDiagnostic_CaretAlignment(t *testing.T) {
	var buf bytes.Buffer
	renderDiagnostic(&buf, script.Diagnostic{
		File:     "/cfg/bad.star",
		Line:     1,
		Column:   15,
		Message:  "cannot assign string to config.pört (schema declares number)",
		Severity: script.SeverityError,
		Text:     `config.pört = "x"`,
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}

	source := strings.TrimPrefix(lines[1], "        ")
	caret := strings.TrimPrefix(lines[2], "        ")
	caretCol := utf8.RuneCountInString(strings.TrimSuffix(caret, "^")) + 1
	if caretCol != 15 {
		t.Errorf("caret at rune column %d, want 15:\n%s\n%s", caretCol, source, caret)
	}
}

func TestFailed(t *testing.T) {
	ds := []manager.Descriptor{
		{Name: "/cfg/absent.star", Exists: false},
		{Name: "/cfg/ok.star", Exists: true, Loaded: true},
	}
	if failed(ds) {
		t.Error("absent files must not count as failures")
	}

	ds = append(ds, manager.Descriptor{Name: "/cfg/bad.star", Exists: true})
	if !failed(ds) {
		t.Error("an existing unloaded file is a failure")
	}
}
