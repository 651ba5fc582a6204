package shell

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantArgs []string
	}{
		{name: "empty", input: "", wantName: "", wantArgs: []string{}},
		{name: "whitespace only", input: "   \t ", wantName: "", wantArgs: []string{}},
		{name: "single command", input: "ls", wantName: "ls", wantArgs: []string{}},
		{name: "lowercases command", input: "CAT notes.txt", wantName: "cat", wantArgs: []string{"notes.txt"}},
		{name: "keeps argument case", input: "decrypt secret.zip Comet", wantName: "decrypt", wantArgs: []string{"secret.zip", "Comet"}},
		{name: "collapses whitespace", input: "  cd    /docs  ", wantName: "cd", wantArgs: []string{"/docs"}},
		{name: "quoted segment", input: `reset_password admin --q "blue whale"`, wantName: "reset_password", wantArgs: []string{"admin", "--q", "blue whale"}},
		{name: "quote inside token", input: `say he"llo wor"ld`, wantName: "say", wantArgs: []string{"hello world"}},
		{name: "empty quotes", input: `accuse ""`, wantName: "accuse", wantArgs: []string{""}},
		{name: "unterminated quote", input: `accuse "the butler did`, wantName: "accuse", wantArgs: []string{"the butler did"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Parse(tt.input)
			if cmd.Name != tt.wantName {
				t.Fatalf("expected name %q, got %q", tt.wantName, cmd.Name)
			}
			if !reflect.DeepEqual(cmd.Args, tt.wantArgs) {
				t.Fatalf("expected args %#v, got %#v", tt.wantArgs, cmd.Args)
			}
		})
	}
}

func TestParse_EmptyIsNoop(t *testing.T) {
	cmd := Parse("")
	if !cmd.IsEmpty() {
		t.Fatalf("expected empty command")
	}
	if cmd.Raw != "" {
		t.Fatalf("expected empty raw, got %q", cmd.Raw)
	}
}

func TestParse_RawPreserved(t *testing.T) {
	cmd := Parse(`  Accuse "Dr. Vale"  `)
	if cmd.Raw != `Accuse "Dr. Vale"` {
		t.Fatalf("unexpected raw: %q", cmd.Raw)
	}
}

func TestJoin(t *testing.T) {
	if got := Join([]string{"the", "night", "porter"}); got != "the night porter" {
		t.Fatalf("unexpected join: %q", got)
	}
	if got := Join(nil); got != "" {
		t.Fatalf("expected empty join, got %q", got)
	}
}
