package story

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadStory(t *testing.T) {
	t.Run("valid story loads", func(t *testing.T) {
		st, err := LoadStory(filepath.Join("testdata", "valid_story.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if st.Title != "Test Case" {
			t.Fatalf("unexpected title: %q", st.Title)
		}
		if st.InitialStage != DefaultStage {
			t.Fatalf("expected default stage, got %q", st.InitialStage)
		}
	})

	t.Run("imports markdown evidence", func(t *testing.T) {
		st, err := LoadStory(filepath.Join("testdata", "valid_story.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		receipt, ok := st.EvidenceByID("ev_receipt")
		if !ok {
			t.Fatalf("expected ev_receipt to be imported")
		}
		if receipt.Content != "One USB drive, paid in cash." {
			t.Fatalf("unexpected content: %q", receipt.Content)
		}
		if _, ok := st.EvidenceByID("ev_photo"); !ok {
			t.Fatalf("expected nested evidence to be imported")
		}
		if len(st.Evidence) != 3 {
			t.Fatalf("expected 3 evidence items, got %d", len(st.Evidence))
		}
	})

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadStory(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing evidence dir", func(t *testing.T) {
		path := writeTempStory(t, "version: 1\nstart_device: a\nevidence_dirs: [./nope]\ndevices:\n  - id: a\n    root: {type: directory}\n")
		if _, err := LoadStory(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "invalid yaml", yaml: "version: [\n"},
		{name: "wrong version", yaml: "version: 2\nstart_device: a\ndevices:\n  - id: a\n    root: {type: directory}\n"},
		{name: "no devices", yaml: "version: 1\nstart_device: a\n"},
		{name: "unknown start device", yaml: "version: 1\nstart_device: b\ndevices:\n  - id: a\n    root: {type: directory}\n"},
		{name: "missing start device", yaml: "version: 1\ndevices:\n  - id: a\n    root: {type: directory}\n"},
		{name: "duplicate device", yaml: "version: 1\nstart_device: a\ndevices:\n  - id: a\n    root: {type: directory}\n  - id: a\n    root: {type: directory}\n"},
		{name: "file root", yaml: "version: 1\nstart_device: a\ndevices:\n  - id: a\n    root: {content: hi}\n"},
		{name: "duplicate evidence", yaml: "version: 1\nstart_device: a\ndevices:\n  - id: a\n    root: {type: directory}\nevidence:\n  - id: e\n  - id: e\n"},
		{name: "evidence without id", yaml: "version: 1\nstart_device: a\ndevices:\n  - id: a\n    root: {type: directory}\nevidence:\n  - title: nameless\n"},
		{name: "unknown puzzle type", yaml: "version: 1\nstart_device: a\ndevices:\n  - id: a\n    root: {type: directory}\npuzzles:\n  - id: p\n    type: riddle\n    target: x\n"},
		{name: "puzzle without target", yaml: "version: 1\nstart_device: a\ndevices:\n  - id: a\n    root: {type: directory}\npuzzles:\n  - id: p\n    type: decryption\n"},
		{name: "trust out of range", yaml: "version: 1\nstart_device: a\ndevices:\n  - id: a\n    root: {type: directory}\ncharacters:\n  - id: c\n    initial_trust: 120\n"},
		{name: "unknown rule outcome", yaml: "version: 1\nstart_device: a\ndevices:\n  - id: a\n    root: {type: directory}\naccusations:\n  rules:\n    - id: r\n      outcome: maybe\n"},
		{name: "connection without name", yaml: "version: 1\nstart_device: a\ndevices:\n  - id: a\n    root: {type: directory}\nconnections:\n  - message: hi\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestStoryLookups(t *testing.T) {
	st, err := LoadStory(filepath.Join("testdata", "valid_story.yaml"))
	if err != nil {
		t.Fatalf("loading story: %v", err)
	}

	t.Run("evidence for source normalises path", func(t *testing.T) {
		found := st.EvidenceForSource("laptop", "/home/todo.txt")
		if len(found) != 1 || found[0].ID != "ev_inline" {
			t.Fatalf("unexpected evidence: %+v", found)
		}
	})

	t.Run("evidence for source respects device", func(t *testing.T) {
		if found := st.EvidenceForSource("phone", "/home/receipt.pdf"); len(found) != 0 {
			t.Fatalf("expected no evidence on another device, got %+v", found)
		}
		if found := st.EvidenceForSource("laptop", "/home/receipt.pdf"); len(found) != 1 {
			t.Fatalf("expected receipt on laptop, got %+v", found)
		}
	})

	t.Run("puzzle target is case-insensitive for accounts", func(t *testing.T) {
		puzzle, ok := st.PuzzleFor(PuzzlePasswordReset, "", "admin")
		if !ok || puzzle.ID != "pz_reset" {
			t.Fatalf("expected pz_reset, got %+v", puzzle)
		}
		if _, ok := st.PuzzleFor(PuzzleDecryption, "", "admin"); ok {
			t.Fatalf("expected no decryption puzzle")
		}
	})

	t.Run("character lookup is case-insensitive", func(t *testing.T) {
		character, ok := st.Character("rook")
		if !ok || character.ID != "Rook" {
			t.Fatalf("expected Rook, got %+v", character)
		}
	})

	t.Run("evidence response fallback", func(t *testing.T) {
		character, _ := st.Character("rook")
		if resp := character.EvidenceResponseFor("ev_inline"); resp == nil || resp.TrustDelta != 2 {
			t.Fatalf("expected exact response, got %+v", resp)
		}
		if resp := character.EvidenceResponseFor("ev_receipt"); resp == nil || resp.Response != "Hm." {
			t.Fatalf("expected default response, got %+v", resp)
		}
		var missing *Character
		if resp := missing.EvidenceResponseFor("ev_inline"); resp != nil {
			t.Fatalf("expected nil response for nil character")
		}
	})

	t.Run("connection lookup", func(t *testing.T) {
		if _, ok := st.Connection("  RELAY "); !ok {
			t.Fatalf("expected relay connection")
		}
		if _, ok := st.Connection("nowhere"); ok {
			t.Fatalf("expected unknown connection")
		}
	})

	t.Run("analysis by path and by name", func(t *testing.T) {
		if entry, ok := st.AnalysisFor("/home/./todo.txt"); !ok || entry.Insight != "Written in a hurry." {
			t.Fatalf("unexpected path analysis: %+v", entry)
		}
		if entry, ok := st.AnalysisFor("ev_inline"); !ok || entry.Insight != "Inline insight." {
			t.Fatalf("unexpected name analysis: %+v", entry)
		}
	})

	t.Run("scripts", func(t *testing.T) {
		if lines := st.Script("intro"); len(lines) != 1 {
			t.Fatalf("unexpected script: %v", lines)
		}
		if lines := st.Script(""); lines != nil {
			t.Fatalf("expected nil script")
		}
	})

	t.Run("device start", func(t *testing.T) {
		device, ok := st.Device("laptop")
		if !ok || device.StartPath != "/home" {
			t.Fatalf("unexpected device: %+v", device)
		}
	})
}

func TestMessage(t *testing.T) {
	st, err := LoadStory(filepath.Join("testdata", "valid_story.yaml"))
	if err != nil {
		t.Fatalf("loading story: %v", err)
	}

	if got := st.Message("decrypt_success", map[string]string{"target": "a.zip"}); got != "Unlocked a.zip!" {
		t.Fatalf("expected story override, got %q", got)
	}
	if got := st.Message("decrypt_invalid_password", map[string]string{"TARGET": "a.zip"}); got != "Invalid password for a.zip." {
		t.Fatalf("expected default template, got %q", got)
	}
	if got := st.Message("no_such_key", nil); got != "no_such_key" {
		t.Fatalf("expected key fallback, got %q", got)
	}

	var nilStory *Story
	if got := nilStory.Message("pwd", map[string]string{"DEVICE": "x", "PATH": "/"}); got != "x:/" {
		t.Fatalf("expected default on nil story, got %q", got)
	}
}

func TestFormat_LeavesUnknownPlaceholders(t *testing.T) {
	if got := Format("{A} and {B}", map[string]string{"A": "1"}); got != "1 and {B}" {
		t.Fatalf("unexpected format: %q", got)
	}
}

func writeTempStory(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "story.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp story: %v", err)
	}
	return path
}
