package store

import (
	"testing"

	"casefile/internal/game"
)

func TestNormalizeSlot(t *testing.T) {
	got, err := NormalizeSlot("  Chapter-1 ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "chapter-1" {
		t.Fatalf("expected normalised slot, got %q", got)
	}
	if _, err := NormalizeSlot("   "); err == nil {
		t.Fatalf("expected error for empty slot")
	}
}

func TestSummarize(t *testing.T) {
	state := &game.State{
		Username:              "agent",
		GameStage:             "ending",
		DiscoveredEvidenceIDs: []string{"a", "b"},
	}
	save := Summarize("slot", "The Marsh Leak", state)
	if save.Username != "agent" || save.Stage != "ending" || save.Evidence != 2 || save.Story != "The Marsh Leak" {
		t.Fatalf("unexpected summary: %+v", save)
	}
}
