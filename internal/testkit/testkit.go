// Package testkit provides shared fixtures for package tests.
package testkit

import (
	_ "embed"
	"testing"
	"time"

	"casefile/internal/game"
	"casefile/internal/story"
)

//go:embed story.yaml
var storyYAML []byte

// Epoch is the fixed clock reading fixtures start from.
var Epoch = time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)

func StoryYAML() []byte {
	return append([]byte(nil), storyYAML...)
}

func Story(t testing.TB) *story.Story {
	t.Helper()
	st, err := story.Parse(storyYAML)
	if err != nil {
		t.Fatalf("parsing fixture story: %v", err)
	}
	return st
}

func State(t testing.TB, st *story.Story) *game.State {
	t.Helper()
	return game.New(st, "agent", Epoch)
}
