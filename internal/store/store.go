// Package store persists game state snapshots into named save slots.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"casefile/internal/game"
)

var ErrNotFound = errors.New("save not found")

// Save describes a stored slot without its state payload.
type Save struct {
	Slot      string
	Story     string
	Username  string
	Stage     string
	Evidence  int
	UpdatedAt time.Time
}

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	SaveState(ctx context.Context, slot, story string, state *game.State) error
	LoadState(ctx context.Context, slot string) (*game.State, error)
	ListSaves(ctx context.Context) ([]Save, error)
	DeleteSave(ctx context.Context, slot string) error
}

// NormalizeSlot trims and lowercases a slot name.
func NormalizeSlot(slot string) (string, error) {
	slot = strings.ToLower(strings.TrimSpace(slot))
	if slot == "" {
		return "", fmt.Errorf("slot name is required")
	}
	return slot, nil
}

// Summarize extracts the listing columns stored next to a state.
func Summarize(slot, story string, state *game.State) Save {
	return Save{
		Slot:     slot,
		Story:    story,
		Username: state.Username,
		Stage:    state.GameStage,
		Evidence: len(state.DiscoveredEvidenceIDs),
	}
}
