package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"casefile/internal/game"
	"casefile/internal/store"
)

func (c *Client) SaveState(ctx context.Context, slot, story string, state *game.State) error {
	slot, err := store.NormalizeSlot(slot)
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	data, err := game.Marshal(state)
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	summary := store.Summarize(slot, story, state)

	query := `
INSERT INTO saves (slot, story, username, stage, evidence, state, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (slot) DO UPDATE SET
    story = EXCLUDED.story,
    username = EXCLUDED.username,
    stage = EXCLUDED.stage,
    evidence = EXCLUDED.evidence,
    state = EXCLUDED.state,
    updated_at = now()
`
	_, err = c.pool.Exec(ctx, query,
		summary.Slot,
		summary.Story,
		summary.Username,
		summary.Stage,
		summary.Evidence,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

func (c *Client) LoadState(ctx context.Context, slot string) (*game.State, error) {
	slot, err := store.NormalizeSlot(slot)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	var data string
	err = c.pool.QueryRow(ctx, `SELECT state::text FROM saves WHERE slot = $1`, slot).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("loading state %s: %w", slot, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	return game.Unmarshal([]byte(data))
}

func (c *Client) ListSaves(ctx context.Context) ([]store.Save, error) {
	rows, err := c.pool.Query(ctx, `
SELECT slot, story, username, stage, evidence, updated_at
FROM saves
ORDER BY updated_at DESC, slot
`)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	saves := make([]store.Save, 0)
	for rows.Next() {
		var s store.Save
		if err := rows.Scan(&s.Slot, &s.Story, &s.Username, &s.Stage, &s.Evidence, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning save: %w", err)
		}
		saves = append(saves, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saves: %w", err)
	}
	return saves, nil
}

func (c *Client) DeleteSave(ctx context.Context, slot string) error {
	slot, err := store.NormalizeSlot(slot)
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	tag, err := c.pool.Exec(ctx, `DELETE FROM saves WHERE slot = $1`, slot)
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting save %s: %w", slot, store.ErrNotFound)
	}
	return nil
}
