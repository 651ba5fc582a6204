package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (slot) DO UPDATE SET
		story = excluded.story,
		username = excluded.username,
		stage = excluded.stage,
		evidence = excluded.evidence,
		state = excluded.state,
		updated_at = excluded.updated_at
	`
	_, err = c.db.ExecContext(ctx, query,
		summary.Slot,
		summary.Story,
		summary.Username,
		summary.Stage,
		summary.Evidence,
		string(data),
		c.now().UTC().Format(time.RFC3339Nano),
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
	err = c.db.QueryRowContext(ctx, `SELECT state FROM saves WHERE slot = ?`, slot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("loading state %s: %w", slot, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	return game.Unmarshal([]byte(data))
}

func (c *Client) ListSaves(ctx context.Context) ([]store.Save, error) {
	rows, err := c.db.QueryContext(ctx, `
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
		var updated string
		if err := rows.Scan(&s.Slot, &s.Story, &s.Username, &s.Stage, &s.Evidence, &updated); err != nil {
			return nil, fmt.Errorf("scanning save: %w", err)
		}
		s.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated)
		if err != nil {
			return nil, fmt.Errorf("parsing save time: %w", err)
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
	res, err := c.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("deleting save %s: %w", slot, store.ErrNotFound)
	}
	return nil
}
