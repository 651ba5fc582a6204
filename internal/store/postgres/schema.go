package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS saves (
    slot       TEXT PRIMARY KEY,
    story      TEXT NOT NULL,
    username   TEXT NOT NULL DEFAULT '',
    stage      TEXT NOT NULL DEFAULT '',
    evidence   INTEGER NOT NULL DEFAULT 0,
    state      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_saves_updated ON saves (updated_at);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
