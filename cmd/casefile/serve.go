package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"casefile/internal/game"
	"casefile/internal/mcp"
	"casefile/internal/session"
	"casefile/internal/store"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	var load string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(load)
		},
	}
	cmd.Flags().StringVar(&load, "load", "", "Resume from a save slot")
	return cmd
}

func runServe(load string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.log.Sync()

	var db store.Store
	if p.cfg.Database.DSN != "" || load != "" {
		db, err = openDB(ctx, p.cfg)
		if err != nil {
			return err
		}
		defer db.Close(ctx)
	}

	var state *game.State
	if load != "" {
		state, err = db.LoadState(ctx, load)
		if err != nil {
			return err
		}
	}

	sess, err := session.New(session.Options{
		Story:       p.story,
		State:       state,
		Username:    p.cfg.Username,
		PacingScale: p.cfg.PacingScale(),
		Logger:      p.log,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	// Replies are read back through read_thread; events only need draining.
	go func() {
		for range sess.Events() {
		}
	}()

	server := mcp.NewServer(sess, db, version)
	if err := server.Run(ctx, &sdk.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
