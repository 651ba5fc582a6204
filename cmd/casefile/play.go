package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"casefile/internal/game"
	"casefile/internal/session"
	"casefile/internal/store"
)

func playCmd() *cobra.Command {
	var load string
	var save string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Start an interactive investigation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(load, save)
		},
	}
	cmd.Flags().StringVar(&load, "load", "", "Resume from a save slot")
	cmd.Flags().StringVar(&save, "save", "", "Save to this slot when the session ends")
	return cmd
}

func runPlay(load, save string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.log.Sync()

	var db store.Store
	if p.cfg.Database.DSN != "" || load != "" || save != "" {
		db, err = openDB(ctx, p.cfg)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())
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

	con := newConsole(os.Stdout, p.cfg.PacingScale() > 0)
	con.println("%s", p.story.Title)
	con.println("Type help for commands, chat <character> <text> to message someone.")

	lines := readLines(os.Stdin)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for ev := range sess.Events() {
			con.event(p.story, ev)
		}
		return nil
	})
	g.Go(func() error {
		defer sess.Close()
		for {
			con.prompt(sess.Current())
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if quit := playLine(gctx, con, sess, db, p.story.Title, line); quit {
					return nil
				}
			}
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if save != "" {
		if err := db.SaveState(context.Background(), save, p.story.Title, sess.Snapshot()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\nSaved to %s.\n", save)
	}
	return nil
}

// playLine handles one line of REPL input and reports whether to stop.
func playLine(ctx context.Context, con *console, sess *session.Session, db store.Store, title, line string) bool {
	if msg, ok := parseChat(line); ok {
		if err := sendChat(sess, msg); err != nil {
			con.println("! %v", err)
		}
		return false
	}

	if slot, ok := strings.CutPrefix(strings.TrimSpace(line), "save "); ok {
		if db == nil {
			con.println("! %v", errNoDatabase)
			return false
		}
		if err := db.SaveState(ctx, slot, title, sess.Snapshot()); err != nil {
			con.println("! %v", err)
			return false
		}
		con.println("* Saved to %s.", strings.TrimSpace(slot))
		return false
	}

	return con.result(ctx, sess.Submit(line))
}

// readLines feeds input lines into a channel that is closed at EOF. The
// reader goroutine ends with the process when stdin never closes.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
