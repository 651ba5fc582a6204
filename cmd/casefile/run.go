package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"casefile/internal/session"
)

func runCmd() *cobra.Command {
	var instant bool
	var stopOnError bool
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Play a scripted sequence of commands and chat lines",
		Long: "Each non-empty line of the script is a terminal command, or\n" +
			"\"chat <character> [+evidence ...] <text>\" to message a character.\n" +
			"Lines starting with # are ignored. Every chat waits for its reply.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(args[0], instant, stopOnError)
		},
	}
	cmd.Flags().BoolVar(&instant, "instant", false, "Deliver reads and replies without delay")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "Stop at the first failed command")
	return cmd
}

func runScript(path string, instant, stopOnError bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.log.Sync()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening script: %w", err)
	}
	defer file.Close()

	scale := p.cfg.PacingScale()
	if instant {
		scale = 0
	}
	sess, err := session.New(session.Options{
		Story:       p.story,
		Username:    p.cfg.Username,
		PacingScale: scale,
		Logger:      p.log,
	})
	if err != nil {
		return err
	}

	con := newConsole(os.Stdout, false)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for ev := range sess.Events() {
			con.event(p.story, ev)
		}
		return nil
	})
	g.Go(func() error {
		defer sess.Close()

		scanner := bufio.NewScanner(file)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			con.println("> %s", line)

			if msg, ok := parseChat(line); ok {
				if err := sendChat(sess, msg); err != nil {
					if stopOnError {
						return fmt.Errorf("line %d: %w", lineNo, err)
					}
					con.println("! %v", err)
					continue
				}
				if err := sess.Settle(gctx); err != nil {
					return err
				}
				continue
			}

			res := sess.Submit(line)
			quit := con.result(gctx, res)
			if res.Err != nil {
				p.log.Debug("script command failed", zap.Int("line", lineNo), zap.Error(res.Err))
				if stopOnError {
					return fmt.Errorf("line %d: %w", lineNo, res.Err)
				}
			}
			if quit {
				return nil
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading script: %w", err)
		}
		return nil
	})
	return g.Wait()
}
