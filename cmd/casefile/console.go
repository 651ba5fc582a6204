package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"casefile/internal/game"
	"casefile/internal/interpreter"
	"casefile/internal/session"
	"casefile/internal/story"
)

const clearScreen = "\033[H\033[2J"

// console serialises writes from the input loop and the event listener.
type console struct {
	mu   sync.Mutex
	out  io.Writer
	pace bool
}

func newConsole(out io.Writer, pace bool) *console {
	return &console{out: out, pace: pace}
}

// result prints command output and reports whether the player asked to
// leave the session.
func (c *console) result(ctx context.Context, res interpreter.Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := time.Duration(0)
	if c.pace && res.PacingHint > 0 && len(res.Output) > 1 {
		step = res.PacingHint / time.Duration(len(res.Output))
	}

	quit := false
	for i, line := range res.Output {
		switch line.Type {
		case game.OutputClearSignal:
			fmt.Fprint(c.out, clearScreen)
			continue
		case game.OutputExitSignal:
			if line.Source == "session" {
				quit = true
			}
			if line.Text != "" {
				fmt.Fprintln(c.out, line.Text)
			}
			continue
		}
		fmt.Fprintln(c.out, formatOutput(line))
		if step > 0 && i < len(res.Output)-1 {
			select {
			case <-ctx.Done():
				step = 0
			case <-time.After(step):
			}
		}
	}
	return quit
}

func (c *console) event(st *story.Story, ev session.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := ev.Thread
	if character, ok := st.Character(ev.Thread); ok && character.Name != "" {
		name = character.Name
	}
	switch ev.Kind {
	case session.EventRead:
		fmt.Fprintf(c.out, "[%s] %s read your message.\n", ev.Channel, name)
	case session.EventReply:
		for _, msg := range ev.Messages {
			fmt.Fprintf(c.out, "[%s] %s: %s\n", ev.Channel, name, msg.Body)
		}
	}
}

func (c *console) println(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *console) prompt(state *game.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s@%s:%s$ ", state.Username, state.CurrentConnectedDeviceID, state.CurrentPath)
}

func formatOutput(line game.Output) string {
	switch line.Type {
	case game.OutputError:
		return "! " + line.Text
	case game.OutputSystem:
		return "* " + line.Text
	}
	return line.Text
}

// chatLine is a "chat <character> [+evidence ...] <text>" directive.
type chatLine struct {
	Character   string
	Body        string
	Attachments []string
}

func parseChat(line string) (chatLine, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "chat") {
		return chatLine{}, false
	}
	out := chatLine{Character: fields[1]}
	var words []string
	for _, field := range fields[2:] {
		if id, ok := strings.CutPrefix(field, "+"); ok && id != "" {
			out.Attachments = append(out.Attachments, id)
			continue
		}
		words = append(words, field)
	}
	out.Body = strings.Join(words, " ")
	return out, true
}

// sendChat picks the terminal channel when the character can chat there and
// falls back to the inbox otherwise.
func sendChat(sess *session.Session, msg chatLine) error {
	character, ok := sess.Story().Character(msg.Character)
	if !ok {
		return fmt.Errorf("unknown character: %s", msg.Character)
	}
	channel := story.ChannelInbox
	if sess.Current().CharacterDynamicData[character.ID].CanChatTerminal {
		channel = story.ChannelTerminal
	}
	return sess.SendMessage(channel, character.ID, msg.Body, msg.Attachments)
}
