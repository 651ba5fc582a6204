// Package session holds the live state of one play session and merges
// synchronous commands with delayed character replies.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"casefile/internal/dialogue"
	"casefile/internal/game"
	"casefile/internal/interpreter"
	"casefile/internal/schedule"
	"casefile/internal/shell"
	"casefile/internal/story"
)

var (
	ErrClosed       = errors.New("session closed")
	ErrNotReachable = errors.New("character cannot be reached on this channel")
	ErrEmptyMessage = errors.New("message is empty")
)

const defaultEventBuffer = 64

type Options struct {
	Story *story.Story
	// State resumes a saved session. When nil a fresh state is built.
	State    *game.State
	Username string

	Clock schedule.Clock
	Rand  *rand.Rand
	// PacingScale multiplies every character delay; 0 delivers at once.
	PacingScale float64
	EventBuffer int
	Logger      *zap.Logger
}

type EventKind string

const (
	EventRead  EventKind = "read"
	EventReply EventKind = "reply"
)

// Event reports a delayed change to a conversation.
type Event struct {
	Kind     EventKind
	Channel  story.Channel
	Thread   string
	Messages []game.Message
}

// Session owns the current state snapshot. Commands and delayed replies
// both replace it wholesale under one lock.
type Session struct {
	story  *story.Story
	interp *interpreter.Interpreter
	engine *dialogue.Engine
	sched  *schedule.Scheduler
	scale  float64
	log    *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.Mutex
	state  *game.State
	events chan Event
	closed bool
}

func New(opts Options) (*Session, error) {
	if opts.Story == nil {
		return nil, fmt.Errorf("creating session: story is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = schedule.RealClock()
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(clock.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	scale := opts.PacingScale
	if scale < 0 {
		scale = 0
	}

	state := opts.State
	if state == nil {
		username := opts.Username
		if username == "" {
			username = "agent"
		}
		state = game.New(opts.Story, username, clock.Now())
	}

	return &Session{
		story:  opts.Story,
		interp: interpreter.New(interpreter.WithLogger(log)),
		engine: dialogue.NewEngine(opts.Story,
			dialogue.WithRand(rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))),
			dialogue.WithNow(clock.Now),
			dialogue.WithLogger(log),
		),
		sched:  schedule.New(schedule.WithClock(clock), schedule.WithLogger(log)),
		scale:  scale,
		log:    log,
		rng:    rng,
		state:  state,
		events: make(chan Event, buffer),
	}, nil
}

func (s *Session) Story() *story.Story {
	return s.story
}

// Current returns the live snapshot. Snapshots are never modified in place.
func (s *Session) Current() *game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update replaces the live snapshot with fn applied to it.
func (s *Session) Update(fn func(*game.State) *game.State) *game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next := fn(s.state); next != nil {
		s.state = next
	}
	return s.state
}

// Snapshot returns a copy the caller may modify freely.
func (s *Session) Snapshot() *game.State {
	return s.Current().Clone()
}

// Events delivers read receipts and replies as they land. The channel is
// closed by Close.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Submit runs one line of player input against the live state.
func (s *Session) Submit(line string) interpreter.Result {
	cmd := shell.Parse(line)
	var res interpreter.Result
	s.Update(func(current *game.State) *game.State {
		res = s.interp.Process(cmd, current, s.story)
		return res.Next
	})
	return res
}

// SendMessage posts a player message to a character and schedules the read
// receipt and reply. The player message is in the thread when it returns.
func (s *Session) SendMessage(channel story.Channel, characterID, body string, attachments []string) error {
	character, ok := s.story.Character(characterID)
	if !ok {
		return fmt.Errorf("sending message: %w: %s", dialogue.ErrUnknownCharacter, characterID)
	}
	if strings.TrimSpace(body) == "" && len(attachments) == 0 {
		return ErrEmptyMessage
	}
	if s.isClosed() {
		return ErrClosed
	}

	id := character.ID
	var reachErr error
	s.Update(func(current *game.State) *game.State {
		data := current.CharacterDynamicData[id]
		if (channel == story.ChannelTerminal && !data.CanChatTerminal) ||
			(channel != story.ChannelTerminal && !data.CanBeContacted) {
			reachErr = ErrNotReachable
			return current
		}
		next := current.Clone()
		msg := game.NewMessage(game.PlayerRole, id, body, s.sched.Now().UnixMilli(), attachments)
		next.AppendMessages(channel, id, msg)
		next.MarkThreadSeen(channel, id)
		return next
	})
	if reachErr != nil {
		return fmt.Errorf("sending message to %s: %w", id, reachErr)
	}

	readProfile := character.ReadDelay.Profile().Scale(s.scale)
	replyProfile := character.ReplyDelay.Profile().Scale(s.scale)
	attached := append([]string(nil), attachments...)
	var replied []game.Message

	ok = schedule.Deliver(s.sched, s, schedule.Exchange[*game.State]{
		Thread: threadKey(channel, id),
		ReadDelay: func(current *game.State) time.Duration {
			return s.delay(readProfile, current.Trust(id))
		},
		MarkRead: func(current *game.State) *game.State {
			next := current.Clone()
			next.MarkRead(channel, id)
			return next
		},
		ReplyDelay: func(current *game.State) time.Duration {
			return s.delay(replyProfile, current.Trust(id))
		},
		Reply: func(current *game.State) *game.State {
			reply, err := s.engine.ProcessCharacterReply(id, body, attached, current)
			if err != nil {
				s.log.Warn("character reply failed", zap.String("character", id), zap.Error(err))
				return current
			}
			reply.Next.AppendMessages(channel, id, reply.Messages...)
			replied = reply.Messages
			return reply.Next
		},
		Done: func(stage schedule.Stage, _ *game.State) {
			switch stage {
			case schedule.StageRead:
				s.publish(Event{Kind: EventRead, Channel: channel, Thread: id})
			case schedule.StageReply:
				s.publish(Event{Kind: EventReply, Channel: channel, Thread: id, Messages: replied})
			}
		},
	})
	if !ok {
		return ErrClosed
	}
	return nil
}

// Cancel drops any pending read or reply for a conversation.
func (s *Session) Cancel(channel story.Channel, characterID string) int {
	return s.sched.Cancel(threadKey(channel, characterID))
}

// Pending reports how many delayed events are outstanding.
func (s *Session) Pending() int {
	return s.sched.Pending()
}

// Settle blocks until no delayed event is pending or running.
func (s *Session) Settle(ctx context.Context) error {
	return s.sched.WaitIdle(ctx)
}

// Close cancels every pending event, waits for running ones and closes the
// event channel.
func (s *Session) Close() error {
	s.sched.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) delay(profile schedule.Profile, trust float64) time.Duration {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return profile.Compute(trust, s.rng)
}

// publish never blocks; events are dropped when nobody is listening.
func (s *Session) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Warn("event dropped", zap.String("kind", string(ev.Kind)), zap.String("thread", ev.Thread))
	}
}

func threadKey(channel story.Channel, characterID string) string {
	return string(channel) + ":" + characterID
}
