package session_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"casefile/internal/dialogue"
	"casefile/internal/game"
	"casefile/internal/session"
	"casefile/internal/story"
	"casefile/internal/testkit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSession(t *testing.T, scale float64) (*session.Session, *testkit.Clock) {
	t.Helper()
	clock := testkit.NewClock()
	s, err := session.New(session.Options{
		Story:       testkit.Story(t),
		Clock:       clock,
		Rand:        rand.New(rand.NewPCG(3, 3)),
		PacingScale: scale,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func drain(s *session.Session) []session.Event {
	var out []session.Event
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func kadeThread(s *session.Session) game.Thread {
	return s.Current().TerminalChatThreads["kade"]
}

func TestNew_RequiresStory(t *testing.T) {
	_, err := session.New(session.Options{})
	require.Error(t, err)
}

func TestNew_ResumesState(t *testing.T) {
	st := testkit.Story(t)
	saved := testkit.State(t, st)
	saved.CurrentPath = "/docs"

	s, err := session.New(session.Options{Story: st, State: saved, Clock: testkit.NewClock()})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "/docs", s.Current().CurrentPath)
}

func TestSubmit_ReplacesState(t *testing.T) {
	s, _ := newSession(t, 1)

	res := s.Submit("cd /docs")
	require.NoError(t, res.Err)
	assert.Equal(t, "/docs", s.Current().CurrentPath)

	before := s.Current()
	res = s.Submit("cd nowhere")
	require.Error(t, res.Err)
	assert.Same(t, before, s.Current())
}

func TestSendMessage_ReadThenReply(t *testing.T) {
	s, clock := newSession(t, 1)

	require.NoError(t, s.SendMessage(story.ChannelTerminal, "kade", "hello", nil))

	thread := kadeThread(s)
	require.Len(t, thread.Messages, 2)
	assert.False(t, thread.Unread, "sending marks the thread seen")
	assert.False(t, thread.Messages[1].Read)
	assert.Equal(t, 1, s.Pending())

	// trust 50 puts the read at 2250ms and the reply 5500ms after it.
	clock.Advance(2249 * time.Millisecond)
	assert.False(t, kadeThread(s).Messages[1].Read)

	clock.Advance(time.Millisecond)
	assert.True(t, kadeThread(s).Messages[1].Read)
	events := drain(s)
	require.Len(t, events, 1)
	assert.Equal(t, session.EventRead, events[0].Kind)
	assert.Equal(t, 1, s.Pending())

	clock.Advance(5499 * time.Millisecond)
	assert.Len(t, kadeThread(s).Messages, 2)

	clock.Advance(time.Millisecond)
	thread = kadeThread(s)
	require.Len(t, thread.Messages, 3)
	assert.Equal(t, "kade", thread.Messages[2].Sender)
	assert.Contains(t, []string{"Hey.", "Hi there.", "Agent."}, thread.Messages[2].Body)
	assert.True(t, thread.Unread)

	events = drain(s)
	require.Len(t, events, 1)
	assert.Equal(t, session.EventReply, events[0].Kind)
	require.Len(t, events[0].Messages, 1)
	assert.Equal(t, 0, s.Pending())
}

func TestSendMessage_MergesIntoCurrentState(t *testing.T) {
	s, clock := newSession(t, 1)

	require.NoError(t, s.SendMessage(story.ChannelTerminal, "kade", "about the ledger", nil))

	// the player keeps working while Kade is typing
	require.NoError(t, s.Submit("decrypt /docs/secret.zip Comet").Err)
	require.NoError(t, s.Submit("cd /logs").Err)

	clock.Advance(time.Minute)

	current := s.Current()
	assert.Equal(t, "/logs", current.CurrentPath, "reply must not clobber later commands")
	assert.True(t, current.HasEvidence("ev_ledger"))
	assert.Equal(t, 55.0, current.Trust("kade"), "reply sees flags set after the message was sent")
	assert.True(t, current.NarrativeFlags.Bool("kade_knows_ledger"))

	thread := current.TerminalChatThreads["kade"]
	assert.Equal(t, "Those transfers all go to Marsh. Keep digging.", thread.Messages[len(thread.Messages)-1].Body)
}

func TestSendMessage_ReplyDelayUsesTrustAtScheduling(t *testing.T) {
	s, clock := newSession(t, 1)

	require.NoError(t, s.SendMessage(story.ChannelTerminal, "kade", "status", nil))
	s.Update(func(current *game.State) *game.State {
		next := current.Clone()
		next.AdjustTrust("kade", 100)
		return next
	})

	// read delay was fixed when the message was sent
	clock.Advance(2250 * time.Millisecond)
	require.True(t, kadeThread(s).Messages[1].Read)

	// full trust brings the reply down to the minimum
	clock.Advance(time.Second)
	thread := kadeThread(s)
	require.Len(t, thread.Messages, 3)
	assert.Equal(t, "Kade: all systems green on my end.", thread.Messages[2].Body)
}

func TestSendMessage_Attachments(t *testing.T) {
	s, clock := newSession(t, 0)
	require.NoError(t, s.Submit("decrypt /docs/secret.zip Comet").Err)

	require.NoError(t, s.SendMessage(story.ChannelInbox, "kade", "", []string{"ev_ledger"}))
	clock.Advance(0)

	current := s.Current()
	assert.Equal(t, 60.0, current.Trust("kade"))
	assert.True(t, current.HasEvidence("ev_manifest"))
	assert.True(t, current.NarrativeFlags.Bool(dialogue.SubmittedFlag("kade", "ev_ledger")))

	thread := current.InboxThreads["kade"]
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, []string{"ev_ledger"}, thread.Messages[0].Attachments)
}

func TestSendMessage_Errors(t *testing.T) {
	s, _ := newSession(t, 1)

	require.ErrorIs(t, s.SendMessage(story.ChannelTerminal, "nobody", "hi", nil), dialogue.ErrUnknownCharacter)
	require.ErrorIs(t, s.SendMessage(story.ChannelTerminal, "vale", "hi", nil), session.ErrNotReachable)
	require.ErrorIs(t, s.SendMessage(story.ChannelInbox, "kade", "   ", nil), session.ErrEmptyMessage)

	_, ok := s.Current().TerminalChatThreads["vale"]
	assert.False(t, ok, "rejected messages must not create threads")
	assert.Equal(t, 0, s.Pending())
}

func TestCancel(t *testing.T) {
	s, clock := newSession(t, 1)

	require.NoError(t, s.SendMessage(story.ChannelTerminal, "kade", "hello", nil))
	assert.Equal(t, 1, s.Cancel(story.ChannelTerminal, "kade"))

	clock.Advance(time.Hour)
	assert.Len(t, kadeThread(s).Messages, 2)
	assert.Empty(t, drain(s))
}

func TestClose_StopsDelivery(t *testing.T) {
	s, clock := newSession(t, 1)

	require.NoError(t, s.SendMessage(story.ChannelTerminal, "kade", "hello", nil))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	clock.Advance(time.Hour)
	assert.Len(t, kadeThread(s).Messages, 2)
	assert.Equal(t, 0, s.Pending())

	_, open := <-s.Events()
	assert.False(t, open)
	require.ErrorIs(t, s.SendMessage(story.ChannelTerminal, "kade", "hello", nil), session.ErrClosed)
}

func TestConcurrentCommandsAndReplies(t *testing.T) {
	s, clock := newSession(t, 1)

	for range 5 {
		require.NoError(t, s.SendMessage(story.ChannelTerminal, "kade", "hello", nil))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 50 {
			s.Submit("ls /docs")
			s.Submit("cat /logs/access.log")
		}
	}()
	go func() {
		defer wg.Done()
		for range 20 {
			clock.Advance(time.Second)
		}
	}()
	wg.Wait()

	current := s.Current()
	assert.True(t, current.HasEvidence("ev_access_log"))
	assert.Len(t, current.TerminalChatThreads["kade"].Messages, 11)
}

func TestSettle_RealClockInstant(t *testing.T) {
	s, err := session.New(session.Options{
		Story:       testkit.Story(t),
		Rand:        rand.New(rand.NewPCG(5, 5)),
		PacingScale: 0,
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SendMessage(story.ChannelTerminal, "kade", "hello", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Settle(ctx))

	assert.Equal(t, 0, s.Pending())
	assert.Len(t, kadeThread(s).Messages, 3)
	events := drain(s)
	require.Len(t, events, 2)
	assert.Equal(t, session.EventRead, events[0].Kind)
	assert.Equal(t, session.EventReply, events[1].Kind)
}

func TestSettle_HonoursContext(t *testing.T) {
	s, _ := newSession(t, 1)
	require.NoError(t, s.SendMessage(story.ChannelTerminal, "kade", "hello", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Settle(ctx), context.Canceled)
}
