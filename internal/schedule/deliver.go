package schedule

import "time"

// Accessor hands out the caller's current state and replaces it through a
// merge function. Update must apply fn to whatever is current at call time.
type Accessor[S any] interface {
	Current() S
	Update(fn func(current S) S) S
}

type Stage string

const (
	StageRead  Stage = "read"
	StageReply Stage = "reply"
)

// Exchange describes one message awaiting a character response. Delays are
// evaluated against the state current when each stage is scheduled, and
// merges run against the state current when each stage fires.
type Exchange[S any] struct {
	Thread     string
	ReadDelay  func(current S) time.Duration
	MarkRead   func(current S) S
	ReplyDelay func(current S) time.Duration
	Reply      func(current S) S
	// Done is called after each stage has been merged.
	Done func(stage Stage, next S)
}

// Deliver schedules the read stage and, once it has been merged, the reply
// stage. Within one exchange the read always lands before the reply.
func Deliver[S any](s *Scheduler, acc Accessor[S], ex Exchange[S]) bool {
	readDelay := delayOf(ex.ReadDelay, acc.Current())
	return s.After(ex.Thread, readDelay, func() {
		next := acc.Update(orIdentity(ex.MarkRead))
		notify(ex.Done, StageRead, next)

		replyDelay := delayOf(ex.ReplyDelay, acc.Current())
		s.After(ex.Thread, replyDelay, func() {
			next := acc.Update(orIdentity(ex.Reply))
			notify(ex.Done, StageReply, next)
		})
	})
}

func delayOf[S any](fn func(S) time.Duration, current S) time.Duration {
	if fn == nil {
		return 0
	}
	return fn(current)
}

func orIdentity[S any](fn func(S) S) func(S) S {
	if fn == nil {
		return func(current S) S { return current }
	}
	return fn
}

func notify[S any](fn func(Stage, S), stage Stage, next S) {
	if fn != nil {
		fn(stage, next)
	}
}
