package interpreter

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"casefile/internal/game"
	"casefile/internal/shell"
	"casefile/internal/testkit"
)

func TestProcess_PanicAfterWriteRollsBack(t *testing.T) {
	saved := handlers[KindPwd]
	t.Cleanup(func() { handlers[KindPwd] = saved })
	handlers[KindPwd] = func(c *call) error {
		next := c.mutable()
		next.CurrentPath = "/docs"
		next.NarrativeFlags.Set("half_written", true)
		c.print("partial output")
		panic("handler blew up mid-write")
	}

	st := testkit.Story(t)
	state := testkit.State(t, st)
	snapshot := state.Clone()

	res := New().Process(shell.Parse("pwd"), state, st)
	if !errors.Is(res.Err, ErrInternal) {
		t.Fatalf("expected internal error, got %v", res.Err)
	}
	if res.Next != state {
		t.Fatalf("expected the input state back after a panic")
	}
	if diff := cmp.Diff(snapshot, state, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("input state changed (-want +got):\n%s", diff)
	}
	if len(res.Output) != 1 || res.Output[0].Type != game.OutputError {
		t.Fatalf("expected only the error output, got %+v", res.Output)
	}
}
