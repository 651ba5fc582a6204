package dialogue_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/dialogue"
	"casefile/internal/game"
	"casefile/internal/story"
	"casefile/internal/testkit"
)

func newEngine(t *testing.T, seed uint64) (*dialogue.Engine, *story.Story) {
	t.Helper()
	st := testkit.Story(t)
	engine := dialogue.NewEngine(st,
		dialogue.WithRand(rand.New(rand.NewPCG(seed, seed))),
		dialogue.WithNow(func() time.Time { return testkit.Epoch }),
	)
	return engine, st
}

func TestResolve(t *testing.T) {
	st := testkit.Story(t)
	kade, ok := st.Character("kade")
	require.True(t, ok)

	decrypted := game.Flags{}
	decrypted.Set("ledger_decrypted", true)

	tests := []struct {
		name  string
		body  string
		trust float64
		flags game.Flags
		want  string
	}{
		{name: "gated entry when preconditions hold", body: "What about the LEDGER?", trust: 50, flags: decrypted, want: "Those transfers all go to Marsh. Keep digging."},
		{name: "falls through when flag missing", body: "ledger", trust: 50, flags: game.Flags{}, want: "What ledger? Show me something first."},
		{name: "falls through when trust too low", body: "ledger", trust: 39, flags: decrypted, want: "What ledger? Show me something first."},
		{name: "max trust bound is inclusive", body: "tell me about marsh", trust: 30, flags: game.Flags{}, want: "I'm not discussing my boss with you."},
		{name: "above max trust", body: "tell me about marsh", trust: 31, flags: game.Flags{}, want: "Marsh runs the docks. He hates audits."},
		{name: "default when nothing matches", body: "weather?", trust: 50, flags: game.Flags{}, want: "Not sure what you mean."},
		{name: "default keyword in text is not a match", body: "default", trust: 50, flags: game.Flags{}, want: "Not sure what you mean."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := dialogue.Resolve(kade, tt.body, tt.trust, tt.flags)
			require.True(t, ok)
			require.NotEmpty(t, entry.Responses)
			assert.Equal(t, tt.want, entry.Responses[0])
		})
	}

	t.Run("no default entry", func(t *testing.T) {
		_, ok := dialogue.Resolve(&story.Character{ID: "mute"}, "hi", 50, game.Flags{})
		assert.False(t, ok)
	})
}

func TestProcessCharacterReply_AppliesEffectsOnCopy(t *testing.T) {
	engine, st := newEngine(t, 1)
	state := testkit.State(t, st)
	state.NarrativeFlags.Set("ledger_decrypted", true)

	reply, err := engine.ProcessCharacterReply("kade", "the ledger", nil, state)
	require.NoError(t, err)
	require.Len(t, reply.Messages, 1)

	msg := reply.Messages[0]
	assert.Equal(t, "kade", msg.Sender)
	assert.Equal(t, game.PlayerRole, msg.Recipient)
	assert.Equal(t, testkit.Epoch.UnixMilli(), msg.Timestamp)

	assert.Equal(t, 55.0, reply.Next.Trust("kade"))
	assert.True(t, reply.Next.NarrativeFlags.Bool("kade_knows_ledger"))

	assert.Equal(t, 50.0, state.Trust("kade"), "input state must not change")
	assert.False(t, state.NarrativeFlags.Bool("kade_knows_ledger"))
}

func TestProcessCharacterReply_CommandResponse(t *testing.T) {
	engine, st := newEngine(t, 1)
	state := testkit.State(t, st)

	reply, err := engine.ProcessCharacterReply("KADE", "  Status ", nil, state)
	require.NoError(t, err)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "Kade: all systems green on my end.", reply.Messages[0].Body)
}

func TestProcessCharacterReply_UnknownCharacter(t *testing.T) {
	engine, st := newEngine(t, 1)
	state := testkit.State(t, st)

	reply, err := engine.ProcessCharacterReply("nobody", "hi", nil, state)
	require.ErrorIs(t, err, dialogue.ErrUnknownCharacter)
	assert.Same(t, state, reply.Next)
}

func TestProcessCharacterReply_VariantsAreSeeded(t *testing.T) {
	st := testkit.Story(t)
	state := testkit.State(t, st)

	run := func() []string {
		engine := dialogue.NewEngine(st, dialogue.WithRand(rand.New(rand.NewPCG(7, 7))))
		var bodies []string
		for range 10 {
			reply, err := engine.ProcessCharacterReply("kade", "hello", nil, state)
			require.NoError(t, err)
			require.Len(t, reply.Messages, 1)
			bodies = append(bodies, reply.Messages[0].Body)
		}
		return bodies
	}

	first := run()
	assert.Equal(t, first, run())
	for _, body := range first {
		assert.Contains(t, []string{"Hey.", "Hi there.", "Agent."}, body)
	}
}

func TestProcessCharacterReply_Attachments(t *testing.T) {
	engine, st := newEngine(t, 1)
	state := testkit.State(t, st)
	state.AddEvidence("ev_ledger")

	reply, err := engine.ProcessCharacterReply("kade", "", []string{"ev_ledger", "ev_manifest_unknown"}, state)
	require.NoError(t, err)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "That's Marsh's account. I'll back you up.", reply.Messages[0].Body)
	assert.Equal(t, 60.0, reply.Next.Trust("kade"))
	assert.Equal(t, []string{"ev_manifest"}, reply.Unlocked)
	assert.True(t, reply.Next.NarrativeFlags.Bool(dialogue.SubmittedFlag("kade", "ev_ledger")))

	again, err := engine.ProcessCharacterReply("kade", "", []string{"ev_ledger"}, reply.Next)
	require.NoError(t, err)
	assert.Equal(t, 60.0, again.Next.Trust("kade"), "trust delta applies once per evidence")
	assert.Empty(t, again.Unlocked)
}

func TestProcessCharacterReply_UndiscoveredAttachmentIgnored(t *testing.T) {
	engine, st := newEngine(t, 1)
	state := testkit.State(t, st)

	reply, err := engine.ProcessCharacterReply("kade", "", []string{"ev_ledger"}, state)
	require.NoError(t, err)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "Not sure what you mean.", reply.Messages[0].Body)
	assert.Equal(t, 50.0, reply.Next.Trust("kade"))
}

func TestApplyEffects_ClampsTrust(t *testing.T) {
	st := testkit.Story(t)
	state := testkit.State(t, st)

	unlocked := dialogue.ApplyEffects(state, "kade", story.Effects{
		TrustDelta:     80,
		UnlockEvidence: []string{"ev_backup", "ev_backup"},
		SetFlags:       map[string]any{"alarm": "raised"},
	})
	assert.Equal(t, 100.0, state.Trust("kade"))
	assert.Equal(t, []string{"ev_backup"}, unlocked)
	assert.Equal(t, "raised", state.NarrativeFlags.String("alarm"))
}
