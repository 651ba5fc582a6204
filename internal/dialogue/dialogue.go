// Package dialogue resolves what a character says back to the player and
// applies the trust and flag changes that come with it.
package dialogue

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"casefile/internal/game"
	"casefile/internal/story"
)

var ErrUnknownCharacter = errors.New("unknown character")

var fold = cases.Lower(language.Und)

// Normalize lowercases text for keyword matching.
func Normalize(text string) string {
	return fold.String(strings.TrimSpace(text))
}

// Resolve picks the dialogue entry for a message. Keywords are scanned in
// declaration order and the first whose substring occurs in the message and
// whose preconditions hold wins; otherwise the default entry is returned.
func Resolve(character *story.Character, body string, trust float64, flags game.Flags) (*story.DialogueEntry, bool) {
	if character == nil {
		return nil, false
	}
	text := Normalize(body)

	var fallback *story.DialogueEntry
	for i := range character.Dialogue {
		entry := &character.Dialogue[i]
		keyword := Normalize(entry.Keyword)
		if keyword == story.DefaultKeyword {
			if fallback == nil {
				fallback = entry
			}
			continue
		}
		if keyword == "" || !strings.Contains(text, keyword) {
			continue
		}
		if !Eligible(entry, trust, flags) {
			continue
		}
		return entry, true
	}
	return fallback, fallback != nil
}

// Eligible reports whether an entry's trust range and required flags hold.
// Both trust bounds are inclusive.
func Eligible(entry *story.DialogueEntry, trust float64, flags game.Flags) bool {
	if entry.MinTrust != nil && trust < *entry.MinTrust {
		return false
	}
	if entry.MaxTrust != nil && trust > *entry.MaxTrust {
		return false
	}
	return flags.Matches(entry.RequiredFlags)
}

// ApplyEffects applies a trust delta, flag writes and evidence unlocks to s
// and returns the evidence ids that were newly discovered.
func ApplyEffects(s *game.State, characterID string, fx story.Effects) []string {
	if fx.TrustDelta != 0 && characterID != "" {
		s.AdjustTrust(characterID, fx.TrustDelta)
	}
	for name, value := range fx.SetFlags {
		s.NarrativeFlags.Set(name, value)
	}
	var unlocked []string
	for _, id := range fx.UnlockEvidence {
		if s.AddEvidence(id) {
			unlocked = append(unlocked, id)
		}
	}
	return unlocked
}

// SubmittedFlag names the narrative flag recording that an evidence item was
// already shown to a character.
func SubmittedFlag(characterID, evidenceID string) string {
	return "submitted:" + characterID + ":" + evidenceID
}

// EvidenceReaction is the outcome of showing evidence to a character.
type EvidenceReaction struct {
	Text     string
	Repeat   bool
	Unlocked []string
}

// ReactToEvidence looks up the character's response to an evidence item and
// applies its effects the first time the pair is seen. The reaction text is
// empty when the character has neither an exact nor a default response.
func ReactToEvidence(s *game.State, character *story.Character, evidenceID string) EvidenceReaction {
	resp := character.EvidenceResponseFor(evidenceID)
	if resp == nil {
		return EvidenceReaction{}
	}

	flag := SubmittedFlag(character.ID, evidenceID)
	if s.NarrativeFlags.Bool(flag) {
		return EvidenceReaction{Text: resp.Response, Repeat: true}
	}
	s.NarrativeFlags.Set(flag, true)
	return EvidenceReaction{
		Text:     resp.Response,
		Unlocked: ApplyEffects(s, character.ID, resp.Effects),
	}
}

type Option func(*Engine)

// WithRand injects the source used to pick between response variants.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithNow sets the clock used to stamp reply messages.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine produces character replies. It holds no game state; the only
// mutable thing it owns is its random source.
type Engine struct {
	story *story.Story
	log   *zap.Logger
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(st *story.Story, opts ...Option) *Engine {
	e := &Engine{
		story: st,
		log:   zap.NewNop(),
		now:   time.Now,
		rng:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reply is what a character says back and the state after its effects.
type Reply struct {
	Messages []game.Message
	Next     *game.State
	Unlocked []string
}

// ProcessCharacterReply computes a character's response to a player message.
// The input state is not modified. Reply messages are returned but not added
// to any thread; placing them is up to the caller.
func (e *Engine) ProcessCharacterReply(characterID, body string, attachments []string, state *game.State) (Reply, error) {
	character, ok := e.story.Character(characterID)
	if !ok {
		return Reply{Next: state}, fmt.Errorf("%w: %s", ErrUnknownCharacter, characterID)
	}

	next := state.Clone()
	stamp := e.now().UnixMilli()
	reply := Reply{Next: next}
	say := func(text string) {
		reply.Messages = append(reply.Messages, game.NewMessage(character.ID, game.PlayerRole, text, stamp, nil))
	}

	for _, evidenceID := range attachments {
		if !next.HasEvidence(evidenceID) {
			continue
		}
		reaction := ReactToEvidence(next, character, evidenceID)
		if reaction.Text == "" {
			continue
		}
		say(reaction.Text)
		reply.Unlocked = append(reply.Unlocked, reaction.Unlocked...)
	}

	text := Normalize(body)
	if text == "" && len(reply.Messages) > 0 {
		return reply, nil
	}

	if canned, ok := character.CommandResponses[text]; ok {
		say(canned)
		return reply, nil
	}

	entry, ok := Resolve(character, body, next.Trust(character.ID), next.NarrativeFlags)
	if !ok || len(entry.Responses) == 0 {
		e.log.Debug("no dialogue entry", zap.String("character", character.ID))
		return reply, nil
	}

	say(e.pick(entry.Responses))
	reply.Unlocked = append(reply.Unlocked, ApplyEffects(next, character.ID, entry.Effects)...)
	e.log.Debug("character replied",
		zap.String("character", character.ID),
		zap.String("keyword", entry.Keyword),
		zap.Float64("trust", next.Trust(character.ID)),
	)
	return reply, nil
}

func (e *Engine) pick(responses []string) string {
	if len(responses) == 1 {
		return responses[0]
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return responses[e.rng.IntN(len(responses))]
}
