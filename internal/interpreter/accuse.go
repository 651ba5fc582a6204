package interpreter

import (
	"strings"

	"casefile/internal/dialogue"
	"casefile/internal/game"
	"casefile/internal/shell"
	"casefile/internal/story"
)

// Verdict is the result of weighing an accusation against the rules.
type Verdict struct {
	// RuleID is empty when no rule matched.
	RuleID   string
	Correct  bool
	Accused  string
	Script   string
	SetFlags map[string]any
}

// ResolveAccusation evaluates rules in declaration order. A rule matches
// when one of its keywords occurs in the accusation, every required
// evidence id has been discovered and every required flag holds. Rules
// without keywords match any accusation.
func ResolveAccusation(accused string, state *game.State, st *story.Story) Verdict {
	text := dialogue.Normalize(accused)
	for _, rule := range st.Accusations.Rules {
		if !mentions(text, rule.Keywords) {
			continue
		}
		if !hasAll(state, rule.RequiredEvidence) {
			continue
		}
		if !state.NarrativeFlags.Matches(rule.RequiredFlags) {
			continue
		}
		return Verdict{
			RuleID:   rule.ID,
			Correct:  rule.Wins(),
			Accused:  accused,
			Script:   rule.Script,
			SetFlags: rule.SetFlags,
		}
	}
	return Verdict{Accused: accused, Script: st.Accusations.FailureScript}
}

func mentions(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, keyword := range keywords {
		if k := dialogue.Normalize(keyword); k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func hasAll(state *game.State, ids []string) bool {
	for _, id := range ids {
		if !state.HasEvidence(id) {
			return false
		}
	}
	return true
}

func runAccuse(c *call) error {
	accused := shell.Join(c.cmd.Args)
	if accused == "" {
		return c.usage()
	}

	verdict := ResolveAccusation(accused, c.view(), c.story)

	next := c.mutable()
	next.GameStage = game.StageEnding
	next.NarrativeFlags.Set(game.FlagAccusationCorrect, verdict.Correct)
	next.NarrativeFlags.Set(game.FlagAccusedEntity, verdict.Accused)
	next.NarrativeFlags.Set(game.FlagEndingRule, verdict.RuleID)
	for name, value := range verdict.SetFlags {
		next.NarrativeFlags.Set(name, value)
	}

	vars := map[string]string{"ACCUSED": accused}
	if verdict.Correct {
		c.system("accuse_success", vars)
	} else {
		c.system("accuse_failure", vars)
	}
	c.narrate(verdict.Script)
	return nil
}
