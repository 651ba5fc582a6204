package interpreter

import (
	"casefile/internal/dialogue"
	"casefile/internal/game"
	"casefile/internal/shell"
	"casefile/internal/story"
)

func runSubmitEvidence(c *call) error {
	if len(c.cmd.Args) < 2 {
		return c.usage()
	}
	characterID, evidenceID := c.arg(0), c.arg(1)

	character, ok := c.story.Character(characterID)
	if !ok {
		return c.fail(CodeNotFound, "error_unknown_character", map[string]string{"CHARACTER": characterID})
	}
	if !c.view().HasEvidence(evidenceID) {
		return c.fail(CodePrecondition, "error_unknown_evidence", map[string]string{"EVIDENCE": evidenceID})
	}

	vars := map[string]string{"CHARACTER": displayName(character), "EVIDENCE": evidenceID}
	resp := character.EvidenceResponseFor(evidenceID)
	if resp == nil {
		c.system("submit_ack", vars)
		return nil
	}

	if c.view().NarrativeFlags.Bool(dialogue.SubmittedFlag(character.ID, evidenceID)) {
		c.say(character, resp.Response)
		c.system("submit_already", vars)
		return nil
	}

	reaction := dialogue.ReactToEvidence(c.mutable(), character, evidenceID)
	c.say(character, reaction.Text)
	c.announce(reaction.Unlocked)
	return nil
}

func (c *call) say(character *story.Character, text string) {
	if text == "" {
		return
	}
	out := c.emit(game.OutputText, displayName(character)+": "+text)
	out.Source = character.ID
}

func displayName(character *story.Character) string {
	if character.Name != "" {
		return character.Name
	}
	return character.ID
}

func runConnect(c *call) error {
	target := shell.Join(c.cmd.Args)
	if target == "" {
		return c.usage()
	}
	vars := map[string]string{"TARGET": target}

	point, ok := c.story.Connection(target)
	if !ok {
		return c.fail(CodeNotFound, "connect_failure", vars)
	}
	state := c.view()
	if point.RequiresFlag != "" && !state.NarrativeFlags.Bool(point.RequiresFlag) {
		return c.fail(CodePrecondition, "connect_denied", vars)
	}
	if point.RequiresPuzzle != "" && !state.IsSolved(point.RequiresPuzzle) {
		return c.fail(CodePrecondition, "connect_denied", vars)
	}
	if point.Device != "" {
		if _, ok := c.story.Device(point.Device); !ok {
			return c.fail(CodeNotFound, "error_unknown_device", map[string]string{"DEVICE": point.Device})
		}
	}

	if point.Message != "" {
		c.emit(game.OutputSystem, point.Message)
	} else {
		c.system("connect_success", vars)
	}
	c.apply("", story.Effects{SetFlags: point.SetFlags})
	if point.Device != "" {
		c.enter(point.Device)
	}
	return nil
}
