package interpreter

import (
	"fmt"
	"strings"

	"casefile/internal/game"
)

func (c *call) doc(kind Kind) (syntax, description string) {
	cmd := commands[kind]
	syntax, description = cmd.syntax, cmd.description
	if doc, ok := c.story.CommandDoc(cmd.name); ok {
		if doc.Syntax != "" {
			syntax = doc.Syntax
		}
		if doc.Description != "" {
			description = doc.Description
		}
	}
	return syntax, description
}

func runHelp(c *call) error {
	if name := c.arg(0); name != "" {
		kind := Lookup(strings.ToLower(name))
		if kind == KindUnknown {
			return c.fail(CodeUnknownCommand, "error_unknown_command", map[string]string{"COMMAND": name})
		}
		syntax, description := c.doc(kind)
		text := syntax + "\n  " + description
		if aliases := commands[kind].aliases; len(aliases) > 0 {
			text += "\n  aliases: " + strings.Join(aliases, ", ")
		}
		c.print(text)
		return nil
	}

	lines := []string{c.message("help_header", nil)}
	for _, kind := range Kinds() {
		syntax, description := c.doc(kind)
		lines = append(lines, fmt.Sprintf("  %-44s %s", syntax, description))
	}
	lines = append(lines, c.message("help_footer", nil))
	c.print(strings.Join(lines, "\n"))
	return nil
}

func runClear(c *call) error {
	c.emit(game.OutputClearSignal, "")
	return nil
}

func runExit(c *call) error {
	state := c.view()
	stack := state.DeviceConnectionStack
	if len(stack) == 0 {
		c.system("exit_session", nil)
		c.emit(game.OutputExitSignal, "").Source = "session"
		return nil
	}

	leaving := state.CurrentConnectedDeviceID
	frame := stack[len(stack)-1]

	next := c.mutable()
	next.DeviceConnectionStack = next.DeviceConnectionStack[:len(next.DeviceConnectionStack)-1]
	next.CurrentConnectedDeviceID = frame.DeviceID
	next.CurrentPath = frame.Path

	c.system("exit_device", map[string]string{"DEVICE": c.deviceName(leaving)})
	c.emit(game.OutputExitSignal, "").Source = "device"
	return nil
}

func runWhoami(c *call) error {
	c.print(c.message("whoami", map[string]string{"USERNAME": c.view().Username}))
	return nil
}

func runEvidence(c *call) error {
	state := c.view()
	if id := c.arg(0); id != "" {
		ev, ok := c.story.EvidenceByID(id)
		if !ok || !state.HasEvidence(id) {
			return c.fail(CodeNotFound, "error_unknown_evidence", map[string]string{"EVIDENCE": id})
		}
		c.print(fmt.Sprintf("%s [%s]\n%s", ev.Title, ev.ID, ev.Content))
		return nil
	}

	if len(state.DiscoveredEvidenceIDs) == 0 {
		c.system("evidence_none", nil)
		return nil
	}
	lines := []string{c.message("evidence_header", nil)}
	for _, id := range state.DiscoveredEvidenceIDs {
		title := id
		if ev, ok := c.story.EvidenceByID(id); ok {
			title = ev.Title
		}
		lines = append(lines, fmt.Sprintf("  %-16s %s", id, title))
	}
	c.print(strings.Join(lines, "\n"))
	return nil
}
