package interpreter

import (
	"slices"
	"strings"

	"casefile/internal/dialogue"
	"casefile/internal/game"
	"casefile/internal/shell"
	"casefile/internal/story"
	"casefile/internal/vfs"
)

// apply writes content effects to the successor state and reports any
// evidence they unlocked.
func (c *call) apply(characterID string, fx story.Effects) {
	if !hasEffects(fx) {
		return
	}
	c.announce(dialogue.ApplyEffects(c.mutable(), characterID, fx))
}

// solve marks a puzzle solved and releases what it guards. Solving twice is
// a no-op.
func (c *call) solve(puzzle *story.Puzzle) {
	if c.view().IsSolved(puzzle.ID) {
		return
	}
	next := c.mutable()
	next.MarkSolved(puzzle.ID)

	var unlocked []string
	for _, id := range puzzle.Unlocks {
		if next.AddEvidence(id) {
			unlocked = append(unlocked, id)
		}
	}
	c.announce(unlocked)
	c.apply("", puzzle.Effects)
	c.narrate(puzzle.SuccessScript)
}

// enter moves the cursor onto another device, remembering where it was.
func (c *call) enter(deviceID string) {
	if c.view().CurrentConnectedDeviceID == deviceID {
		return
	}
	next := c.mutable()
	next.DeviceConnectionStack = append(next.DeviceConnectionStack, game.DeviceFrame{
		DeviceID: next.CurrentConnectedDeviceID,
		Path:     next.CurrentPath,
	})
	next.CurrentConnectedDeviceID = deviceID
	next.CurrentPath = game.StartPath(c.story, deviceID)
}

func runDecrypt(c *call) error {
	if len(c.cmd.Args) < 2 {
		return c.usage()
	}
	target := c.arg(0)
	password := shell.Join(c.cmd.Args[1:])

	state := c.view()
	path := c.resolve(target)
	node, err := vfs.Lookup(state.FileSystem(), path)
	if err != nil {
		return c.fsError(err, target)
	}
	if !node.IsFile() {
		return c.fsError(vfs.ErrNotAFile, target)
	}
	if !node.IsEncrypted {
		return c.fsError(vfs.ErrNotEncrypted, target)
	}

	expected := node.Password
	puzzle, hasPuzzle := c.story.PuzzleFor(story.PuzzleDecryption, state.CurrentConnectedDeviceID, path)
	if hasPuzzle && puzzle.Password != "" {
		expected = puzzle.Password
	}
	if expected == "" || password != expected {
		return c.fail(CodePrecondition, "decrypt_invalid_password", map[string]string{"TARGET": target})
	}

	next := c.mutable()
	root, err := vfs.Decrypt(next.FileSystem(), path)
	if err != nil {
		return err
	}
	next.DeviceFileSystems[next.CurrentConnectedDeviceID] = root

	c.system("decrypt_success", map[string]string{"TARGET": target})
	if content, err := vfs.ReadFile(path, root); err == nil && content != "" {
		c.print(content)
	}
	if hasPuzzle {
		c.solve(puzzle)
	}
	c.discover(path)
	return nil
}

func runResetPassword(c *call) error {
	args := c.cmd.Args
	flag := slices.Index(args, "--q")
	if flag != 1 || len(args) < 3 {
		return c.usage()
	}
	account := args[0]
	answer := shell.Join(args[flag+1:])

	vars := map[string]string{"ACCOUNT": account}
	puzzle, ok := c.story.PuzzleFor(story.PuzzlePasswordReset, "", account)
	if !ok {
		return c.fail(CodeNotFound, "error_unknown_account", vars)
	}
	if c.view().IsSolved(puzzle.ID) {
		return c.fail(CodePrecondition, "reset_already_done", vars)
	}

	if !acceptsAnswer(puzzle.AcceptedAnswers, answer) {
		err := c.fail(CodePrecondition, "reset_failure", vars)
		err.Narrative = c.story.Script(puzzle.FailureScript)
		return err
	}

	c.system("reset_success", vars)
	c.solve(puzzle)
	return nil
}

func acceptsAnswer(accepted []string, answer string) bool {
	given := dialogue.Normalize(answer)
	if given == "" {
		return false
	}
	for _, candidate := range accepted {
		if dialogue.Normalize(candidate) == given {
			return true
		}
	}
	return false
}

func runCrack(c *call) error {
	if len(c.cmd.Args) < 2 {
		return c.usage()
	}
	target := c.arg(0)
	pin := strings.TrimSpace(c.arg(1))

	puzzle, ok := c.story.PuzzleFor(story.PuzzleSmartphoneCrack, "", target)
	if !ok {
		return c.fail(CodeNotFound, "error_unknown_device", map[string]string{"DEVICE": target})
	}
	vars := map[string]string{"DEVICE": c.deviceName(puzzle.Target)}
	if c.view().IsSolved(puzzle.ID) {
		return c.fail(CodePrecondition, "crack_already_done", vars)
	}
	if pin != puzzle.Password {
		err := c.fail(CodePrecondition, "crack_failure", vars)
		err.Narrative = c.story.Script(puzzle.FailureScript)
		return err
	}

	c.system("crack_success", vars)
	c.solve(puzzle)
	if _, ok := c.story.Device(puzzle.Target); ok {
		c.enter(puzzle.Target)
	}
	return nil
}
