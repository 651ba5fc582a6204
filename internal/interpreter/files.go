package interpreter

import (
	"errors"
	"strings"

	"casefile/internal/story"
	"casefile/internal/vfs"
)

func (c *call) resolve(target string) string {
	return vfs.ResolvePath(c.view().CurrentPath, target)
}

func (c *call) fsError(err error, target string) error {
	vars := map[string]string{"TARGET": target}
	switch {
	case errors.Is(err, vfs.ErrNotFound):
		return c.fail(CodeNotFound, "error_not_found", vars)
	case errors.Is(err, vfs.ErrNotADirectory):
		return c.fail(CodeTypeMismatch, "error_not_a_directory", vars)
	case errors.Is(err, vfs.ErrNotAFile):
		return c.fail(CodeTypeMismatch, "error_not_a_file", vars)
	case errors.Is(err, vfs.ErrEncrypted):
		return c.fail(CodePrecondition, "error_file_encrypted", vars)
	case errors.Is(err, vfs.ErrNotEncrypted):
		return c.fail(CodePrecondition, "decrypt_not_encrypted", vars)
	}
	return err
}

// discover records evidence whose source is path on the current device.
// Nothing is written when every match is already known.
func (c *call) discover(path string) {
	state := c.view()
	var found []string
	for _, ev := range c.story.EvidenceForSource(state.CurrentConnectedDeviceID, path) {
		if !state.HasEvidence(ev.ID) {
			found = append(found, ev.ID)
		}
	}
	if len(found) == 0 {
		return
	}
	next := c.mutable()
	for _, id := range found {
		next.AddEvidence(id)
	}
	c.announce(found)
}

func runList(c *call) error {
	target := c.arg(0)
	if target == "" {
		target = "."
	}
	entries, err := vfs.List(c.resolve(target), c.view().FileSystem())
	if err != nil {
		return c.fsError(err, target)
	}
	if len(entries) == 0 {
		c.system("ls_empty", nil)
		return nil
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name
		if entry.Type == vfs.TypeDirectory {
			name += vfs.Separator
		}
		lines = append(lines, name)
	}
	c.print(strings.Join(lines, "\n"))
	return nil
}

func runChangeDir(c *call) error {
	target := c.arg(0)
	if target == "" {
		return c.usage()
	}
	path := c.resolve(target)
	node, err := vfs.Lookup(c.view().FileSystem(), path)
	if err != nil {
		return c.fsError(err, target)
	}
	if !node.IsDir() {
		return c.fsError(vfs.ErrNotADirectory, target)
	}
	c.mutable().CurrentPath = path
	return nil
}

func runRead(c *call) error {
	target := c.arg(0)
	if target == "" {
		return c.usage()
	}
	path := c.resolve(target)
	content, err := vfs.ReadFile(path, c.view().FileSystem())
	if err != nil {
		return c.fsError(err, target)
	}
	c.print(content)
	c.discover(path)
	return nil
}

func runAnalyze(c *call) error {
	target := c.arg(0)
	if target == "" {
		return c.usage()
	}

	if c.view().HasEvidence(target) {
		ev, ok := c.story.EvidenceByID(target)
		if !ok {
			return c.fail(CodeNotFound, "error_unknown_evidence", map[string]string{"EVIDENCE": target})
		}
		c.system("analysis_header", map[string]string{"TARGET": ev.Title})
		c.print(ev.Content)
		if !c.insight(target) {
			c.system("analysis_nothing", map[string]string{"TARGET": ev.Title})
		}
		return nil
	}

	path := c.resolve(target)
	node, err := vfs.Lookup(c.view().FileSystem(), path)
	if errors.Is(err, vfs.ErrNotFound) && c.analyzeName(target) {
		return nil
	}
	if err != nil {
		return c.fsError(err, target)
	}
	if !node.IsFile() {
		return c.fsError(vfs.ErrNotAFile, target)
	}
	if node.IsEncrypted {
		return c.fsError(vfs.ErrEncrypted, target)
	}

	c.system("analysis_header", map[string]string{"TARGET": target})
	found := false
	if node.CanAnalyze && node.AnalysisResult != "" {
		c.print(node.AnalysisResult)
		found = true
	}
	if c.insight(path) || c.insight(vfs.Base(path)) {
		found = true
	}
	if !found {
		c.system("analysis_nothing", map[string]string{"TARGET": target})
	}
	c.discover(path)
	return nil
}

// analyzeName handles targets that are not files: devices, people or
// other names the story keys insights by. Undiscovered evidence ids stay
// hidden.
func (c *call) analyzeName(target string) bool {
	if strings.Contains(target, vfs.Separator) {
		return false
	}
	if _, isEvidence := c.story.EvidenceByID(target); isEvidence {
		return false
	}
	if _, ok := c.story.AnalysisFor(target); !ok {
		return false
	}
	c.system("analysis_header", map[string]string{"TARGET": target})
	c.insight(target)
	return true
}

// insight prints and applies the analysis entry for key, if any.
func (c *call) insight(key string) bool {
	entry, ok := c.story.AnalysisFor(key)
	if !ok {
		return false
	}
	if entry.Insight != "" {
		c.print(entry.Insight)
	}
	c.apply("", entry.Effects)
	return true
}

func runPwd(c *call) error {
	state := c.view()
	c.print(c.message("pwd", map[string]string{
		"DEVICE": state.CurrentConnectedDeviceID,
		"PATH":   state.CurrentPath,
	}))
	return nil
}

func hasEffects(fx story.Effects) bool {
	return fx.TrustDelta != 0 || len(fx.SetFlags) > 0 || len(fx.UnlockEvidence) > 0
}
