// Package validate reports content problems in a story that load-time
// checks let through: dangling references, unreachable evidence and
// missing scripts.
package validate

import (
	"fmt"
	"sort"

	"casefile/internal/story"
	"casefile/internal/vfs"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnknownEvidence   = "unknown_evidence"
	codeUnknownDevice     = "unknown_device"
	codeUnknownPuzzle     = "unknown_puzzle"
	codeMissingScript     = "missing_script"
	codeMissingSource     = "evidence_source_missing"
	codeUnguardedFile     = "encrypted_file_unguarded"
	codeNoPlaintext       = "encrypted_file_no_plaintext"
	codeMissingDefault    = "missing_default_dialogue"
	codeUnknownCharacter  = "unknown_character"
	codeUnreachableThread = "thread_character_unreachable"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Entity   string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarn)
}

func (r *Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

type checker struct {
	st     *story.Story
	issues []Issue
}

func Run(st *story.Story) (*Report, error) {
	if st == nil {
		return nil, fmt.Errorf("story is required")
	}

	c := &checker{st: st}
	c.checkPuzzles()
	c.checkCharacters()
	c.checkAccusations()
	c.checkConnections()
	c.checkAnalysis()
	c.checkEvidenceSources()
	c.checkEncryptedFiles()
	c.checkThreads()

	return &Report{Issues: c.issues}, nil
}

func (c *checker) add(severity Severity, code, entity, format string, args ...any) {
	c.issues = append(c.issues, Issue{
		Severity: severity,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Entity:   entity,
	})
}

func (c *checker) evidence(entity string, ids ...string) {
	for _, id := range ids {
		if _, ok := c.st.EvidenceByID(id); !ok {
			c.add(SeverityError, codeUnknownEvidence, entity, "references unknown evidence %s", id)
		}
	}
}

func (c *checker) device(entity, id string) {
	if id == "" {
		return
	}
	if _, ok := c.st.Device(id); !ok {
		c.add(SeverityError, codeUnknownDevice, entity, "references unknown device %s", id)
	}
}

func (c *checker) script(entity, name string) {
	if name == "" {
		return
	}
	if _, ok := c.st.Scripts[name]; !ok {
		c.add(SeverityError, codeMissingScript, entity, "script %s is not defined", name)
	}
}

func (c *checker) checkPuzzles() {
	for _, puzzle := range c.st.Puzzles {
		entity := "puzzle " + puzzle.ID
		c.evidence(entity, puzzle.Unlocks...)
		c.evidence(entity, puzzle.UnlockEvidence...)
		c.device(entity, puzzle.Device)
		if puzzle.Type == story.PuzzleSmartphoneCrack {
			c.device(entity, puzzle.Target)
		}
		c.script(entity, puzzle.SuccessScript)
		c.script(entity, puzzle.FailureScript)
	}
}

func (c *checker) checkCharacters() {
	for _, character := range c.st.Characters {
		entity := "character " + character.ID
		hasDefault := false
		for _, entry := range character.Dialogue {
			if entry.Keyword == story.DefaultKeyword {
				hasDefault = true
			}
			c.evidence(entity, entry.UnlockEvidence...)
		}
		if !hasDefault {
			c.add(SeverityWarn, codeMissingDefault, entity, "has no %q dialogue entry", story.DefaultKeyword)
		}
		for _, response := range character.EvidenceResponses {
			c.evidence(entity, response.Evidence)
			c.evidence(entity, response.UnlockEvidence...)
		}
		if response := character.DefaultEvidenceResponse; response != nil {
			c.evidence(entity, response.UnlockEvidence...)
		}
	}
}

func (c *checker) checkAccusations() {
	for _, rule := range c.st.Accusations.Rules {
		entity := "accusation rule " + rule.ID
		c.evidence(entity, rule.RequiredEvidence...)
		c.script(entity, rule.Script)
	}
	c.script("accusations", c.st.Accusations.FailureScript)
}

func (c *checker) checkConnections() {
	for _, point := range c.st.Connections {
		entity := "connection " + point.Name
		c.device(entity, point.Device)
		if point.RequiresPuzzle == "" {
			continue
		}
		if _, ok := c.st.PuzzleByID(point.RequiresPuzzle); !ok {
			c.add(SeverityError, codeUnknownPuzzle, entity, "requires unknown puzzle %s", point.RequiresPuzzle)
		}
	}
}

func (c *checker) checkAnalysis() {
	for _, entry := range c.st.Analysis {
		c.evidence("analysis "+entry.Target, entry.UnlockEvidence...)
	}
}

// checkEvidenceSources warns about evidence whose source file exists on no
// device, so reading files can never discover it.
func (c *checker) checkEvidenceSources() {
	files := c.deviceFiles()
	for _, ev := range c.st.Evidence {
		if ev.SourcePath == "" {
			continue
		}
		c.device("evidence "+ev.ID, ev.Device)
		path := vfs.ResolvePath(vfs.Separator, ev.SourcePath)
		found := false
		for deviceID, paths := range files {
			if ev.Device != "" && ev.Device != deviceID {
				continue
			}
			if _, ok := paths[path]; ok {
				found = true
				break
			}
		}
		if !found {
			c.add(SeverityWarn, codeMissingSource, "evidence "+ev.ID, "source %s does not exist on any device", path)
		}
	}
}

func (c *checker) checkEncryptedFiles() {
	for _, device := range c.st.Devices {
		vfs.Walk(vfs.Build(device.Root), func(path string, node *vfs.Node) {
			if !node.IsFile() || !node.IsEncrypted {
				return
			}
			if node.DecryptedContent == "" {
				c.add(SeverityWarn, codeNoPlaintext, "device "+device.ID, "encrypted file %s has no decrypted_content", path)
			}
			if node.Password != "" {
				return
			}
			if _, ok := c.st.PuzzleFor(story.PuzzleDecryption, device.ID, path); ok {
				return
			}
			c.add(SeverityWarn, codeUnguardedFile, "device "+device.ID, "encrypted file %s has no password or puzzle", path)
		})
	}
}

func (c *checker) checkThreads() {
	for _, thread := range c.st.Threads {
		entity := "thread " + thread.ID
		character, ok := c.st.Character(thread.ID)
		if !ok {
			c.add(SeverityError, codeUnknownCharacter, entity, "names unknown character %s", thread.ID)
			continue
		}
		reachable := character.CanBeContacted
		if thread.Channel == story.ChannelTerminal {
			reachable = character.CanChatTerminal
		}
		if !reachable {
			c.add(SeverityWarn, codeUnreachableThread, entity, "%s cannot reply on the %s channel", character.ID, thread.Channel)
		}
	}
}

func (c *checker) deviceFiles() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(c.st.Devices))
	for _, device := range c.st.Devices {
		paths := make(map[string]struct{})
		vfs.Walk(vfs.Build(device.Root), func(path string, node *vfs.Node) {
			if node.IsFile() {
				paths[path] = struct{}{}
			}
		})
		out[device.ID] = paths
	}
	return out
}

// Sort orders issues by severity, then entity, then code.
func (r *Report) Sort() {
	rank := map[Severity]int{SeverityError: 0, SeverityWarn: 1}
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if rank[a.Severity] != rank[b.Severity] {
			return rank[a.Severity] < rank[b.Severity]
		}
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		return a.Code < b.Code
	})
}
