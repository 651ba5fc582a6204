package validate

import (
	"testing"

	"casefile/internal/story"
	"casefile/internal/testkit"
)

const brokenStory = `version: 1
title: Broken
start_device: laptop
devices:
  - id: laptop
    start_path: /
    root:
      type: directory
      children:
        vault.bin:
          content: "????"
          encrypted: true
evidence:
  - id: ev_real
    title: Real
    source_path: /missing.txt
puzzles:
  - id: pz_ghost
    type: passwordReset
    target: root
    unlocks: [ev_ghost]
    success_script: nowhere
characters:
  - id: mute
    name: Mute
    initial_trust: 10
    dialogue:
      - keyword: hi
        responses: ["..."]
connections:
  - name: bridge
    device: mainframe
    requires_puzzle: pz_nope
accusations:
  failure_script: ending_missing
  rules:
    - id: r1
      required_evidence: [ev_real, ev_other]
threads:
  - id: mute
    channel: inbox
    messages:
      - from: mute
        body: "..."
  - id: stranger
    messages:
      - from: stranger
        body: "hello"
`

func TestRun_RequiresStory(t *testing.T) {
	if _, err := Run(nil); err == nil {
		t.Fatalf("expected error for nil story")
	}
}

func TestRun_FixtureIsClean(t *testing.T) {
	report, err := Run(testkit.Story(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
}

func TestRun_BrokenStory(t *testing.T) {
	st, err := story.Parse([]byte(brokenStory))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	report, err := Run(st)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []struct {
		severity Severity
		code     string
		entity   string
	}{
		{SeverityError, codeUnknownEvidence, "puzzle pz_ghost"},
		{SeverityError, codeMissingScript, "puzzle pz_ghost"},
		{SeverityWarn, codeMissingDefault, "character mute"},
		{SeverityError, codeUnknownEvidence, "accusation rule r1"},
		{SeverityError, codeMissingScript, "accusations"},
		{SeverityError, codeUnknownDevice, "connection bridge"},
		{SeverityError, codeUnknownPuzzle, "connection bridge"},
		{SeverityWarn, codeMissingSource, "evidence ev_real"},
		{SeverityWarn, codeUnguardedFile, "device laptop"},
		{SeverityWarn, codeNoPlaintext, "device laptop"},
		{SeverityWarn, codeUnreachableThread, "thread mute"},
		{SeverityError, codeUnknownCharacter, "thread stranger"},
	}

	for _, w := range want {
		if !hasIssue(report.Issues, w.severity, w.code, w.entity) {
			t.Errorf("missing %s %s for %s in %+v", w.severity, w.code, w.entity, report.Issues)
		}
	}
	if len(report.Issues) != len(want) {
		t.Fatalf("expected %d issues, got %d: %+v", len(want), len(report.Issues), report.Issues)
	}
	if got := len(report.Errors()); got != 7 {
		t.Fatalf("expected 7 errors, got %d", got)
	}
	if got := len(report.Warnings()); got != 5 {
		t.Fatalf("expected 5 warnings, got %d", got)
	}
}

func TestReport_Sort(t *testing.T) {
	report := &Report{Issues: []Issue{
		{Severity: SeverityWarn, Code: "b", Entity: "a"},
		{Severity: SeverityError, Code: "z", Entity: "b"},
		{Severity: SeverityError, Code: "a", Entity: "b"},
		{Severity: SeverityError, Code: "a", Entity: "a"},
	}}
	report.Sort()

	got := make([]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		got = append(got, string(issue.Severity)+"/"+issue.Entity+"/"+issue.Code)
	}
	want := []string{"error/a/a", "error/b/a", "error/b/z", "warning/a/b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
}

func hasIssue(issues []Issue, severity Severity, code, entity string) bool {
	for _, issue := range issues {
		if issue.Severity == severity && issue.Code == code && issue.Entity == entity {
			return true
		}
	}
	return false
}
