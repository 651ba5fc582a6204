package story

import (
	"time"

	"casefile/internal/schedule"
	"casefile/internal/vfs"
)

type Device struct {
	ID        string       `yaml:"id"`
	Name      string       `yaml:"name"`
	StartPath string       `yaml:"start_path"`
	Root      vfs.Template `yaml:"root"`
}

// CommandDoc is the help entry shown for a command.
type CommandDoc struct {
	Name        string `yaml:"name"`
	Syntax      string `yaml:"syntax"`
	Description string `yaml:"description"`
}

type Evidence struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Content    string   `yaml:"content"`
	Type       string   `yaml:"type"`
	SourcePath string   `yaml:"source_path"`
	Device     string   `yaml:"device"`
	Tags       []string `yaml:"tags"`
}

type PuzzleType string

const (
	PuzzleDecryption      PuzzleType = "decryption"
	PuzzlePasswordReset   PuzzleType = "passwordReset"
	PuzzleSmartphoneCrack PuzzleType = "smartphoneCrack"
	PuzzleOther           PuzzleType = "other"
)

func (t PuzzleType) Valid() bool {
	switch t {
	case PuzzleDecryption, PuzzlePasswordReset, PuzzleSmartphoneCrack, PuzzleOther:
		return true
	}
	return false
}

// Effects are the state changes a piece of content applies when it fires.
type Effects struct {
	TrustDelta     float64        `yaml:"trust_delta"`
	SetFlags       map[string]any `yaml:"set_flags"`
	UnlockEvidence []string       `yaml:"unlock_evidence"`
}

type Puzzle struct {
	ID   string     `yaml:"id"`
	Type PuzzleType `yaml:"type"`
	// Target is a file path for decryption, an account name for password
	// resets and a device id for smartphone cracks.
	Target          string   `yaml:"target"`
	Device          string   `yaml:"device"`
	Password        string   `yaml:"password"`
	Question        string   `yaml:"question"`
	AcceptedAnswers []string `yaml:"accepted_answers"`
	Unlocks         []string `yaml:"unlocks"`
	SuccessScript   string   `yaml:"success_script"`
	FailureScript   string   `yaml:"failure_script"`
	Effects         `yaml:",inline"`
}

// Delay is a latency profile expressed in milliseconds.
type Delay struct {
	MinMs    int `yaml:"min_ms"`
	MaxMs    int `yaml:"max_ms"`
	JitterMs int `yaml:"jitter_ms"`
}

func (d Delay) Profile() schedule.Profile {
	return schedule.Profile{
		Min:    time.Duration(d.MinMs) * time.Millisecond,
		Max:    time.Duration(d.MaxMs) * time.Millisecond,
		Jitter: time.Duration(d.JitterMs) * time.Millisecond,
	}
}

// DefaultKeyword is the reserved dialogue key used when nothing else
// matches.
const DefaultKeyword = "default"

type DialogueEntry struct {
	Keyword       string         `yaml:"keyword"`
	MinTrust      *float64       `yaml:"min_trust"`
	MaxTrust      *float64       `yaml:"max_trust"`
	RequiredFlags map[string]any `yaml:"required_flags"`
	Responses     []string       `yaml:"responses"`
	Effects       `yaml:",inline"`
}

type EvidenceResponse struct {
	Evidence string `yaml:"evidence"`
	Response string `yaml:"response"`
	Effects  `yaml:",inline"`
}

type Character struct {
	ID                      string             `yaml:"id"`
	Name                    string             `yaml:"name"`
	InitialTrust            float64            `yaml:"initial_trust"`
	CanChatTerminal         bool               `yaml:"can_chat_terminal"`
	CanBeContacted          bool               `yaml:"can_be_contacted"`
	ReadDelay               Delay              `yaml:"read_delay"`
	ReplyDelay              Delay              `yaml:"reply_delay"`
	Dialogue                []DialogueEntry    `yaml:"dialogue"`
	CommandResponses        map[string]string  `yaml:"command_responses"`
	EvidenceResponses       []EvidenceResponse `yaml:"evidence_responses"`
	DefaultEvidenceResponse *EvidenceResponse  `yaml:"default_evidence_response"`
}

// EvidenceResponseFor returns the exact response for an evidence id, the
// character default, or nil.
func (c *Character) EvidenceResponseFor(evidenceID string) *EvidenceResponse {
	if c == nil {
		return nil
	}
	for i := range c.EvidenceResponses {
		if c.EvidenceResponses[i].Evidence == evidenceID {
			return &c.EvidenceResponses[i]
		}
	}
	return c.DefaultEvidenceResponse
}

const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
)

type AccusationRule struct {
	ID               string         `yaml:"id"`
	Outcome          string         `yaml:"outcome"`
	Keywords         []string       `yaml:"keywords"`
	RequiredEvidence []string       `yaml:"required_evidence"`
	RequiredFlags    map[string]any `yaml:"required_flags"`
	Script           string         `yaml:"script"`
	SetFlags         map[string]any `yaml:"set_flags"`
}

// Wins reports whether matching the rule is a correct accusation. Rules
// without an outcome are winning rules.
func (r AccusationRule) Wins() bool {
	return r.Outcome != OutcomeLose
}

type Accusations struct {
	Rules         []AccusationRule `yaml:"rules"`
	FailureScript string           `yaml:"failure_script"`
}

type ConnectionPoint struct {
	Name           string         `yaml:"name"`
	Message        string         `yaml:"message"`
	Device         string         `yaml:"device"`
	RequiresFlag   string         `yaml:"requires_flag"`
	RequiresPuzzle string         `yaml:"requires_puzzle"`
	SetFlags       map[string]any `yaml:"set_flags"`
}

// AnalysisEntry adds an insight when a path or evidence id is analyzed.
type AnalysisEntry struct {
	Target  string `yaml:"target"`
	Insight string `yaml:"insight"`
	Effects `yaml:",inline"`
}

type SeedMessage struct {
	From        string   `yaml:"from"`
	Body        string   `yaml:"body"`
	Attachments []string `yaml:"attachments"`
}

type Channel string

const (
	ChannelInbox    Channel = "inbox"
	ChannelTerminal Channel = "terminal"
)

// ThreadSeed is a conversation present when a session starts.
type ThreadSeed struct {
	ID       string        `yaml:"id"`
	Channel  Channel       `yaml:"channel"`
	Messages []SeedMessage `yaml:"messages"`
}

type Pacing struct {
	NarrativeLineMs int `yaml:"narrative_line_ms"`
}

// PacingFor is how long a script of n lines should take to reveal.
func (s *Story) PacingFor(lines int) time.Duration {
	if s == nil || lines <= 0 {
		return 0
	}
	return time.Duration(lines*s.Pacing.NarrativeLineMs) * time.Millisecond
}
