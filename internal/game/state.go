// Package game defines the per-session player state and the messages that
// flow between the interpreter and its caller.
package game

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"casefile/internal/story"
	"casefile/internal/vfs"
)

const (
	StageEnding = "ending"

	// FlagStoryCompleted is reserved: once true only help, clear and exit run.
	FlagStoryCompleted    = "story_completed_successfully"
	FlagAccusationCorrect = "accusation_correct"
	FlagAccusedEntity     = "accused_entity"
	FlagEndingRule        = "ending_rule"
)

type CharacterDynamicData struct {
	TrustLevel      float64 `json:"trustLevel"`
	CanChatTerminal bool    `json:"canChatTerminal"`
	CanBeContacted  bool    `json:"canBeContacted"`
}

// State is the single source of truth for a play session. Callers own it;
// operations take a snapshot and return a successor without mutating the
// input.
type State struct {
	Username                 string                          `json:"username"`
	CurrentPath              string                          `json:"currentPath"`
	CurrentConnectedDeviceID string                          `json:"currentConnectedDeviceId"`
	DeviceConnectionStack    []DeviceFrame                   `json:"deviceConnectionStack"`
	DeviceFileSystems        map[string]*vfs.Node            `json:"deviceFileSystems"`
	DiscoveredEvidenceIDs    []string                        `json:"discoveredEvidenceIds"`
	SolvedPuzzleIDs          []string                        `json:"solvedPuzzleIds"`
	NarrativeFlags           Flags                           `json:"narrativeFlags"`
	CharacterDynamicData     map[string]CharacterDynamicData `json:"characterDynamicData"`
	InboxThreads             map[string]Thread               `json:"inboxThreads"`
	TerminalChatThreads      map[string]Thread               `json:"terminalChatThreads"`
	GameStage                string                          `json:"gameStage"`
}

// DeviceFrame remembers where the cursor was on a device the player shelled
// out of.
type DeviceFrame struct {
	DeviceID string `json:"deviceId"`
	Path     string `json:"path"`
}

// New builds the initial state for a story.
func New(st *story.Story, username string, now time.Time) *State {
	s := &State{
		Username:                 username,
		CurrentConnectedDeviceID: st.StartDevice,
		DeviceConnectionStack:    []DeviceFrame{},
		DeviceFileSystems:        make(map[string]*vfs.Node, len(st.Devices)),
		DiscoveredEvidenceIDs:    []string{},
		SolvedPuzzleIDs:          []string{},
		NarrativeFlags:           make(Flags, len(st.Flags)),
		CharacterDynamicData:     make(map[string]CharacterDynamicData, len(st.Characters)),
		InboxThreads:             make(map[string]Thread),
		TerminalChatThreads:      make(map[string]Thread),
		GameStage:                st.InitialStage,
	}

	for _, device := range st.Devices {
		s.DeviceFileSystems[device.ID] = vfs.Build(device.Root)
	}
	s.CurrentPath = StartPath(st, st.StartDevice)

	for name, value := range st.Flags {
		s.NarrativeFlags.Set(name, value)
	}

	for _, character := range st.Characters {
		s.CharacterDynamicData[character.ID] = CharacterDynamicData{
			TrustLevel:      ClampTrust(character.InitialTrust),
			CanChatTerminal: character.CanChatTerminal,
			CanBeContacted:  character.CanBeContacted,
		}
	}

	stamp := now.UnixMilli()
	for _, seed := range st.Threads {
		thread := Thread{Messages: make([]Message, 0, len(seed.Messages))}
		for _, m := range seed.Messages {
			recipient := PlayerRole
			if m.From == PlayerRole {
				recipient = seed.ID
			}
			msg := NewMessage(m.From, recipient, m.Body, stamp, m.Attachments)
			thread.Messages = append(thread.Messages, msg)
			if m.From != PlayerRole {
				thread.Unread = true
			}
			thread.LastTimestamp = stamp
		}
		if seed.Channel == story.ChannelTerminal {
			s.TerminalChatThreads[seed.ID] = thread
		} else {
			s.InboxThreads[seed.ID] = thread
		}
	}

	return s
}

// StartPath is where the cursor lands when a device is entered.
func StartPath(st *story.Story, deviceID string) string {
	device, ok := st.Device(deviceID)
	if !ok || device.StartPath == "" {
		return vfs.Separator
	}
	return vfs.ResolvePath(vfs.Separator, device.StartPath)
}

// ClampTrust bounds trust to [0, 100].
func ClampTrust(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Clone returns a deep copy sharing no mutable substructure with s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.DeviceConnectionStack = slices.Clone(s.DeviceConnectionStack)
	out.DiscoveredEvidenceIDs = slices.Clone(s.DiscoveredEvidenceIDs)
	out.SolvedPuzzleIDs = slices.Clone(s.SolvedPuzzleIDs)
	out.NarrativeFlags = s.NarrativeFlags.Clone()

	out.DeviceFileSystems = make(map[string]*vfs.Node, len(s.DeviceFileSystems))
	for id, root := range s.DeviceFileSystems {
		out.DeviceFileSystems[id] = vfs.Clone(root)
	}

	out.CharacterDynamicData = make(map[string]CharacterDynamicData, len(s.CharacterDynamicData))
	for id, data := range s.CharacterDynamicData {
		out.CharacterDynamicData[id] = data
	}

	out.InboxThreads = cloneThreads(s.InboxThreads)
	out.TerminalChatThreads = cloneThreads(s.TerminalChatThreads)
	return &out
}

func cloneThreads(in map[string]Thread) map[string]Thread {
	out := make(map[string]Thread, len(in))
	for id, thread := range in {
		out[id] = thread.Clone()
	}
	return out
}

// FileSystem returns the tree of the device the cursor is on.
func (s *State) FileSystem() *vfs.Node {
	return s.DeviceFileSystems[s.CurrentConnectedDeviceID]
}

func (s *State) HasEvidence(id string) bool {
	return slices.Contains(s.DiscoveredEvidenceIDs, id)
}

// AddEvidence records an evidence id and reports whether it was new.
func (s *State) AddEvidence(id string) bool {
	if s.HasEvidence(id) {
		return false
	}
	s.DiscoveredEvidenceIDs = append(s.DiscoveredEvidenceIDs, id)
	return true
}

func (s *State) IsSolved(puzzleID string) bool {
	return slices.Contains(s.SolvedPuzzleIDs, puzzleID)
}

// MarkSolved records a puzzle and reports whether it was newly solved.
func (s *State) MarkSolved(puzzleID string) bool {
	if s.IsSolved(puzzleID) {
		return false
	}
	s.SolvedPuzzleIDs = append(s.SolvedPuzzleIDs, puzzleID)
	return true
}

// AdjustTrust applies a delta to a character's trust, clamped to [0, 100].
func (s *State) AdjustTrust(characterID string, delta float64) float64 {
	data := s.CharacterDynamicData[characterID]
	data.TrustLevel = ClampTrust(data.TrustLevel + delta)
	s.CharacterDynamicData[characterID] = data
	return data.TrustLevel
}

func (s *State) Trust(characterID string) float64 {
	return s.CharacterDynamicData[characterID].TrustLevel
}

func (s *State) Concluded() bool {
	return s.GameStage == StageEnding
}

// Threads returns the thread map for a channel.
func (s *State) Threads(channel story.Channel) map[string]Thread {
	if channel == story.ChannelTerminal {
		return s.TerminalChatThreads
	}
	return s.InboxThreads
}

// AppendMessages adds messages to a thread, creating it when needed.
// Messages not sent by the player mark the thread unread.
func (s *State) AppendMessages(channel story.Channel, threadID string, msgs ...Message) {
	threads := s.Threads(channel)
	thread := threads[threadID]
	for _, m := range msgs {
		thread.Messages = append(thread.Messages, m)
		if m.Timestamp > thread.LastTimestamp {
			thread.LastTimestamp = m.Timestamp
		}
		if m.Sender != PlayerRole {
			thread.Unread = true
		}
	}
	threads[threadID] = thread
}

// MarkRead flips the read flag on every player message in a thread, the
// moment the character "sees" them.
func (s *State) MarkRead(channel story.Channel, threadID string) {
	threads := s.Threads(channel)
	thread, ok := threads[threadID]
	if !ok {
		return
	}
	for i := range thread.Messages {
		if thread.Messages[i].Sender == PlayerRole {
			thread.Messages[i].Read = true
		}
	}
	threads[threadID] = thread
}

// MarkThreadSeen clears the player's unread marker on a thread.
func (s *State) MarkThreadSeen(channel story.Channel, threadID string) {
	threads := s.Threads(channel)
	thread, ok := threads[threadID]
	if !ok {
		return
	}
	thread.Unread = false
	for i := range thread.Messages {
		if thread.Messages[i].Sender != PlayerRole {
			thread.Messages[i].Read = true
		}
	}
	threads[threadID] = thread
}

func Marshal(s *State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return data, nil
}

func Unmarshal(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	if s.NarrativeFlags == nil {
		s.NarrativeFlags = Flags{}
	}
	if s.DeviceFileSystems == nil {
		s.DeviceFileSystems = map[string]*vfs.Node{}
	}
	if s.CharacterDynamicData == nil {
		s.CharacterDynamicData = map[string]CharacterDynamicData{}
	}
	if s.InboxThreads == nil {
		s.InboxThreads = map[string]Thread{}
	}
	if s.TerminalChatThreads == nil {
		s.TerminalChatThreads = map[string]Thread{}
	}
	if s.DeviceConnectionStack == nil {
		s.DeviceConnectionStack = []DeviceFrame{}
	}
	if s.DiscoveredEvidenceIDs == nil {
		s.DiscoveredEvidenceIDs = []string{}
	}
	if s.SolvedPuzzleIDs == nil {
		s.SolvedPuzzleIDs = []string{}
	}
	return &s, nil
}
