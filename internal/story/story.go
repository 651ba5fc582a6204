// Package story holds the read-only content bundle a play session runs
// against: devices, evidence, puzzles, characters, scripts and templates.
package story

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"casefile/internal/vfs"
)

type Story struct {
	Version      int                 `yaml:"version"`
	Title        string              `yaml:"title"`
	StartDevice  string              `yaml:"start_device"`
	InitialStage string              `yaml:"initial_stage"`
	Devices      []Device            `yaml:"devices"`
	Commands     []CommandDoc        `yaml:"commands"`
	Evidence     []Evidence          `yaml:"evidence"`
	EvidenceDirs []string            `yaml:"evidence_dirs"`
	Puzzles      []Puzzle            `yaml:"puzzles"`
	Characters   []Character         `yaml:"characters"`
	Scripts      map[string][]string `yaml:"scripts"`
	Messages     map[string]string   `yaml:"messages"`
	Accusations  Accusations         `yaml:"accusations"`
	Connections  []ConnectionPoint   `yaml:"connections"`
	Analysis     []AnalysisEntry     `yaml:"analysis"`
	Flags        map[string]any      `yaml:"flags"`
	Threads      []ThreadSeed        `yaml:"threads"`
	Pacing       Pacing              `yaml:"pacing"`

	deviceIndex     map[string]*Device
	evidenceIndex   map[string]*Evidence
	sourceIndex     map[string][]*Evidence
	puzzleIndex     map[string]*Puzzle
	characterIndex  map[string]*Character
	connectionIndex map[string]*ConnectionPoint
	analysisIndex   map[string]*AnalysisEntry
	commandIndex    map[string]*CommandDoc
}

const DefaultStage = "introduction"

// LoadStory reads a story file and any markdown evidence directories it
// names, relative to the story file.
func LoadStory(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading story: %w", err)
	}

	var st Story
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("loading story: %w", err)
	}

	baseDir := filepath.Dir(path)
	for _, dir := range st.EvidenceDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		docs, err := loadEvidenceDir(dir)
		if err != nil {
			return nil, fmt.Errorf("loading story: %w", err)
		}
		st.Evidence = append(st.Evidence, docs...)
	}

	if err := st.prepare(); err != nil {
		return nil, fmt.Errorf("loading story: %w", err)
	}
	return &st, nil
}

// Parse decodes a story from YAML. Evidence directories are ignored.
func Parse(data []byte) (*Story, error) {
	var st Story
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing story: %w", err)
	}
	if err := st.prepare(); err != nil {
		return nil, fmt.Errorf("parsing story: %w", err)
	}
	return &st, nil
}

func (s *Story) prepare() error {
	if err := validateStory(s); err != nil {
		return err
	}
	if s.InitialStage == "" {
		s.InitialStage = DefaultStage
	}
	s.buildIndexes()
	return nil
}

func validateStory(s *Story) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported version: %d", s.Version)
	}
	if len(s.Devices) == 0 {
		return fmt.Errorf("at least one device is required")
	}

	devices := make(map[string]struct{})
	for i, device := range s.Devices {
		if strings.TrimSpace(device.ID) == "" {
			return fmt.Errorf("device %d id is required", i)
		}
		if _, exists := devices[device.ID]; exists {
			return fmt.Errorf("duplicate device id: %s", device.ID)
		}
		devices[device.ID] = struct{}{}
		if root := vfs.Build(device.Root); !root.IsDir() {
			return fmt.Errorf("device %s root must be a directory", device.ID)
		}
	}
	if strings.TrimSpace(s.StartDevice) == "" {
		return fmt.Errorf("start device is required")
	}
	if _, ok := devices[s.StartDevice]; !ok {
		return fmt.Errorf("start device %s is not defined", s.StartDevice)
	}

	if err := uniqueIDs("evidence", len(s.Evidence), func(i int) string { return s.Evidence[i].ID }); err != nil {
		return err
	}
	if err := uniqueIDs("puzzle", len(s.Puzzles), func(i int) string { return s.Puzzles[i].ID }); err != nil {
		return err
	}
	if err := uniqueIDs("character", len(s.Characters), func(i int) string { return s.Characters[i].ID }); err != nil {
		return err
	}

	for _, puzzle := range s.Puzzles {
		if !puzzle.Type.Valid() {
			return fmt.Errorf("puzzle %s has unknown type: %s", puzzle.ID, puzzle.Type)
		}
		if strings.TrimSpace(puzzle.Target) == "" && puzzle.Type != PuzzleOther {
			return fmt.Errorf("puzzle %s target is required", puzzle.ID)
		}
	}

	for _, rule := range s.Accusations.Rules {
		if rule.Outcome != "" && rule.Outcome != OutcomeWin && rule.Outcome != OutcomeLose {
			return fmt.Errorf("accusation rule %s has unknown outcome: %s", rule.ID, rule.Outcome)
		}
	}

	for _, character := range s.Characters {
		if character.InitialTrust < 0 || character.InitialTrust > 100 {
			return fmt.Errorf("character %s initial trust must be within 0-100", character.ID)
		}
	}

	for i, point := range s.Connections {
		if strings.TrimSpace(point.Name) == "" {
			return fmt.Errorf("connection %d name is required", i)
		}
	}

	return nil
}

func uniqueIDs(kind string, n int, id func(int) string) error {
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		value := strings.TrimSpace(id(i))
		if value == "" {
			return fmt.Errorf("%s %d id is required", kind, i)
		}
		if _, exists := seen[value]; exists {
			return fmt.Errorf("duplicate %s id: %s", kind, value)
		}
		seen[value] = struct{}{}
	}
	return nil
}

func (s *Story) buildIndexes() {
	s.deviceIndex = make(map[string]*Device, len(s.Devices))
	for i := range s.Devices {
		s.deviceIndex[s.Devices[i].ID] = &s.Devices[i]
	}

	s.evidenceIndex = make(map[string]*Evidence, len(s.Evidence))
	s.sourceIndex = make(map[string][]*Evidence)
	for i := range s.Evidence {
		ev := &s.Evidence[i]
		s.evidenceIndex[ev.ID] = ev
		if ev.SourcePath != "" {
			key := vfs.ResolvePath(vfs.Separator, ev.SourcePath)
			s.sourceIndex[key] = append(s.sourceIndex[key], ev)
		}
	}

	s.puzzleIndex = make(map[string]*Puzzle, len(s.Puzzles))
	for i := range s.Puzzles {
		s.puzzleIndex[s.Puzzles[i].ID] = &s.Puzzles[i]
	}

	s.characterIndex = make(map[string]*Character, len(s.Characters))
	for i := range s.Characters {
		s.characterIndex[strings.ToLower(s.Characters[i].ID)] = &s.Characters[i]
	}

	s.connectionIndex = make(map[string]*ConnectionPoint, len(s.Connections))
	for i := range s.Connections {
		s.connectionIndex[strings.ToLower(s.Connections[i].Name)] = &s.Connections[i]
	}

	s.analysisIndex = make(map[string]*AnalysisEntry, len(s.Analysis))
	for i := range s.Analysis {
		s.analysisIndex[analysisKey(s.Analysis[i].Target)] = &s.Analysis[i]
	}

	s.commandIndex = make(map[string]*CommandDoc, len(s.Commands))
	for i := range s.Commands {
		s.commandIndex[strings.ToLower(s.Commands[i].Name)] = &s.Commands[i]
	}
}

func analysisKey(target string) string {
	if strings.HasPrefix(target, vfs.Separator) {
		return vfs.ResolvePath(vfs.Separator, target)
	}
	return strings.ToLower(strings.TrimSpace(target))
}

func (s *Story) Device(id string) (*Device, bool) {
	if s == nil {
		return nil, false
	}
	device, ok := s.deviceIndex[id]
	return device, ok
}

func (s *Story) EvidenceByID(id string) (*Evidence, bool) {
	if s == nil {
		return nil, false
	}
	ev, ok := s.evidenceIndex[id]
	return ev, ok
}

// EvidenceForSource returns the evidence registered for a file path on a
// device. Evidence without a device matches every device.
func (s *Story) EvidenceForSource(deviceID, path string) []*Evidence {
	if s == nil {
		return nil
	}
	var out []*Evidence
	for _, ev := range s.sourceIndex[path] {
		if ev.Device == "" || ev.Device == deviceID {
			out = append(out, ev)
		}
	}
	return out
}

func (s *Story) PuzzleByID(id string) (*Puzzle, bool) {
	if s == nil {
		return nil, false
	}
	puzzle, ok := s.puzzleIndex[id]
	return puzzle, ok
}

// PuzzleFor finds the first puzzle of a type whose target matches. File
// targets are compared as resolved absolute paths, other targets without
// regard to case.
func (s *Story) PuzzleFor(puzzleType PuzzleType, deviceID, target string) (*Puzzle, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Puzzles {
		puzzle := &s.Puzzles[i]
		if puzzle.Type != puzzleType {
			continue
		}
		if puzzle.Device != "" && deviceID != "" && puzzle.Device != deviceID {
			continue
		}
		if puzzleType == PuzzleDecryption {
			if vfs.ResolvePath(vfs.Separator, puzzle.Target) == target {
				return puzzle, true
			}
			continue
		}
		if strings.EqualFold(puzzle.Target, target) {
			return puzzle, true
		}
	}
	return nil, false
}

func (s *Story) Character(id string) (*Character, bool) {
	if s == nil {
		return nil, false
	}
	character, ok := s.characterIndex[strings.ToLower(id)]
	return character, ok
}

func (s *Story) Connection(name string) (*ConnectionPoint, bool) {
	if s == nil {
		return nil, false
	}
	point, ok := s.connectionIndex[strings.ToLower(strings.TrimSpace(name))]
	return point, ok
}

// AnalysisFor looks up an insight by absolute path or by target name.
func (s *Story) AnalysisFor(target string) (*AnalysisEntry, bool) {
	if s == nil {
		return nil, false
	}
	entry, ok := s.analysisIndex[analysisKey(target)]
	return entry, ok
}

// CommandDoc returns the help entry the story defines for a command, if any.
func (s *Story) CommandDoc(name string) (*CommandDoc, bool) {
	if s == nil {
		return nil, false
	}
	doc, ok := s.commandIndex[strings.ToLower(name)]
	return doc, ok
}

func (s *Story) Script(name string) []string {
	if s == nil || name == "" {
		return nil
	}
	return s.Scripts[name]
}
