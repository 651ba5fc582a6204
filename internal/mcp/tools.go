package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"casefile/internal/game"
	"casefile/internal/interpreter"
	"casefile/internal/story"
)

type RunCommandInput struct {
	Command string `json:"command" jsonschema:"one line of terminal input, e.g. ls /docs"`
}

type SendMessageInput struct {
	Character   string   `json:"character" jsonschema:"character id"`
	Body        string   `json:"body,omitempty" jsonschema:"message text"`
	Channel     string   `json:"channel,omitempty" jsonschema:"inbox or terminal, defaults to inbox"`
	Attachments []string `json:"attachments,omitempty" jsonschema:"evidence ids to attach"`
}

type GetStatusInput struct{}

type ListEvidenceInput struct{}

type ReadThreadInput struct {
	Character string `json:"character" jsonschema:"character id"`
	Channel   string `json:"channel,omitempty" jsonschema:"inbox or terminal, defaults to inbox"`
	MarkRead  bool   `json:"mark_read,omitempty" jsonschema:"mark character messages as read"`
}

type SaveGameInput struct {
	Slot string `json:"slot" jsonschema:"save slot name"`
}

type OutputLine struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

type RunCommandOutput struct {
	Output   []OutputLine `json:"output"`
	Error    string       `json:"error,omitempty"`
	Code     string       `json:"code,omitempty"`
	PacingMs int64        `json:"pacing_ms,omitempty"`
	Device   string       `json:"device"`
	Path     string       `json:"path"`
}

type SendMessageOutput struct {
	Pending int `json:"pending"`
}

type GetStatusOutput struct {
	Story     string             `json:"story"`
	Username  string             `json:"username"`
	Stage     string             `json:"stage"`
	Device    string             `json:"device"`
	Path      string             `json:"path"`
	Evidence  int                `json:"evidence"`
	Solved    []string           `json:"solved"`
	Trust     map[string]float64 `json:"trust"`
	Pending   int                `json:"pending"`
	Concluded bool               `json:"concluded"`
}

type EvidenceOutput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type ListEvidenceOutput struct {
	Evidence []EvidenceOutput `json:"evidence"`
}

type MessageOutput struct {
	Sender      string   `json:"sender"`
	Body        string   `json:"body"`
	Timestamp   int64    `json:"timestamp"`
	Read        bool     `json:"read"`
	Attachments []string `json:"attachments,omitempty"`
}

type ReadThreadOutput struct {
	Messages []MessageOutput `json:"messages"`
	Unread   bool            `json:"unread"`
}

type SaveGameOutput struct {
	Slot string `json:"slot"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "run_command",
		Description: "Run one terminal command against the investigation",
	}, s.handleRunCommand)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "send_message",
		Description: "Send a chat message to a character; the reply arrives later",
	}, s.handleSendMessage)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_status",
		Description: "Summarise the current investigation state",
	}, s.handleGetStatus)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_evidence",
		Description: "List discovered evidence",
	}, s.handleListEvidence)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "read_thread",
		Description: "Read a conversation with a character",
	}, s.handleReadThread)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "save_game",
		Description: "Save the current state to a slot",
	}, s.handleSaveGame)
}

func (s *Server) handleRunCommand(ctx context.Context, req *sdk.CallToolRequest, input RunCommandInput) (*sdk.CallToolResult, RunCommandOutput, error) {
	if strings.TrimSpace(input.Command) == "" {
		return nil, RunCommandOutput{}, fmt.Errorf("command is required")
	}
	res := s.session.Submit(input.Command)

	out := RunCommandOutput{
		Output:   make([]OutputLine, 0, len(res.Output)),
		PacingMs: res.PacingHint.Milliseconds(),
	}
	for _, line := range res.Output {
		out.Output = append(out.Output, OutputLine{Type: string(line.Type), Text: line.Text, Source: line.Source})
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
		var cmdErr *interpreter.Error
		if errors.As(res.Err, &cmdErr) {
			out.Code = string(cmdErr.Code)
		}
	}
	if res.Next != nil {
		out.Device = res.Next.CurrentConnectedDeviceID
		out.Path = res.Next.CurrentPath
	}
	return nil, out, nil
}

func (s *Server) handleSendMessage(ctx context.Context, req *sdk.CallToolRequest, input SendMessageInput) (*sdk.CallToolResult, SendMessageOutput, error) {
	if input.Character == "" {
		return nil, SendMessageOutput{}, fmt.Errorf("character is required")
	}
	channel, err := parseChannel(input.Channel)
	if err != nil {
		return nil, SendMessageOutput{}, err
	}
	if err := s.session.SendMessage(channel, input.Character, input.Body, input.Attachments); err != nil {
		return nil, SendMessageOutput{}, err
	}
	return nil, SendMessageOutput{Pending: s.session.Pending()}, nil
}

func (s *Server) handleGetStatus(ctx context.Context, req *sdk.CallToolRequest, input GetStatusInput) (*sdk.CallToolResult, GetStatusOutput, error) {
	state := s.session.Snapshot()
	out := GetStatusOutput{
		Username:  state.Username,
		Stage:     state.GameStage,
		Device:    state.CurrentConnectedDeviceID,
		Path:      state.CurrentPath,
		Evidence:  len(state.DiscoveredEvidenceIDs),
		Solved:    append([]string{}, state.SolvedPuzzleIDs...),
		Trust:     make(map[string]float64, len(state.CharacterDynamicData)),
		Pending:   s.session.Pending(),
		Concluded: state.Concluded(),
	}
	if st := s.session.Story(); st != nil {
		out.Story = st.Title
	}
	for id, data := range state.CharacterDynamicData {
		out.Trust[id] = data.TrustLevel
	}
	return nil, out, nil
}

func (s *Server) handleListEvidence(ctx context.Context, req *sdk.CallToolRequest, input ListEvidenceInput) (*sdk.CallToolResult, ListEvidenceOutput, error) {
	state := s.session.Snapshot()
	st := s.session.Story()

	out := make([]EvidenceOutput, 0, len(state.DiscoveredEvidenceIDs))
	for _, id := range state.DiscoveredEvidenceIDs {
		ev, ok := st.EvidenceByID(id)
		if !ok {
			out = append(out, EvidenceOutput{ID: id})
			continue
		}
		out = append(out, EvidenceOutput{ID: ev.ID, Title: ev.Title, Type: ev.Type, Content: ev.Content})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return nil, ListEvidenceOutput{Evidence: out}, nil
}

func (s *Server) handleReadThread(ctx context.Context, req *sdk.CallToolRequest, input ReadThreadInput) (*sdk.CallToolResult, ReadThreadOutput, error) {
	if input.Character == "" {
		return nil, ReadThreadOutput{}, fmt.Errorf("character is required")
	}
	channel, err := parseChannel(input.Channel)
	if err != nil {
		return nil, ReadThreadOutput{}, err
	}
	character, ok := s.session.Story().Character(input.Character)
	if !ok {
		return nil, ReadThreadOutput{}, fmt.Errorf("unknown character: %s", input.Character)
	}
	id := character.ID

	state := s.session.Snapshot()
	thread, ok := state.Threads(channel)[id]
	if !ok {
		return nil, ReadThreadOutput{Messages: []MessageOutput{}}, nil
	}
	out := ReadThreadOutput{
		Messages: make([]MessageOutput, 0, len(thread.Messages)),
		Unread:   thread.Unread,
	}
	for _, msg := range thread.Messages {
		out.Messages = append(out.Messages, messageOutput(msg))
	}

	if input.MarkRead {
		s.session.Update(func(current *game.State) *game.State {
			next := current.Clone()
			next.MarkThreadSeen(channel, id)
			return next
		})
	}
	return nil, out, nil
}

func (s *Server) handleSaveGame(ctx context.Context, req *sdk.CallToolRequest, input SaveGameInput) (*sdk.CallToolResult, SaveGameOutput, error) {
	if s.db == nil {
		return nil, SaveGameOutput{}, fmt.Errorf("saving is disabled: no database configured")
	}
	if strings.TrimSpace(input.Slot) == "" {
		return nil, SaveGameOutput{}, fmt.Errorf("slot is required")
	}
	title := ""
	if st := s.session.Story(); st != nil {
		title = st.Title
	}
	if err := s.db.SaveState(ctx, input.Slot, title, s.session.Snapshot()); err != nil {
		return nil, SaveGameOutput{}, err
	}
	return nil, SaveGameOutput{Slot: input.Slot}, nil
}

func parseChannel(raw string) (story.Channel, error) {
	switch story.Channel(strings.ToLower(strings.TrimSpace(raw))) {
	case "", story.ChannelInbox:
		return story.ChannelInbox, nil
	case story.ChannelTerminal:
		return story.ChannelTerminal, nil
	}
	return "", fmt.Errorf("unknown channel: %s", raw)
}

func messageOutput(msg game.Message) MessageOutput {
	return MessageOutput{
		Sender:      msg.Sender,
		Body:        msg.Body,
		Timestamp:   msg.Timestamp,
		Read:        msg.Read,
		Attachments: append([]string{}, msg.Attachments...),
	}
}
