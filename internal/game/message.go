package game

import "github.com/google/uuid"

type OutputType string

const (
	OutputInput       OutputType = "input"
	OutputText        OutputType = "output"
	OutputError       OutputType = "error"
	OutputSystem      OutputType = "system"
	OutputPrompt      OutputType = "prompt"
	OutputProgress    OutputType = "progress"
	OutputClearSignal OutputType = "clear_signal"
	OutputExitSignal  OutputType = "exit_signal"
)

// IsSignal reports whether the output is a control signal for the front end
// rather than displayable text.
func (t OutputType) IsSignal() bool {
	return t == OutputClearSignal || t == OutputExitSignal
}

type Output struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Type      OutputType `json:"type"`
	Source    string     `json:"source,omitempty"`
	IsRawHTML bool       `json:"isRawHTML,omitempty"`
}

func NewOutput(outputType OutputType, text string) Output {
	return Output{ID: uuid.NewString(), Type: outputType, Text: text}
}

// Displayable drops control signals, leaving what may be shown or kept in
// history.
func Displayable(outputs []Output) []Output {
	out := make([]Output, 0, len(outputs))
	for _, o := range outputs {
		if o.Type.IsSignal() {
			continue
		}
		out = append(out, o)
	}
	return out
}

// PlayerRole is the sender or recipient id used for the player.
const PlayerRole = "player"

// Message is an immutable conversation entry; only Read ever changes.
type Message struct {
	ID          string   `json:"id"`
	Sender      string   `json:"sender"`
	Recipient   string   `json:"recipient"`
	Body        string   `json:"body"`
	Timestamp   int64    `json:"timestamp"`
	Read        bool     `json:"read"`
	Attachments []string `json:"attachments,omitempty"`
}

func NewMessage(sender, recipient, body string, timestamp int64, attachments []string) Message {
	return Message{
		ID:          uuid.NewString(),
		Sender:      sender,
		Recipient:   recipient,
		Body:        body,
		Timestamp:   timestamp,
		Attachments: append([]string(nil), attachments...),
	}
}

type Thread struct {
	Messages      []Message `json:"messages"`
	Unread        bool      `json:"unread"`
	LastTimestamp int64     `json:"lastTimestamp"`
}

func (t Thread) Clone() Thread {
	out := t
	if t.Messages == nil {
		return out
	}
	out.Messages = make([]Message, len(t.Messages))
	for i, m := range t.Messages {
		m.Attachments = append([]string(nil), m.Attachments...)
		out.Messages[i] = m
	}
	return out
}
