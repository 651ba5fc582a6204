// Package interpreter runs player commands against a game state snapshot.
// Every call takes a state and returns its successor; a failed command
// returns the input state untouched.
package interpreter

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"casefile/internal/game"
	"casefile/internal/shell"
	"casefile/internal/story"
)

// Result is the outcome of one command.
type Result struct {
	Output []game.Output
	Next   *game.State
	// PacingHint suggests how long the caller should take to reveal
	// narrative output.
	PacingHint time.Duration
	// Err is set when the command failed; Next is then the input state.
	Err error
}

type Option func(*Interpreter)

func WithLogger(logger *zap.Logger) Option {
	return func(in *Interpreter) {
		if logger != nil {
			in.log = logger
		}
	}
}

// Interpreter is stateless apart from its logger and safe for concurrent use.
type Interpreter struct {
	log *zap.Logger
}

func New(opts ...Option) *Interpreter {
	in := &Interpreter{log: zap.NewNop()}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Process runs a parsed command.
func (in *Interpreter) Process(cmd shell.Command, state *game.State, st *story.Story) (res Result) {
	if cmd.IsEmpty() {
		return Result{Next: state}
	}

	defer func() {
		if r := recover(); r != nil {
			in.log.Error("command panicked",
				zap.String("command", cmd.Name),
				zap.String("raw", cmd.Raw),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err := &Error{Code: CodeInternal, Message: st.Message("error_runtime", map[string]string{"COMMAND": cmd.Name})}
			res = failure(state, err)
		}
	}()

	kind := Lookup(cmd.Name)
	if !kind.Terminal() {
		if state.NarrativeFlags.Bool(game.FlagStoryCompleted) {
			return notice(state, st.Message("story_complete", nil))
		}
		if state.Concluded() {
			return notice(state, st.Message("investigation_ended", nil))
		}
	}
	if kind == KindUnknown {
		err := newError(CodeUnknownCommand, st.Message("error_unknown_command", map[string]string{"COMMAND": cmd.Name}))
		return failure(state, err)
	}

	c := &call{kind: kind, cmd: cmd, state: state, story: st}
	if err := handlers[kind](c); err != nil {
		var cmdErr *Error
		if !errors.As(err, &cmdErr) {
			in.log.Error("command failed",
				zap.String("command", cmd.Name),
				zap.Error(err),
			)
			cmdErr = &Error{Code: CodeInternal, Message: st.Message("error_runtime", map[string]string{"COMMAND": cmd.Name})}
		}
		res = failure(state, cmdErr)
		res.PacingHint = st.PacingFor(len(cmdErr.Narrative))
		return res
	}

	in.log.Debug("command processed",
		zap.String("command", kind.String()),
		zap.Bool("mutated", c.next != nil),
	)
	return Result{Output: c.out, Next: c.result(), PacingHint: c.pacing}
}

// Run parses and processes a raw input line.
func (in *Interpreter) Run(line string, state *game.State, st *story.Story) Result {
	return in.Process(shell.Parse(line), state, st)
}

func notice(state *game.State, text string) Result {
	return Result{
		Output: []game.Output{game.NewOutput(game.OutputSystem, text)},
		Next:   state,
	}
}

func failure(state *game.State, err *Error) Result {
	out := []game.Output{game.NewOutput(game.OutputError, err.Message)}
	for _, line := range err.Narrative {
		out = append(out, game.NewOutput(game.OutputText, line))
	}
	return Result{Output: out, Next: state, Err: err}
}

// call carries one command through its handler. The successor state is
// cloned lazily on first write.
type call struct {
	kind   Kind
	cmd    shell.Command
	state  *game.State
	next   *game.State
	story  *story.Story
	out    []game.Output
	pacing time.Duration
}

// view is the state to read: the successor once one exists.
func (c *call) view() *game.State {
	if c.next != nil {
		return c.next
	}
	return c.state
}

func (c *call) mutable() *game.State {
	if c.next == nil {
		c.next = c.state.Clone()
	}
	return c.next
}

func (c *call) result() *game.State {
	if c.next == nil {
		return c.state
	}
	return c.next
}

func (c *call) emit(outputType game.OutputType, text string) *game.Output {
	c.out = append(c.out, game.NewOutput(outputType, text))
	return &c.out[len(c.out)-1]
}

func (c *call) print(text string) {
	c.emit(game.OutputText, text)
}

func (c *call) system(key string, vars map[string]string) {
	c.emit(game.OutputSystem, c.story.Message(key, vars))
}

func (c *call) message(key string, vars map[string]string) string {
	return c.story.Message(key, vars)
}

// narrate prints a named script and extends the pacing hint.
func (c *call) narrate(script string) {
	lines := c.story.Script(script)
	for _, line := range lines {
		c.print(line)
	}
	c.pacing += c.story.PacingFor(len(lines))
}

// announce reports newly discovered evidence ids.
func (c *call) announce(ids []string) {
	for _, id := range ids {
		title := id
		if ev, ok := c.story.EvidenceByID(id); ok && ev.Title != "" {
			title = ev.Title
		}
		c.system("evidence_discovered", map[string]string{"TITLE": title, "EVIDENCE": id})
	}
}

func (c *call) fail(code Code, key string, vars map[string]string) *Error {
	return newError(code, c.message(key, vars))
}

func (c *call) usage() *Error {
	syntax := commands[c.kind].syntax
	if doc, ok := c.story.CommandDoc(commands[c.kind].name); ok && doc.Syntax != "" {
		syntax = doc.Syntax
	}
	return c.fail(CodeUsage, "error_usage", map[string]string{"SYNTAX": syntax})
}

func (c *call) arg(i int) string {
	if i < len(c.cmd.Args) {
		return c.cmd.Args[i]
	}
	return ""
}

func (c *call) deviceName(id string) string {
	if device, ok := c.story.Device(id); ok && device.Name != "" {
		return device.Name
	}
	return id
}
