package interpreter

// Code classifies why a command failed.
type Code string

const (
	CodeUsage          Code = "usage"
	CodeNotFound       Code = "not_found"
	CodeTypeMismatch   Code = "type_mismatch"
	CodePrecondition   Code = "precondition_failed"
	CodeUnknownCommand Code = "unknown_command"
	CodeInternal       Code = "internal"
)

// Error is a recoverable command failure. Message is the rendered text
// shown to the player; Narrative lines follow it as plain output.
type Error struct {
	Code      Code
	Message   string
	Narrative []string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrUsage          = &Error{Code: CodeUsage}
	ErrNotFound       = &Error{Code: CodeNotFound}
	ErrTypeMismatch   = &Error{Code: CodeTypeMismatch}
	ErrPrecondition   = &Error{Code: CodePrecondition}
	ErrUnknownCommand = &Error{Code: CodeUnknownCommand}
	ErrInternal       = &Error{Code: CodeInternal}
)

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}
