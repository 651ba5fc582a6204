// Package shell tokenizes raw terminal input into a command and its arguments.
package shell

import (
	"strings"
	"unicode"
)

type Command struct {
	Name string
	Args []string
	Raw  string
}

// IsEmpty reports whether the input carried no command at all.
func (c Command) IsEmpty() bool {
	return c.Name == ""
}

// Parse splits input on whitespace outside double quotes. Quote characters
// toggle quoting and are dropped; an unterminated quote keeps the remaining
// characters in the final token.
func Parse(input string) Command {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{Args: []string{}}
	}

	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return Command{Args: []string{}, Raw: raw}
	}

	return Command{
		Name: strings.ToLower(tokens[0]),
		Args: tokens[1:],
		Raw:  raw,
	}
}

func tokenize(input string) []string {
	tokens := make([]string, 0)
	var current strings.Builder
	inQuotes := false
	pending := false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			pending = true
		case unicode.IsSpace(r) && !inQuotes:
			if pending {
				tokens = append(tokens, current.String())
				current.Reset()
				pending = false
			}
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	if pending {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// Join renders args back into a single space separated string, used by
// commands that accept free text.
func Join(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
