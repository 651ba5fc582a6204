package story

import "strings"

var defaultMessages = map[string]string{
	"error_unknown_command":    "Unknown command: {COMMAND}. Type 'help' for a list of commands.",
	"error_usage":              "Usage: {SYNTAX}",
	"error_not_found":          "{TARGET}: no such file or directory",
	"error_not_a_directory":    "{TARGET}: not a directory",
	"error_not_a_file":         "{TARGET}: is a directory",
	"error_file_encrypted":     "{TARGET} is encrypted. Use 'decrypt <file> <password>'.",
	"error_runtime":            "Runtime error while running '{COMMAND}'. Your progress is safe.",
	"error_unknown_character":  "No contact named '{CHARACTER}'.",
	"error_unknown_evidence":   "No evidence with id '{EVIDENCE}' has been discovered.",
	"error_unknown_account":    "No account named '{ACCOUNT}'.",
	"error_unknown_device":     "No device named '{DEVICE}'.",
	"help_header":              "Available commands:",
	"help_footer":              "Type 'help <command>' for details.",
	"ls_empty":                 "(empty)",
	"evidence_discovered":      "New evidence logged: {TITLE} [{EVIDENCE}]",
	"evidence_none":            "No evidence collected yet.",
	"evidence_header":          "Collected evidence:",
	"analysis_header":          "Analysis of {TARGET}:",
	"analysis_nothing":         "Nothing unusual about {TARGET}.",
	"decrypt_not_encrypted":    "{TARGET} is not encrypted.",
	"decrypt_success":          "Decryption successful: {TARGET}",
	"decrypt_invalid_password": "Invalid password for {TARGET}.",
	"reset_success":            "Password for {ACCOUNT} has been reset.",
	"reset_failure":            "Security answer rejected for {ACCOUNT}.",
	"reset_already_done":       "The password for {ACCOUNT} was already reset.",
	"crack_success":            "{DEVICE} unlocked.",
	"crack_failure":            "Incorrect PIN for {DEVICE}.",
	"crack_already_done":       "{DEVICE} is already unlocked.",
	"submit_ack":               "{CHARACTER} acknowledges the evidence.",
	"submit_already":           "You already showed this to {CHARACTER}.",
	"connect_success":          "Connected to {TARGET}.",
	"connect_failure":          "Could not connect to {TARGET}.",
	"connect_denied":           "Access to {TARGET} denied.",
	"exit_device":              "Connection to {DEVICE} closed.",
	"exit_session":             "Logging out.",
	"story_complete":           "The story is complete. Only help, clear and exit are available.",
	"investigation_ended":      "The investigation has ended. Only help, clear and exit are available.",
	"accuse_success":           "Accusation recorded: {ACCUSED}",
	"accuse_failure":           "Accusation recorded: {ACCUSED}. The evidence does not hold up.",
	"whoami":                   "{USERNAME}",
	"pwd":                      "{DEVICE}:{PATH}",
}

// Message renders a system template, substituting {PLACEHOLDER} tokens.
// Story templates override the built-in defaults.
func (s *Story) Message(key string, vars map[string]string) string {
	template, ok := "", false
	if s != nil {
		template, ok = s.Messages[key]
	}
	if !ok {
		template, ok = defaultMessages[key]
	}
	if !ok {
		template = key
	}
	return Format(template, vars)
}

func Format(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+strings.ToUpper(key)+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
