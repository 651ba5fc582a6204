package interpreter

// Kind identifies a command independently of the alias used to type it.
type Kind int

const (
	KindUnknown Kind = iota
	KindHelp
	KindList
	KindChangeDir
	KindRead
	KindAnalyze
	KindDecrypt
	KindResetPassword
	KindSubmitEvidence
	KindConnect
	KindAccuse
	KindClear
	KindExit
	KindPwd
	KindEvidence
	KindCrack
	KindWhoami

	kindCount
)

type handler func(*call) error

type command struct {
	name        string
	aliases     []string
	syntax      string
	description string
	// terminal commands stay available after the story has ended
	terminal bool
}

// commands is indexed by Kind; its length pins every Kind to an entry.
var commands = [kindCount]command{
	KindUnknown: {},
	KindHelp: {
		name: "help", syntax: "help [command]",
		description: "List commands, or show how to use one.",
		terminal:    true,
	},
	KindList: {
		name: "ls", aliases: []string{"dir"}, syntax: "ls [path]",
		description: "List the contents of a directory.",
	},
	KindChangeDir: {
		name: "cd", syntax: "cd <path>",
		description: "Change the current directory.",
	},
	KindRead: {
		name: "cat", aliases: []string{"type"}, syntax: "cat <path>",
		description: "Print the contents of a file.",
	},
	KindAnalyze: {
		name: "analyze", syntax: "analyze <path|evidence-id>",
		description: "Examine a file or a piece of evidence more closely.",
	},
	KindDecrypt: {
		name: "decrypt", syntax: "decrypt <path> <password>",
		description: "Decrypt an encrypted file.",
	},
	KindResetPassword: {
		name: "reset_password", syntax: `reset_password <account> --q "<answer>"`,
		description: "Reset an account password by answering its security question.",
	},
	KindSubmitEvidence: {
		name: "submit_evidence", syntax: "submit_evidence <character> <evidence-id>",
		description: "Show a piece of evidence to a contact.",
	},
	KindConnect: {
		name: "connect", syntax: "connect <target>",
		description: "Open a connection to a remote system.",
	},
	KindAccuse: {
		name: "accuse", syntax: "accuse <name>",
		description: "Name the culprit. This ends the investigation.",
	},
	KindClear: {
		name: "clear", syntax: "clear",
		description: "Clear the screen.",
		terminal:    true,
	},
	KindExit: {
		name: "exit", syntax: "exit",
		description: "Disconnect from the current device, or log out.",
		terminal:    true,
	},
	KindPwd: {
		name: "pwd", syntax: "pwd",
		description: "Show the current device and directory.",
	},
	KindEvidence: {
		name: "evidence", syntax: "evidence [evidence-id]",
		description: "List collected evidence, or show one item.",
	},
	KindCrack: {
		name: "crack", syntax: "crack <device> <pin>",
		description: "Unlock a seized phone with its PIN.",
	},
	KindWhoami: {
		name: "whoami", syntax: "whoami",
		description: "Show the agent you are logged in as.",
	},
}

var byName = func() map[string]Kind {
	index := make(map[string]Kind)
	for kind := KindUnknown + 1; kind < kindCount; kind++ {
		cmd := commands[kind]
		index[cmd.name] = kind
		for _, alias := range cmd.aliases {
			index[alias] = kind
		}
	}
	return index
}()

// handlers is kept apart from commands so help can read the command table.
var handlers = [kindCount]handler{
	KindHelp:           runHelp,
	KindList:           runList,
	KindChangeDir:      runChangeDir,
	KindRead:           runRead,
	KindAnalyze:        runAnalyze,
	KindDecrypt:        runDecrypt,
	KindResetPassword:  runResetPassword,
	KindSubmitEvidence: runSubmitEvidence,
	KindConnect:        runConnect,
	KindAccuse:         runAccuse,
	KindClear:          runClear,
	KindExit:           runExit,
	KindPwd:            runPwd,
	KindEvidence:       runEvidence,
	KindCrack:          runCrack,
	KindWhoami:         runWhoami,
}

// Lookup maps a command name or alias to its Kind.
func Lookup(name string) Kind {
	return byName[name]
}

func (k Kind) String() string {
	if k <= KindUnknown || k >= kindCount {
		return "unknown"
	}
	return commands[k].name
}

// Terminal reports whether the command still runs once the story is over.
func (k Kind) Terminal() bool {
	return k > KindUnknown && k < kindCount && commands[k].terminal
}

// Kinds returns every known command kind in help order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for kind := KindUnknown + 1; kind < kindCount; kind++ {
		out = append(out, kind)
	}
	return out
}
