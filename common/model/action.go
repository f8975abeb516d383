package model

import "context"

// ActionKind tags the variant of an Action (REDESIGN FLAGS §9: actions are
// modelled as a tagged variant rather than dynamic callable objects).
type ActionKind string

const (
	ActionKindShell    ActionKind = "shell"
	ActionKindLog      ActionKind = "log"
	ActionKindExternal ActionKind = "external"
)

// CompletionSignal is returned by an ExternalCallable to report how the
// action finished.
type CompletionSignal struct {
	Err error
}

// ExternalCallable is an opaque callable handle owned by the configuration
// loader. The core never inspects its internals; it only invokes it and
// observes the returned completion signal.
type ExternalCallable func(ctx context.Context) CompletionSignal

// ShellAction runs a program with arguments in a working directory.
type ShellAction struct {
	Program string
	Args    []string
	Dir     string
	Env     []string
}

// LogAction emits a message into the event stream.
type LogAction struct {
	Level   string
	Message string
}

// Action is one step of a Job. Exactly one of Shell, Log or External is
// set, selected by Kind.
type Action struct {
	Kind     ActionKind
	Shell    *ShellAction
	Log      *LogAction
	External ExternalCallable
}

func NewShellAction(program string, args []string, dir string, env []string) Action {
	return Action{Kind: ActionKindShell, Shell: &ShellAction{Program: program, Args: args, Dir: dir, Env: env}}
}

func NewLogAction(level, message string) Action {
	return Action{Kind: ActionKindLog, Log: &LogAction{Level: level, Message: message}}
}

func NewExternalAction(fn ExternalCallable) Action {
	return Action{Kind: ActionKindExternal, External: fn}
}
