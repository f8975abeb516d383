package eventbus

import "github.com/google/uuid"

// Scope is a node in the nested logging-context stack described in
// REDESIGN FLAGS §9 ("scoped resource acquisition for logging contexts").
// Context values in Forge are immutable and parent-linked rather than
// mutated in place, which is the idiomatic Go analogue of a thread-local
// context stack: each goroutine threads its own *Scope explicitly instead
// of relying on actual thread-local storage. Cross-goroutine correlation
// is via the explicit ID carried on every Event.
type Scope struct {
	ID       string
	ParentID string
}

// RootScope starts a new top-level scope, e.g. one per build invocation.
func RootScope() *Scope {
	return &Scope{ID: uuid.NewString()}
}

// Push returns a child scope and a release function. The release function
// restores nothing itself (scopes are immutable values) but gives the
// executor a single place to guarantee cleanup runs on every exit path of
// a job.
func (s *Scope) Push() (child *Scope, release func()) {
	child = &Scope{ID: uuid.NewString(), ParentID: s.ID}
	return child, func() {}
}
