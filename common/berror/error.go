// Package berror implements the six-kind error taxonomy described in the
// error handling design: configuration, scripting, plugin, build,
// internal and environment errors, each carrying an audience and the exit
// code the CLI contract maps it to.
package berror

import (
	"errors"
	"fmt"

	"github.com/hashicorp/errwrap"
)

type Audience string

const (
	AudienceInternal Audience = "internal"
	AudienceExternal Audience = "external"
)

// Kind is one of the six error kinds from the error handling design.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindScripting     Kind = "scripting"
	KindPlugin        Kind = "plugin"
	KindBuild         Kind = "build"
	KindInternal      Kind = "internal"
	KindEnvironment   Kind = "environment"
)

// ExitCode maps each Kind to the process exit code of the CLI contract.
func (k Kind) ExitCode() int {
	switch k {
	case KindScripting:
		return 1
	case KindBuild:
		return 2
	case KindConfiguration:
		return 3
	case KindInternal:
		return 4
	case KindPlugin:
		return 5
	case KindEnvironment:
		return 14
	default:
		return 15
	}
}

// Code is a short machine-readable error code, e.g. "configuration/unknown-job".
type Code string

// Error is a structured, wrappable error carrying a Kind/Code/Audience
// plus an optional inner cause.
type Error struct {
	kind      Kind
	code      Code
	message   string
	audience  Audience
	innerErr  error
	errorText string
}

func New(kind Kind, code Code, message string) Error {
	return Error{kind: kind, code: code, message: message, audience: AudienceExternal, errorText: message}
}

func Newf(kind Kind, code Code, format string, args ...interface{}) Error {
	return New(kind, code, fmt.Sprintf(format, args...))
}

func (e Error) Error() string {
	if e.errorText != "" {
		return e.errorText
	}
	return e.message
}

func (e Error) Unwrap() error { return e.innerErr }

func (e Error) Kind() Kind         { return e.kind }
func (e Error) Code() Code         { return e.code }
func (e Error) Message() string    { return e.message }
func (e Error) Audience() Audience { return e.audience }

// Wrap returns a copy of e with innerErr recorded as the cause, and the
// cause's text appended to the error chain text for the single
// terminal-line failure display (§7). innerErr stays the Unwrap() target
// unchanged; errwrap only builds the display text, so errors.As/errors.Is
// still walk straight through to innerErr.
func (e Error) Wrap(innerErr error) Error {
	wrapped := e
	wrapped.innerErr = innerErr
	if innerErr != nil {
		wrapped.errorText = errwrap.Wrapf(e.message+": {{err}}", innerErr).Error()
	}
	return wrapped
}

// As locates an Error of the given Kind in err's chain.
func As(err error, kind Kind) (Error, bool) {
	var berr Error
	if errors.As(err, &berr) && berr.kind == kind {
		return berr, true
	}
	return Error{}, false
}

// Is reports whether err's chain contains an Error of the given Kind.
func Is(err error, kind Kind) bool {
	_, ok := As(err, kind)
	return ok
}

// KindOf returns the Kind of err if it is (or wraps) a berror.Error,
// otherwise KindInternal as the conservative default.
func KindOf(err error) Kind {
	var berr Error
	if errors.As(err, &berr) {
		return berr.kind
	}
	return KindInternal
}
