// Package vmerr defines the VM's error-kind taxonomy (spec §7).
//
// Errors inside the VM are plain Go errors; *Error carries enough structure
// (kind, source id, instruction index) for the executor and the source
// file's diagnostic formatter to render a useful message. "Raised" values —
// errors flung by running June code and caught by a fail block — are never
// represented here: they are ordinary vars.Value instances pushed on the
// fail stack, per spec §3/§7. vmerr.Error is for failures the VM itself
// originates (bad bytecode, type mismatches, I/O failures, stack overflow).
package vmerr

import "fmt"

// Kind enumerates the error kinds from spec §7.
type Kind int

const (
	// KindNone is the zero value; never attached to a real error.
	KindNone Kind = iota
	// KindFileIo covers reading/writing bytecode and source files.
	KindFileIo
	// KindExec denotes executor-internal failures: type mismatches,
	// resolution failures, stack overflow.
	KindExec
	// KindArgs denotes a call made with the wrong argument shape.
	KindArgs
	// KindRaised denotes an error surfaced outside of any fail block after
	// having been raised by running code.
	KindRaised
	// KindUnwrap is reserved for internal misuse of optional/result
	// primitives — defensive assertions inside the VM's own bookkeeping.
	KindUnwrap
)

func (k Kind) String() string {
	switch k {
	case KindFileIo:
		return "FileIo"
	case KindExec:
		return "Exec"
	case KindArgs:
		return "Args"
	case KindRaised:
		return "Raised"
	case KindUnwrap:
		return "Unwrap"
	default:
		return "None"
	}
}

// Error is a kinded VM error with source-position context.
type Error struct {
	Kind    Kind
	SrcId   uint64
	Idx     uint64
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error of the given kind at the given source position.
func New(kind Kind, srcId, idx uint64, format string, args ...any) *Error {
	return &Error{Kind: kind, SrcId: srcId, Idx: idx, Message: fmt.Sprintf(format, args...)}
}

// Exec is a convenience constructor for the common KindExec case.
func Exec(srcId, idx uint64, format string, args ...any) *Error {
	return New(KindExec, srcId, idx, format, args...)
}

// FileIo is a convenience constructor for the common KindFileIo case.
func FileIo(format string, args ...any) *Error {
	return New(KindFileIo, 0, 0, format, args...)
}
