package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers can branch on them.
type ErrorKind string

const (
	// KindUnknown is reported for errors that carry no kind.
	KindUnknown ErrorKind = "unknown"
	// KindDirectoryMissing means a source or test directory is absent or holds no files.
	KindDirectoryMissing ErrorKind = "directory_missing"
	// KindMappingGap means no test file could be paired with a source file.
	KindMappingGap ErrorKind = "mapping_gap"
	// KindEngineInvocation means the mutation engine could not be run.
	KindEngineInvocation ErrorKind = "engine_invocation_failure"
	// KindUnparsableMutant means a mutant diff lacked an original or mutated line.
	KindUnparsableMutant ErrorKind = "unparsable_mutant"
	// KindFunctionNotFound means no function span contained the mutant line.
	KindFunctionNotFound ErrorKind = "function_not_found"
	// KindSynthesis means a backend returned nothing usable.
	KindSynthesis ErrorKind = "synthesis_failure"
	// KindPatch means the test file could not be patched.
	KindPatch ErrorKind = "patch_failure"
	// KindVerification means the patched tests failed to run.
	KindVerification ErrorKind = "verification_failure"
	// KindTimeout means an external invocation exceeded its deadline.
	KindTimeout ErrorKind = "timeout"
	// KindProcess means an external process failed to start or exited non-zero.
	KindProcess ErrorKind = "process_failure"
)

// Error is a failure annotated with its kind and the operation that produced it.
type Error struct {
	Kind ErrorKind
	Op   string
	Path Path
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}

	if e.Path != "" {
		msg += " (" + string(e.Path) + ")"
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and operation name.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a kinded error from a format string.
func Errorf(kind ErrorKind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost kinded error in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var kinded *Error
	if errors.As(err, &kinded) {
		return kinded.Kind
	}

	return KindUnknown
}

// IsKind reports whether any error in err's chain has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var kinded *Error
		if !errors.As(err, &kinded) {
			return false
		}

		if kinded.Kind == kind {
			return true
		}

		err = kinded.Err
	}

	return false
}

var (
	// ErrNoTestClass is returned when a test file has no class to extend.
	ErrNoTestClass = errors.New("no test class found")
	// ErrEmptyGeneration is returned when a backend produced no test text.
	ErrEmptyGeneration = errors.New("backend returned no test code")
	// ErrMarkerMissing is returned when the editor handshake lost its marker.
	ErrMarkerMissing = errors.New("generation marker not found")
	// ErrSyntax is returned when Python text does not parse.
	ErrSyntax = errors.New("python syntax error")
)
