// Package hosterr defines the named host error kinds that do not already
// have a home in a narrower package (transpile.FileError/ParseError/
// MapError cover transpilation; capability.ScopeError covers the
// capability-scope-escape case). Each kind is its own Go type implementing
// error, so callers can errors.As to a specific kind instead of
// string-matching messages.
package hosterr

import "fmt"

// ResolutionError reports that a specifier could not be resolved to a file:
// no alias matched, the path does not exist, or a directory had no index
// file.
type ResolutionError struct {
	Specifier string
	Referrer  string
	Msg       string
}

func (e *ResolutionError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("cannot resolve %q from %q: %s", e.Specifier, e.Referrer, e.Msg)
	}
	return fmt.Sprintf("cannot resolve %q: %s", e.Specifier, e.Msg)
}

// CompilationError reports that the engine rejected compiled module source.
type CompilationError struct {
	URL string
	Err error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compile %s: %s", e.URL, e.Err)
}
func (e *CompilationError) Unwrap() error { return e.Err }

// InstantiationError reports that an import failed to instantiate; it
// carries the specifier that triggered the nested load and the captured
// exception text.
type InstantiationError struct {
	Specifier string
	Referrer  string
	Cause     error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("instantiate %q (imported from %s): %s", e.Specifier, e.Referrer, e.Cause)
}
func (e *InstantiationError) Unwrap() error { return e.Cause }

// EvaluationError reports that top-level module evaluation threw, or that
// the module's top-level-await promise rejected. Stack is the already
// source-mapped trace.
type EvaluationError struct {
	Message string
	Stack   string
}

func (e *EvaluationError) Error() string {
	if e.Stack != "" {
		return fmt.Sprintf("%s\n%s", e.Message, e.Stack)
	}
	return e.Message
}

// CapabilityError reports a missing token, a token/op kind mismatch, or (via
// capability.ScopeError, wrapped here for a uniform taxonomy type) a
// sub-path escaping its capability root.
type CapabilityError struct {
	Op    string
	Msg   string
	Cause error
}

func (e *CapabilityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}
func (e *CapabilityError) Unwrap() error { return e.Cause }

// IOError reports an underlying filesystem, network, or process failure,
// carrying the failing path or URL.
type IOError struct {
	Op    string
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Cause)
}
func (e *IOError) Unwrap() error { return e.Cause }

// ProtocolError reports an inspector session rejected for a bad session id.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "inspector protocol: " + e.Msg }
