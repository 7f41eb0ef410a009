// Package schederrors defines the scheduler's failure taxonomy (SPEC_FULL.md
// §7): typed, wrapped errors inspected with errors.As, never raw panics
// crossing the public API.
package schederrors

import "fmt"

// GlobalError wraps an unexpected scheduler-internal failure: a setup
// failure, a deduplication replay failure, or an invariant violation. It is
// always reported as a failure, never retried automatically.
type GlobalError struct {
	Message string
	Err     error
}

func NewGlobalError(message string, err error) error {
	return &GlobalError{Message: message, Err: err}
}

func (e *GlobalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("global error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("global error: %s", e.Message)
}

func (e *GlobalError) Unwrap() error { return e.Err }

// SetupFailedError localizes a BundleSetup failure to a single Leaf; sibling
// work continues unaffected.
type SetupFailedError struct {
	ProjectID string
	Err       error
}

func NewSetupFailedError(projectID string, err error) error {
	return &SetupFailedError{ProjectID: projectID, Err: err}
}

func (e *SetupFailedError) Error() string {
	return fmt.Sprintf("setup failed for %s: %v", e.ProjectID, e.Err)
}

func (e *SetupFailedError) Unwrap() error { return e.Err }

// BlockedError marks a node that was never compiled because a transitive
// dependency failed or was itself blocked (invariant I6).
type BlockedError struct {
	ProjectID     string
	UpstreamNames []string
}

func NewBlockedError(projectID string, upstreamNames []string) error {
	return &BlockedError{ProjectID: projectID, UpstreamNames: upstreamNames}
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s blocked by: %v", e.ProjectID, e.UpstreamNames)
}

// DeduplicationError is substituted for a deduplicated client's result when
// its replay races the producer and loses; the producer itself is
// unaffected.
type DeduplicationError struct {
	ProjectID string
	Err       error
}

func NewDeduplicationError(projectID string, err error) error {
	return &DeduplicationError{ProjectID: projectID, Err: err}
}

func (e *DeduplicationError) Error() string {
	return fmt.Sprintf("deduplication failed: %s: %v", e.ProjectID, e.Err)
}

func (e *DeduplicationError) Unwrap() error { return e.Err }

// DisconnectError signals that a deduplicating subscriber stalled past the
// replay disconnection timeout and re-dispatched.
type DisconnectError struct {
	ProjectID string
}

func NewDisconnectError(projectID string) error {
	return &DisconnectError{ProjectID: projectID}
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("disconnected from deduplication for %s", e.ProjectID)
}

// CancelledError marks a compilation terminated by user or stall
// cancellation rather than a compiler failure.
type CancelledError struct {
	ProjectID string
}

func NewCancelledError(projectID string) error {
	return &CancelledError{ProjectID: projectID}
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s cancelled", e.ProjectID)
}

// CompilerFailedError wraps compile-time problems reported by the caller's
// compile function.
type CompilerFailedError struct {
	ProjectID string
	Problems  []string
}

func NewCompilerFailedError(projectID string, problems []string) error {
	return &CompilerFailedError{ProjectID: projectID, Problems: problems}
}

func (e *CompilerFailedError) Error() string {
	return fmt.Sprintf("%s failed to compile: %v", e.ProjectID, e.Problems)
}

// ParseError reports a YAML document that failed to parse, with a best-effort
// line number when the decoder's error message carries one.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a config document that parsed but failed schema or
// cross-field validation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }
