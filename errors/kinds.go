package errors

import crdb "github.com/cockroachdb/errors"

// Kind classifies an error so stage code can route on kind rather than
// string matching, generalizing the old substring-based classification
// into typed sentinels.
type Kind string

const (
	// KindTransientIO covers topic backpressure and rate-limit exhaustion.
	// Handled locally by parking and retrying; never surfaced to a user pipeline.
	KindTransientIO Kind = "transient_io"
	// KindPipelineRaise covers a user pipeline raising during process_message.
	// Routed through the queue's error-handler resolution (executor package).
	KindPipelineRaise Kind = "pipeline_raise"
	// KindResourceExhausted covers no resource of a required type being
	// registered at all (distinct from all instances being temporarily busy).
	KindResourceExhausted Kind = "resource_exhausted"
	// KindConfigurationInvalid covers an invalid declarative object, a
	// missing service dependency, or a duplicate service name. Fatal during
	// bootstrap.
	KindConfigurationInvalid Kind = "configuration_invalid"
	// KindRemoteExecution covers an error surfaced by a remote executor,
	// carrying a serialized traceback. Treated as KindPipelineRaise by callers.
	KindRemoteExecution Kind = "remote_execution"
	// KindFatal covers an internal invariant violation (e.g. releasing an
	// unknown lease). The worker aborts.
	KindFatal Kind = "fatal"
)

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }
func (e *kindError) Cause() error  { return e.err }

// WithKind tags err with a Kind. Use Is/As-style inspection via KindOf.
func WithKind(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// KindOf returns the Kind attached via WithKind, and false if none was attached.
func KindOf(err error) (Kind, bool) {
	var ke *kindError
	if crdb.As(err, &ke) {
		return ke.kind, true
	}
	return "", false
}

// IsKind allows errors.Is(err, KindTransientIO)-style matching against a bare Kind
// by comparing the tagged kind, not identity — Kind is a plain string type so
// this is implemented as a helper rather than overloading the stdlib Is.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
