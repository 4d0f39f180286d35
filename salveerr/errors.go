// Package salveerr provides structured error types for the salve validation engine.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), letting callers distinguish between the two error planes the
// engine produces: validation errors (expected, domain output, never
// represented here — see the engine package's ErrorRecord) and engine errors
// (unexpected implementation faults, represented here).
//
// # Error Categories
//
//   - ReentrancyError: the cooperative scheduler's cycle function was reentered
//   - EventIndexError: an event sequence number computation underflowed, overflowed, or is unreachable
//   - CacheCorruptionError: the walker cache observed an inconsistent entry
//   - CloneError: the grammar walker failed to clone
//   - ConfigError: invalid constructor options or arguments
//   - ArgumentError: a query was called with an argument of the wrong kind
//
// # Usage with errors.As
//
//	err := v.ResetTo(node)
//	var idxErr *salveerr.EventIndexError
//	if errors.As(err, &idxErr) {
//	    log.Printf("bad index: %d", idxErr.Index)
//	}
package salveerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrReentrant indicates the cycle function was called while already running.
	ErrReentrant = errors.New("reentrant cycle")

	// ErrEventIndex indicates an impossible or inconsistent event sequence number.
	ErrEventIndex = errors.New("event index error")

	// ErrCacheCorruption indicates the walker cache holds an inconsistent entry.
	ErrCacheCorruption = errors.New("walker cache corruption")

	// ErrClone indicates the grammar walker could not be cloned.
	ErrClone = errors.New("walker clone failed")

	// ErrConfig indicates invalid constructor options.
	ErrConfig = errors.New("configuration error")

	// ErrArgument indicates a query method received an argument of the wrong kind.
	ErrArgument = errors.New("argument error")
)

// ReentrancyError is a fatal engine error raised when the scheduler's cycle
// function is invoked while a prior invocation has not returned. Per §4.4 and
// §7 of the spec this is an implementation fault, not a validation outcome:
// it stops the scheduler.
type ReentrancyError struct {
	// Operation names the method that attempted the reentrant call.
	Operation string
}

func (e *ReentrancyError) Error() string {
	return fmt.Sprintf("salve: reentrant call to cycle during %s", e.Operation)
}

func (e *ReentrancyError) Is(target error) bool { return target == ErrReentrant }

// EventIndexError is the named EventIndexException fatal subclass raised by
// the query layer's checkpoint replay and by ResetTo when an event index
// cannot correspond to any position in the event stream.
type EventIndexError struct {
	// Index is the offending computed value.
	Index int64
	// Reason describes why the index is impossible (e.g. "negative", "exceeds stream length").
	Reason string
}

func (e *EventIndexError) Error() string {
	return fmt.Sprintf("salve: impossible event index %d: %s", e.Index, e.Reason)
}

func (e *EventIndexError) Is(target error) bool { return target == ErrEventIndex }

// CacheCorruptionError indicates the walker cache returned an inconsistent
// entry: a checkpoint lookup limited to entries before a threshold returned
// one at or after that threshold.
type CacheCorruptionError struct {
	Detail string
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("salve: walker cache corruption: %s", e.Detail)
}

func (e *CacheCorruptionError) Is(target error) bool { return target == ErrCacheCorruption }

// CloneError wraps a failure from grammar.Walker.Clone.
type CloneError struct {
	Cause error
}

func (e *CloneError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("salve: walker clone failed: %v", e.Cause)
	}
	return "salve: walker clone failed"
}

func (e *CloneError) Unwrap() error { return e.Cause }

func (e *CloneError) Is(target error) bool { return target == ErrClone }

// ConfigError represents an invalid constructor option.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

func (e *ConfigError) Error() string {
	msg := "salve: invalid configuration"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// ArgumentError indicates a query was invoked with an argument of the wrong
// kind, per §7 of the spec ("_validateUpTo fails with an engine error if
// container is neither element nor text").
type ArgumentError struct {
	Parameter string
	Message   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("salve: invalid argument %q: %s", e.Parameter, e.Message)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrArgument }
