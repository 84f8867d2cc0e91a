package internal

import (
	"fmt"
	"time"
)

// AttemptRecord describes one executed attempt for logs and diagnostics
type AttemptRecord struct {
	Source      string
	Fingerprint string
	Class       ErrorClass
	Message     string
	Duration    time.Duration
}

// Outcome is the structured result of an acquisition. Failures never surface as Go errors
// from the engine; callers inspect Class and Hint instead.
type Outcome struct {
	URL        string
	Kind       AssetKind
	Path       string
	Class      ErrorClass
	Message    string
	Hint       string
	Attempts   int
	FromCache  bool
	FromMirror bool
	Records    []AttemptRecord
}

// OK reports whether the outcome produced a local file
func (o *Outcome) OK() bool {
	return o.Class == ClassNone && o.Path != ""
}

// Err converts a failed outcome into an error for callers that want one
func (o *Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return &OutcomeError{Class: o.Class, Message: o.Message, Hint: o.Hint}
}

// OutcomeError wraps a failed outcome
type OutcomeError struct {
	Class   ErrorClass
	Message string
	Hint    string
}

func (e *OutcomeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("acquisition failed (%s)", e.Class)
	}
	return fmt.Sprintf("acquisition failed (%s): %s", e.Class, e.Message)
}

// failure tracks the most informative failure seen so far
type failure struct {
	class   ErrorClass
	message string
	set     bool
}

// observe keeps the new failure only when it strictly outranks the current one,
// so equal-rank failures keep the earliest message
func (f *failure) observe(class ErrorClass, message string) {
	if !f.set || class.Outranks(f.class) {
		f.class = class
		f.message = message
		f.set = true
	}
}
