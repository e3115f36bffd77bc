// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Client-facing signals. These are not server faults: the HTTP layer maps
// them to 404 and 400 responses.
var (
	// ErrNotFound indicates an unknown request or session id.
	ErrNotFound = errors.New("not found")

	// ErrPending indicates results were requested before the pipeline
	// reached a completed state.
	ErrPending = errors.New("request not completed")
)

// ValidationError rejects bad input before the pipeline starts. It is never
// retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// RequestFailedError carries the stored failure message of a terminal
// failed request back to the caller.
type RequestFailedError struct {
	RequestID string
	Msg       string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("request %s failed: %s", e.RequestID, e.Msg)
}

// SourceUnavailableError marks one discovery source as down for this
// request after its retry budget is spent. Not fatal while another source
// succeeds.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// ExtractionError is a per-document, per-tier failure. The pipeline falls
// through to the next tier on this error; it never fails the request.
type ExtractionError struct {
	Method ExtractionMethod
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction: %v", e.Method, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SynthesisError is a failure of the external synthesis service. It is
// fatal to the request.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("synthesis: %v", e.Err) }

func (e *SynthesisError) Unwrap() error { return e.Err }

// TimeoutError is a global per-request wall-clock overrun. It is fatal and
// abandons outstanding sub-tasks.
type TimeoutError struct {
	RequestID string
	Limit     string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %s exceeded time limit %s", e.RequestID, e.Limit)
}
