// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// RequestStatus is the lifecycle state of a research request.
type RequestStatus string

const (
	StatusPending      RequestStatus = "pending"
	StatusCheckingKB   RequestStatus = "checking_kb"
	StatusDiscovering  RequestStatus = "discovering"
	StatusExtracting   RequestStatus = "extracting"
	StatusSynthesizing RequestStatus = "synthesizing"
	StatusCompleted    RequestStatus = "completed"
	StatusFailed       RequestStatus = "failed"
)

// Terminal reports whether no further transitions are permitted.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ResearchRequest tracks one submitted query through the pipeline. The
// workflow engine owns these records exclusively; callers observe them
// through status snapshots.
type ResearchRequest struct {
	// ID is the request identifier returned by submit.
	ID string `json:"id" yaml:"id"`

	// Query is the natural-language research question.
	Query string `json:"query" yaml:"query"`

	// MaxPapers bounds the merged discovery result set.
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// CreatedAt is the submission time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Status is the current lifecycle state.
	Status RequestStatus `json:"status" yaml:"status"`

	// CurrentStep names the stage being executed, for progress display.
	CurrentStep string `json:"current_step" yaml:"current_step"`

	// Progress is a percentage in [0,100], non-decreasing until terminal.
	Progress int `json:"progress" yaml:"progress"`

	// Error holds the failure message once Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SynthesisResult is the opaque structured payload returned by the
// synthesis service. The engine attaches it to the terminal request state
// without interpreting it.
type SynthesisResult = json.RawMessage

// ResearchResults is the terminal payload for a completed request.
type ResearchResults struct {
	RequestID string        `json:"request_id" yaml:"request_id"`
	Query     string        `json:"query" yaml:"query"`
	Status    RequestStatus `json:"status" yaml:"status"`

	// PapersFound counts the merged discovery results.
	PapersFound int `json:"papers_found" yaml:"papers_found"`

	// ContentExtracted counts papers that produced content. It can be
	// lower than PapersFound when some documents failed every
	// extraction tier.
	ContentExtracted int `json:"content_extracted" yaml:"content_extracted"`

	// Synthesis is the opaque synthesis payload.
	Synthesis SynthesisResult `json:"synthesis" yaml:"synthesis"`

	// QualityScore is a 0-100 rubric score over paper count, extraction
	// rate, and synthesis shape.
	QualityScore int `json:"quality_score" yaml:"quality_score"`

	// Errors lists non-fatal degradations absorbed during the run
	// (failed sources, failed documents).
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}
