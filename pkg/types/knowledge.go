// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Document is one indexed record in the knowledge base.
type Document struct {
	// ID is a stable identifier, normally the paper dedup key or an
	// upload-derived slug.
	ID string `json:"id" yaml:"id"`

	// Title is the document title.
	Title string `json:"title" yaml:"title"`

	// Source names where the document came from (discovery source name
	// or "upload").
	Source string `json:"source" yaml:"source"`

	// Text is the indexed full text.
	Text string `json:"text" yaml:"text"`

	// SectionCount records how many sections the extraction produced.
	SectionCount int `json:"section_count" yaml:"section_count"`

	// Method records the extraction tier that produced the text.
	Method ExtractionMethod `json:"extraction_method" yaml:"extraction_method"`
}

// SearchHit is a knowledge base match with its relevance score.
type SearchHit struct {
	Document

	// Score is a normalized relevance value in (0,1], 1.0 for the best
	// match of the query.
	Score float64 `json:"score" yaml:"score"`

	// Snippet is a short excerpt of the matched text.
	Snippet string `json:"snippet" yaml:"snippet"`
}

// KnowledgeStats summarizes the indexed corpus.
type KnowledgeStats struct {
	Documents   int            `json:"documents" yaml:"documents"`
	Sources     map[string]int `json:"sources" yaml:"sources"`
	Methods     map[string]int `json:"extraction_methods" yaml:"extraction_methods"`
	LastIndexed time.Time      `json:"last_indexed,omitempty" yaml:"last_indexed,omitempty"`
}

// TopicCluster is a coarse topic grouping over the indexed corpus, used by
// the clusters endpoint.
type TopicCluster struct {
	// Label is the most frequent term of the cluster.
	Label string `json:"label" yaml:"label"`

	// Terms lists the top terms shared by the cluster's documents.
	Terms []string `json:"terms" yaml:"terms"`

	// Documents counts cluster members.
	Documents int `json:"documents" yaml:"documents"`
}
