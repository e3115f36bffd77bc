// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-assistant
// service: discovered papers, extracted content, research requests, sessions,
// knowledge base documents, and the service configuration tree.
package types

import (
	"strings"
	"unicode"
)

// Paper is a document candidate returned by a discovery source.
type Paper struct {
	// ExternalID is the source-native identifier (arXiv ID, DOI, or URL).
	// Different sources use incompatible ID schemes, so ExternalID only
	// identifies a paper within one source.
	ExternalID string `json:"external_id" yaml:"external_id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Venue is the journal, conference, or repository name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Year is the publication year, zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// CitationCount is the citation count reported by the source.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// Sources lists every discovery source that returned this paper.
	// Merging duplicates across sources appends here so provenance
	// survives deduplication.
	Sources []string `json:"sources" yaml:"sources"`

	// URL is the paper landing page.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is a direct link to the full text, empty when the source
	// offers none.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance
	// to the query.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// DedupKey derives a source-independent identity from the normalized title
// and the first author's surname. Papers from different sources with the
// same key are treated as the same work.
func (p Paper) DedupKey() string {
	title := NormalizeTitle(p.Title)
	surname := ""
	if len(p.Authors) > 0 {
		surname = firstAuthorSurname(p.Authors[0])
	}
	return title + "|" + surname
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the
// title with collapsed whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// firstAuthorSurname extracts the last whitespace-separated token of an
// author name, lowercased. "Ashish Vaswani" and "A. Vaswani" both map to
// "vaswani".
func firstAuthorSurname(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// ExtractionMethod records which extraction tier produced a content record.
type ExtractionMethod string

const (
	// MethodNative is structured text extraction from the document itself.
	MethodNative ExtractionMethod = "native"

	// MethodOCR is image-based extraction, used when native extraction fails.
	MethodOCR ExtractionMethod = "ocr"

	// MethodMetadata is the minimal fallback: title and abstract only.
	MethodMetadata ExtractionMethod = "metadata"

	// MethodIndexed marks content served from the knowledge base instead
	// of a fresh extraction.
	MethodIndexed ExtractionMethod = "indexed"
)

// Section is one heading/body pair within extracted content. Order matters:
// sections appear in document order.
type Section struct {
	Heading string `json:"heading" yaml:"heading"`
	Body    string `json:"body" yaml:"body"`
}

// ExtractedContent is the structured text produced for one paper by the
// extraction pipeline.
type ExtractedContent struct {
	// PaperID references the dedup key of the source Paper.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Title is carried from the source paper for synthesis prompts.
	Title string `json:"title" yaml:"title"`

	// RawText is the full extracted text.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// Sections is the ordered heading/body decomposition of RawText.
	Sections []Section `json:"sections" yaml:"sections"`

	// Method records which fallback tier produced this content.
	Method ExtractionMethod `json:"extraction_method" yaml:"extraction_method"`

	// Confidence is a value between 0.0 and 1.0; lower tiers report
	// lower confidence.
	Confidence float64 `json:"extraction_confidence" yaml:"extraction_confidence"`
}
