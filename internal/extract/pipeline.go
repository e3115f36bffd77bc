// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns discovered papers into structured text through a
// tiered fallback chain: native text layer, then OCR, then a metadata
// stub. Every paper produces content; only the confidence degrades.
package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Per-tier confidence reported on extracted content.
const (
	ConfidenceNative   = 0.9
	ConfidenceOCR      = 0.6
	ConfidenceMetadata = 0.2
)

// Pipeline extracts text from a batch of papers with bounded concurrency.
// Either extractor tier may be nil, in which case that tier is skipped.
type Pipeline struct {
	fetcher *Fetcher
	native  TextExtractor
	ocr     TextExtractor
	minText int
	workers int
	log     *zap.Logger
}

// NewPipeline creates a pipeline from the extraction configuration.
func NewPipeline(cfg types.ExtractionConfig, fetcher *Fetcher, native, ocr TextExtractor, log *zap.Logger) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	minText := cfg.MinTextLength
	if minText <= 0 {
		minText = 400
	}
	return &Pipeline{
		fetcher: fetcher,
		native:  native,
		ocr:     ocr,
		minText: minText,
		workers: workers,
		log:     log,
	}
}

// ExtractAll processes papers concurrently and returns content records in
// input order, plus the tier failures that were absorbed along the way.
// A paper whose whole chain fails (including the metadata stub, which only
// fails when there is no metadata to stub from) is excluded from the
// output; its failure is recorded, never propagated.
func (p *Pipeline) ExtractAll(ctx context.Context, papers []types.Paper) ([]types.ExtractedContent, []string) {
	type slot struct {
		content types.ExtractedContent
		ok      bool
	}
	slots := make([]slot, len(papers))

	var (
		mu       sync.Mutex
		absorbed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, paper := range papers {
		i, paper := i, paper
		g.Go(func() error {
			content, ok, tierErrs := p.extractOne(gctx, paper)
			slots[i] = slot{content: content, ok: ok}
			if len(tierErrs) > 0 {
				mu.Lock()
				absorbed = append(absorbed, tierErrs...)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	contents := make([]types.ExtractedContent, 0, len(papers))
	for _, s := range slots {
		if s.ok {
			contents = append(contents, s.content)
		}
	}

	p.log.Info("extraction complete",
		zap.Int("papers", len(papers)),
		zap.Int("extracted", len(contents)),
		zap.Int("tier_failures", len(absorbed)))
	return contents, absorbed
}

// extractOne walks one paper down the tier chain. The first tier to
// produce usable text wins; the metadata stub is the floor.
func (p *Pipeline) extractOne(ctx context.Context, paper types.Paper) (types.ExtractedContent, bool, []string) {
	var tierErrs []string

	pdfPath, err := p.fetchPDF(ctx, paper)
	if err != nil {
		tierErrs = append(tierErrs, fmt.Sprintf("%s: %v", paper.ExternalID, err))
	} else {
		if err := p.fetcher.WriteMetadata(paper); err != nil {
			p.log.Debug("metadata sidecar write failed",
				zap.String("paper", paper.ExternalID), zap.Error(err))
		}
		if p.native != nil {
			text, err := p.native.Extract(ctx, pdfPath)
			if err == nil && p.usable(text) {
				return p.content(paper, text, types.MethodNative, ConfidenceNative), true, tierErrs
			}
			tierErrs = append(tierErrs, p.tierError(paper, types.MethodNative, text, err))
		}

		if p.ocr != nil {
			text, err := p.ocr.Extract(ctx, pdfPath)
			if err == nil && p.usable(text) {
				return p.content(paper, text, types.MethodOCR, ConfidenceOCR), true, tierErrs
			}
			tierErrs = append(tierErrs, p.tierError(paper, types.MethodOCR, text, err))
		}
	}

	stub, stubErr := p.metadataStub(paper)
	if stubErr != nil {
		tierErrs = append(tierErrs, p.tierError(paper, types.MethodMetadata, "", stubErr))
		return types.ExtractedContent{}, false, tierErrs
	}
	return stub, true, tierErrs
}

func (p *Pipeline) fetchPDF(ctx context.Context, paper types.Paper) (string, error) {
	if p.fetcher == nil {
		return "", fmt.Errorf("no PDF fetcher configured")
	}
	return p.fetcher.Fetch(ctx, paper.PDFURL, paper.ExternalID)
}

// usable reports whether extracted text clears the minimum length. Very
// short output usually means the PDF has no real text layer.
func (p *Pipeline) usable(text string) bool {
	return len(strings.TrimSpace(text)) >= p.minText
}

func (p *Pipeline) tierError(paper types.Paper, method types.ExtractionMethod, text string, err error) string {
	if err == nil {
		err = fmt.Errorf("text too short: %d chars", len(strings.TrimSpace(text)))
	}
	extErr := &types.ExtractionError{Method: method, Err: err}
	p.log.Debug("extraction tier failed",
		zap.String("paper", paper.ExternalID),
		zap.String("method", string(method)),
		zap.Error(err))
	return fmt.Sprintf("%s: %v", paper.ExternalID, extErr)
}

func (p *Pipeline) content(paper types.Paper, text string, method types.ExtractionMethod, confidence float64) types.ExtractedContent {
	return types.ExtractedContent{
		PaperID:    paper.DedupKey(),
		Title:      paper.Title,
		RawText:    text,
		Sections:   Sectionize(text),
		Method:     method,
		Confidence: confidence,
	}
}

// metadataStub builds content from the discovery metadata alone. It only
// fails when the paper carries no metadata worth stubbing.
func (p *Pipeline) metadataStub(paper types.Paper) (types.ExtractedContent, error) {
	if paper.Title == "" && paper.Abstract == "" {
		return types.ExtractedContent{}, fmt.Errorf("no metadata available for stub")
	}

	var sb strings.Builder
	sb.WriteString(paper.Title)
	if len(paper.Authors) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(strings.Join(paper.Authors, ", "))
	}
	if paper.Abstract != "" {
		sb.WriteString("\n\n")
		sb.WriteString(paper.Abstract)
	}

	var sections []types.Section
	if paper.Abstract != "" {
		sections = append(sections, types.Section{Heading: "Abstract", Body: paper.Abstract})
	}

	return types.ExtractedContent{
		PaperID:    paper.DedupKey(),
		Title:      paper.Title,
		RawText:    sb.String(),
		Sections:   sections,
		Method:     types.MethodMetadata,
		Confidence: ConfidenceMetadata,
	}, nil
}
