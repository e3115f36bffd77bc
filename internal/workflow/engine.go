// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow drives submitted research queries through the staged
// pipeline: knowledge-base sufficiency check, multi-source discovery,
// tiered extraction, and synthesis. The engine owns request state; callers
// observe it through status snapshots, terminal results, or a push
// subscription.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/cache"
	"github.com/pdiddy/research-assistant/internal/extract"
	"github.com/pdiddy/research-assistant/internal/synthesis"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// KnowledgeStore is the indexed document collection the engine reads for
// sufficiency checks and writes freshly extracted content into.
type KnowledgeStore interface {
	Search(ctx context.Context, query string, k int) ([]types.SearchHit, error)
	AddDocuments(ctx context.Context, docs []types.Document) (int, error)
}

// Discoverer fans a query out to external sources and returns the merged
// ranked list plus absorbed per-source failures.
type Discoverer interface {
	Discover(ctx context.Context, query string, maxItems int) ([]types.Paper, []string, error)
}

// Extractor turns discovered papers into structured content, recording
// per-document failures without propagating them.
type Extractor interface {
	ExtractAll(ctx context.Context, papers []types.Paper) ([]types.ExtractedContent, []string)
}

// Synthesizer produces the final payload from query plus content.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, contents []types.ExtractedContent) (types.SynthesisResult, error)
}

// stageWeights is the fixed progress weight table. A request's progress is
// the sum of weights of the stages already behind it, so it is
// deterministic and monotonic even though stage durations vary. Skipped
// stages count as complete.
var stageWeights = map[types.RequestStatus]int{
	types.StatusCheckingKB:   10,
	types.StatusDiscovering:  30,
	types.StatusExtracting:   40,
	types.StatusSynthesizing: 20,
}

const defaultMaxPapers = 10

// subscriberBuffer sizes per-subscriber channels; a slow subscriber drops
// intermediate snapshots rather than blocking the pipeline.
const subscriberBuffer = 16

// Engine is the top-level state machine over active research requests.
type Engine struct {
	cfg         types.WorkflowConfig
	store       KnowledgeStore
	checker     *SufficiencyChecker
	discoverer  Discoverer
	extractor   Extractor
	synthesizer Synthesizer
	cache       *cache.Cache
	log         *zap.Logger

	mu     sync.Mutex
	active map[string]*types.ResearchRequest
	subs   map[string][]chan types.ResearchRequest

	// sem bounds the number of concurrently running pipelines. Submit
	// never blocks; excess requests queue in their own goroutines.
	sem chan struct{}

	now func() time.Time
}

// NewEngine wires the engine over its collaborators.
func NewEngine(cfg types.WorkflowConfig, store KnowledgeStore, discoverer Discoverer, extractor Extractor, synthesizer Synthesizer, c *cache.Cache, log *zap.Logger) *Engine {
	maxPipelines := cfg.MaxPipelines
	if maxPipelines <= 0 {
		maxPipelines = 8
	}
	return &Engine{
		cfg:         cfg,
		store:       store,
		checker:     NewSufficiencyChecker(store, cfg),
		discoverer:  discoverer,
		extractor:   extractor,
		synthesizer: synthesizer,
		cache:       c,
		log:         log,
		active:      make(map[string]*types.ResearchRequest),
		subs:        make(map[string][]chan types.ResearchRequest),
		sem:         make(chan struct{}, maxPipelines),
		now:         time.Now,
	}
}

// Submit validates the query, creates a pending request, and schedules the
// pipeline asynchronously. It returns the request id immediately.
func (e *Engine) Submit(query string, maxPapers int) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", &types.ValidationError{Msg: "query must not be empty"}
	}
	if maxPapers < 0 {
		return "", &types.ValidationError{Msg: "max_papers must not be negative"}
	}
	if maxPapers == 0 {
		maxPapers = defaultMaxPapers
	}

	req := &types.ResearchRequest{
		ID:          uuid.NewString(),
		Query:       query,
		MaxPapers:   maxPapers,
		CreatedAt:   e.now(),
		Status:      types.StatusPending,
		CurrentStep: "queued",
	}

	e.mu.Lock()
	e.active[req.ID] = req
	e.mu.Unlock()

	e.log.Info("request submitted",
		zap.String("request_id", req.ID),
		zap.String("query", query),
		zap.Int("max_papers", maxPapers))

	go e.run(req.ID, query, maxPapers)
	return req.ID, nil
}

// Status returns a snapshot of the request. Terminal requests are served
// from the result cache until their TTL expires.
func (e *Engine) Status(requestID string) (types.ResearchRequest, error) {
	e.mu.Lock()
	if req, ok := e.active[requestID]; ok {
		snapshot := *req
		e.mu.Unlock()
		return snapshot, nil
	}
	e.mu.Unlock()

	if v, ok := e.cache.Get(requestKey(requestID)); ok {
		return v.(types.ResearchRequest), nil
	}
	return types.ResearchRequest{}, types.ErrNotFound
}

// Results returns the terminal payload for a completed request. While the
// pipeline is still running it returns ErrPending; for a failed request it
// returns a RequestFailedError carrying the stored message.
func (e *Engine) Results(requestID string) (types.ResearchResults, error) {
	req, err := e.Status(requestID)
	if err != nil {
		return types.ResearchResults{}, err
	}

	switch req.Status {
	case types.StatusFailed:
		return types.ResearchResults{}, &types.RequestFailedError{RequestID: requestID, Msg: req.Error}
	case types.StatusCompleted:
		if v, ok := e.cache.Get(resultsKey(requestID)); ok {
			return v.(types.ResearchResults), nil
		}
		return types.ResearchResults{}, types.ErrNotFound
	default:
		return types.ResearchResults{}, types.ErrPending
	}
}

// Subscribe returns a channel delivering request snapshots on every state
// change, closed after the terminal snapshot. Slow receivers miss
// intermediate snapshots; the terminal one is delivered through the
// buffer. Polling Status remains the primary contract.
func (e *Engine) Subscribe(requestID string) (<-chan types.ResearchRequest, error) {
	ch := make(chan types.ResearchRequest, subscriberBuffer)

	e.mu.Lock()
	if _, ok := e.active[requestID]; ok {
		e.subs[requestID] = append(e.subs[requestID], ch)
		e.mu.Unlock()
		return ch, nil
	}
	e.mu.Unlock()

	// Already terminal: deliver the final snapshot and close.
	if v, ok := e.cache.Get(requestKey(requestID)); ok {
		ch <- v.(types.ResearchRequest)
		close(ch)
		return ch, nil
	}
	return nil, types.ErrNotFound
}

// run executes the pipeline for one request under the global timeout.
func (e *Engine) run(requestID, query string, maxPapers int) {
	e.sem <- struct{}{}
	defer func() { <-e.sem }()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.RequestTimeout)
	defer cancel()

	var runErrs []string

	e.setStage(requestID, types.StatusCheckingKB, "checking knowledge base")
	sufficient, hits, err := e.checker.Check(ctx, query)
	if err != nil {
		// A store read failing is degradation, not a dead end; fall
		// through to live discovery.
		e.log.Warn("sufficiency check failed", zap.String("request_id", requestID), zap.Error(err))
		runErrs = append(runErrs, fmt.Sprintf("sufficiency check: %v", err))
		sufficient = false
	}

	var (
		contents    []types.ExtractedContent
		papersFound int
	)

	if sufficient {
		papersFound = len(hits)
		contents = contentsFromHits(hits)
		e.log.Info("knowledge base sufficient",
			zap.String("request_id", requestID),
			zap.Int("hits", len(hits)))
	} else {
		e.setStage(requestID, types.StatusDiscovering, "discovering papers")
		papers, srcErrs, err := e.discoverer.Discover(ctx, query, maxPapers)
		runErrs = append(runErrs, srcErrs...)
		if err != nil {
			e.fail(requestID, e.asFatal(ctx, requestID, err))
			return
		}
		papersFound = len(papers)

		e.setStage(requestID, types.StatusExtracting, "extracting content")
		var extErrs []string
		contents, extErrs = e.extractor.ExtractAll(ctx, papers)
		runErrs = append(runErrs, extErrs...)
		if ctx.Err() != nil {
			e.fail(requestID, e.asFatal(ctx, requestID, ctx.Err()))
			return
		}

		e.indexContents(ctx, requestID, contents, &runErrs)
	}

	e.setStage(requestID, types.StatusSynthesizing, "synthesizing results")
	result, err := e.synthesizer.Synthesize(ctx, query, contents)
	if err != nil {
		e.fail(requestID, e.asFatal(ctx, requestID, err))
		return
	}

	e.complete(requestID, query, papersFound, len(contents), result, runErrs)
}

// asFatal maps a pipeline error to the terminal error for the request,
// preferring a timeout error when the global deadline was the real cause.
func (e *Engine) asFatal(ctx context.Context, requestID string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &types.TimeoutError{RequestID: requestID, Limit: e.cfg.RequestTimeout.String()}
	}
	return err
}

// indexContents writes extracted content into the knowledge store so
// future queries can be answered without discovery. Failure is recorded,
// not fatal.
func (e *Engine) indexContents(ctx context.Context, requestID string, contents []types.ExtractedContent, runErrs *[]string) {
	if len(contents) == 0 {
		return
	}
	docs := make([]types.Document, 0, len(contents))
	for _, c := range contents {
		docs = append(docs, types.Document{
			ID:           c.PaperID,
			Title:        c.Title,
			Source:       "pipeline",
			Text:         c.RawText,
			SectionCount: len(c.Sections),
			Method:       c.Method,
		})
	}
	added, err := e.store.AddDocuments(ctx, docs)
	if err != nil {
		e.log.Warn("indexing extracted content failed",
			zap.String("request_id", requestID), zap.Error(err))
		*runErrs = append(*runErrs, fmt.Sprintf("indexing: %v", err))
		return
	}
	e.log.Info("extracted content indexed",
		zap.String("request_id", requestID), zap.Int("documents", added))
}

// setStage transitions the request into a stage, updating progress from
// the weight table. Terminal requests are never mutated.
func (e *Engine) setStage(requestID string, status types.RequestStatus, step string) {
	e.mu.Lock()
	req, ok := e.active[requestID]
	if !ok || req.Status.Terminal() {
		e.mu.Unlock()
		return
	}
	req.Status = status
	req.CurrentStep = step
	if p := progressEntering(status); p > req.Progress {
		req.Progress = p
	}
	snapshot := *req
	e.notifyLocked(requestID, snapshot)
	e.mu.Unlock()
}

// progressEntering returns the percentage shown on entering a stage: the
// sum of the weights of every stage ordered before it.
func progressEntering(status types.RequestStatus) int {
	order := []types.RequestStatus{
		types.StatusCheckingKB,
		types.StatusDiscovering,
		types.StatusExtracting,
		types.StatusSynthesizing,
	}
	p := 0
	for _, s := range order {
		if s == status {
			return p
		}
		p += stageWeights[s]
	}
	return p
}

// complete finalizes a successful request: quality scoring, terminal
// snapshot and results written once to the cache, active entry removed.
func (e *Engine) complete(requestID, query string, papersFound, contentExtracted int, result types.SynthesisResult, runErrs []string) {
	results := types.ResearchResults{
		RequestID:        requestID,
		Query:            query,
		Status:           types.StatusCompleted,
		PapersFound:      papersFound,
		ContentExtracted: contentExtracted,
		Synthesis:        result,
		QualityScore:     synthesis.QualityScore(papersFound, contentExtracted, result),
		Errors:           runErrs,
		CompletedAt:      e.now(),
	}

	e.finalize(requestID, types.StatusCompleted, "completed", "", &results)

	e.log.Info("request completed",
		zap.String("request_id", requestID),
		zap.Int("papers_found", papersFound),
		zap.Int("content_extracted", contentExtracted),
		zap.Int("quality_score", results.QualityScore),
		zap.Int("absorbed_errors", len(runErrs)))
}

// fail terminates the request with the recorded error message.
func (e *Engine) fail(requestID string, err error) {
	e.finalize(requestID, types.StatusFailed, "failed", err.Error(), nil)
	e.log.Warn("request failed",
		zap.String("request_id", requestID),
		zap.Error(err))
}

// finalize moves a request to its terminal state exactly once: the
// terminal snapshot (and results, when completed) go to the TTL cache, the
// active entry is dropped, and subscribers receive the final snapshot
// before their channels close.
func (e *Engine) finalize(requestID string, status types.RequestStatus, step, errMsg string, results *types.ResearchResults) {
	e.mu.Lock()
	req, ok := e.active[requestID]
	if !ok || req.Status.Terminal() {
		e.mu.Unlock()
		return
	}
	req.Status = status
	req.CurrentStep = step
	req.Error = errMsg
	if status == types.StatusCompleted {
		req.Progress = 100
	}
	snapshot := *req
	delete(e.active, requestID)

	e.cache.Put(requestKey(requestID), snapshot, e.cfg.ResultTTL)
	if results != nil {
		e.cache.Put(resultsKey(requestID), *results, e.cfg.ResultTTL)
	}

	e.notifyLocked(requestID, snapshot)
	for _, ch := range e.subs[requestID] {
		close(ch)
	}
	delete(e.subs, requestID)
	e.mu.Unlock()
}

// notifyLocked pushes a snapshot to subscribers without blocking. Callers
// hold e.mu.
func (e *Engine) notifyLocked(requestID string, snapshot types.ResearchRequest) {
	for _, ch := range e.subs[requestID] {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// contentsFromHits adapts indexed documents into synthesis input when the
// knowledge base already holds enough relevant material.
func contentsFromHits(hits []types.SearchHit) []types.ExtractedContent {
	contents := make([]types.ExtractedContent, 0, len(hits))
	for _, h := range hits {
		contents = append(contents, types.ExtractedContent{
			PaperID:    h.ID,
			Title:      h.Title,
			RawText:    h.Text,
			Sections:   extract.Sectionize(h.Text),
			Method:     types.MethodIndexed,
			Confidence: h.Score,
		})
	}
	return contents
}

func requestKey(id string) string { return "request:" + id }
func resultsKey(id string) string { return "results:" + id }
