// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// stubEngine returns canned workflow responses.
type stubEngine struct {
	submitID  string
	submitErr error
	status    types.ResearchRequest
	statusErr error
	results   types.ResearchResults
	resultErr error
}

func (s *stubEngine) Submit(query string, maxPapers int) (string, error) {
	return s.submitID, s.submitErr
}

func (s *stubEngine) Status(requestID string) (types.ResearchRequest, error) {
	return s.status, s.statusErr
}

func (s *stubEngine) Results(requestID string) (types.ResearchResults, error) {
	return s.results, s.resultErr
}

type stubKnowledge struct {
	hits      []types.SearchHit
	searchErr error
	stats     types.KnowledgeStats
	clusters  []types.TopicCluster
	added     []types.Document
}

func (s *stubKnowledge) Search(ctx context.Context, query string, k int) ([]types.SearchHit, error) {
	return s.hits, s.searchErr
}

func (s *stubKnowledge) AddDocuments(ctx context.Context, docs []types.Document) (int, error) {
	s.added = append(s.added, docs...)
	return len(docs), nil
}

func (s *stubKnowledge) Stats(ctx context.Context) (types.KnowledgeStats, error) {
	return s.stats, nil
}

func (s *stubKnowledge) Clusters(ctx context.Context, n int) ([]types.TopicCluster, error) {
	return s.clusters, nil
}

type stubSessions struct {
	session types.Session
	valid   bool
}

func (s *stubSessions) Create() types.Session  { return s.session }
func (s *stubSessions) Validate(id string) bool { return s.valid }

type testDeps struct {
	engine    *stubEngine
	knowledge *stubKnowledge
	sessions  *stubSessions
}

func newTestRouter(t *testing.T, deps testDeps) *gin.Engine {
	t.Helper()
	if deps.engine == nil {
		deps.engine = &stubEngine{}
	}
	if deps.knowledge == nil {
		deps.knowledge = &stubKnowledge{}
	}
	if deps.sessions == nil {
		deps.sessions = &stubSessions{}
	}
	ingester := &Ingester{WorkDir: t.TempDir()}
	srv := New(deps.engine, deps.knowledge, deps.sessions, ingester,
		types.ServerConfig{MaxUploadBytes: 1 << 20}, zap.NewNop())
	return srv.Router()
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, testDeps{})
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSubmitResearch(t *testing.T) {
	r := newTestRouter(t, testDeps{engine: &stubEngine{submitID: "req-1"}})
	w := doJSON(t, r, http.MethodPost, "/research", gin.H{"query": "attention", "max_papers": 5})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"request_id":"req-1"}`, w.Body.String())
}

func TestSubmitResearchValidation(t *testing.T) {
	r := newTestRouter(t, testDeps{engine: &stubEngine{
		submitErr: &types.ValidationError{Msg: "query must not be empty"},
	}})
	w := doJSON(t, r, http.MethodPost, "/research", gin.H{"query": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "query must not be empty")
}

func TestSubmitResearchBadBody(t *testing.T) {
	r := newTestRouter(t, testDeps{})
	req := httptest.NewRequest(http.MethodPost, "/research", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResearchStatus(t *testing.T) {
	r := newTestRouter(t, testDeps{engine: &stubEngine{status: types.ResearchRequest{
		ID:          "req-1",
		Status:      types.StatusExtracting,
		CurrentStep: "extracting content",
		Progress:    40,
	}}})
	w := doJSON(t, r, http.MethodGet, "/research/req-1/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "extracting", got["status"])
	assert.Equal(t, float64(40), got["progress"])
}

func TestResearchStatusNotFound(t *testing.T) {
	r := newTestRouter(t, testDeps{engine: &stubEngine{statusErr: types.ErrNotFound}})
	w := doJSON(t, r, http.MethodGet, "/research/nope/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResearchResultsCompleted(t *testing.T) {
	r := newTestRouter(t, testDeps{engine: &stubEngine{results: types.ResearchResults{
		RequestID:        "req-1",
		Status:           types.StatusCompleted,
		PapersFound:      5,
		ContentExtracted: 4,
		Synthesis:        types.SynthesisResult(`{"summary":"done"}`),
		QualityScore:     75,
		CompletedAt:      time.Now(),
	}}})
	w := doJSON(t, r, http.MethodGet, "/research/req-1/results", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"papers_found":5`)
	assert.Contains(t, w.Body.String(), `"quality_score":75`)
}

func TestResearchResultsPending(t *testing.T) {
	r := newTestRouter(t, testDeps{engine: &stubEngine{resultErr: types.ErrPending}})
	w := doJSON(t, r, http.MethodGet, "/research/req-1/results", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "pending")
}

func TestResearchResultsFailed(t *testing.T) {
	r := newTestRouter(t, testDeps{engine: &stubEngine{
		resultErr: &types.RequestFailedError{RequestID: "req-1", Msg: "all discovery sources failed"},
	}})
	w := doJSON(t, r, http.MethodGet, "/research/req-1/results", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "all discovery sources failed")
}

func TestResearchResultsNotFound(t *testing.T) {
	r := newTestRouter(t, testDeps{engine: &stubEngine{resultErr: types.ErrNotFound}})
	w := doJSON(t, r, http.MethodGet, "/research/nope/results", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearch(t *testing.T) {
	r := newTestRouter(t, testDeps{knowledge: &stubKnowledge{hits: []types.SearchHit{
		{Document: types.Document{ID: "d1", Title: "Doc One"}, Score: 1.0, Snippet: "…match…"},
	}}})
	w := doJSON(t, r, http.MethodGet, "/search?query=attention&k=3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Doc One")
}

func TestSearchMissingQuery(t *testing.T) {
	r := newTestRouter(t, testDeps{})
	w := doJSON(t, r, http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchBadK(t *testing.T) {
	r := newTestRouter(t, testDeps{})
	w := doJSON(t, r, http.MethodGet, "/search?query=x&k=-2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchStoreError(t *testing.T) {
	r := newTestRouter(t, testDeps{knowledge: &stubKnowledge{searchErr: fmt.Errorf("index locked")}})
	w := doJSON(t, r, http.MethodGet, "/search?query=x", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "index locked")
}

func TestStatistics(t *testing.T) {
	r := newTestRouter(t, testDeps{knowledge: &stubKnowledge{stats: types.KnowledgeStats{
		Documents: 12,
		Sources:   map[string]int{"upload": 12},
	}}})
	w := doJSON(t, r, http.MethodGet, "/statistics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"documents":12`)
}

func TestClusters(t *testing.T) {
	r := newTestRouter(t, testDeps{knowledge: &stubKnowledge{clusters: []types.TopicCluster{
		{Label: "transformer", Terms: []string{"transformer", "attention"}, Documents: 2},
	}}})
	w := doJSON(t, r, http.MethodGet, "/clusters", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "transformer")
}

func TestSessionStart(t *testing.T) {
	r := newTestRouter(t, testDeps{sessions: &stubSessions{session: types.Session{
		ID:        "sess-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}}})
	w := doJSON(t, r, http.MethodPost, "/session/start", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sess-1")
}

func TestSessionValidate(t *testing.T) {
	r := newTestRouter(t, testDeps{sessions: &stubSessions{valid: true}})
	w := doJSON(t, r, http.MethodPost, "/session/validate", gin.H{"session_id": "sess-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true}`, w.Body.String())
}

func TestSessionValidateMissingID(t *testing.T) {
	r := newTestRouter(t, testDeps{})
	w := doJSON(t, r, http.MethodPost, "/session/validate", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadTextFiles(t *testing.T) {
	knowledge := &stubKnowledge{}
	r := newTestRouter(t, testDeps{knowledge: knowledge})

	body, contentType := multipartBody(t, map[string]string{
		"notes.txt":  "observations about transformers",
		"summary.md": "# Summary\ndistilled findings",
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"indexed":2`)
	require.Len(t, knowledge.added, 2)
	for _, doc := range knowledge.added {
		assert.Equal(t, "upload", doc.Source)
		assert.NotEmpty(t, doc.Text)
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	r := newTestRouter(t, testDeps{})

	body, contentType := multipartBody(t, map[string]string{"image.png": "binary"})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"indexed":0`)
	assert.Contains(t, w.Body.String(), "image.png")
}

func TestUploadNoFiles(t *testing.T) {
	r := newTestRouter(t, testDeps{})

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
