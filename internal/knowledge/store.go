// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge persists extracted documents and serves similarity
// queries, statistics, and topic clusters over the indexed corpus.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "research.db"
)

// Store manages the knowledge base SQLite database. It is safe for
// concurrent readers; writes are serialized by SQLite's WAL journal.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the knowledge base database at
// cfg.Dir/index/research.db and bootstraps the schema.
func NewStore(cfg types.KnowledgeConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT,
			source TEXT,
			text TEXT NOT NULL,
			section_count INTEGER,
			extraction_method TEXT,
			indexed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE documents_fts USING fts5(title, text, content=documents, content_rowid=rowid)`,
			`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
				INSERT INTO documents_fts(rowid, title, text) VALUES (new.rowid, new.title, new.text);
			END`,
			`CREATE TRIGGER documents_ad AFTER DELETE ON documents BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, title, text) VALUES('delete', old.rowid, old.title, old.text);
			END`,
			`CREATE TRIGGER documents_au AFTER UPDATE ON documents BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, title, text) VALUES('delete', old.rowid, old.title, old.text);
				INSERT INTO documents_fts(rowid, title, text) VALUES (new.rowid, new.title, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// AddDocuments upserts documents into the index inside one transaction and
// returns how many records were written. Documents with an empty ID or
// empty text are skipped rather than failing the batch.
func (s *Store) AddDocuments(ctx context.Context, docs []types.Document) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, title, source, text, section_count, extraction_method, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, source=excluded.source, text=excluded.text,
			section_count=excluded.section_count,
			extraction_method=excluded.extraction_method,
			indexed_at=excluded.indexed_at`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	added := 0
	for _, d := range docs {
		if d.ID == "" || strings.TrimSpace(d.Text) == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			d.ID, d.Title, d.Source, d.Text, d.SectionCount, string(d.Method), now,
		); err != nil {
			return 0, fmt.Errorf("inserting document %s: %w", d.ID, err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return added, nil
}

// Search runs a full-text query and returns up to k hits ranked best-first.
// Scores are normalized by rank position into (0,1]: the best hit scores
// 1.0 and the worst 0.1, so a relevance cutoff is stable across corpora.
func (s *Store) Search(ctx context.Context, query string, k int) ([]types.SearchHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if k <= 0 {
		k = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.title, d.source, d.text, d.section_count, d.extraction_method,
			snippet(documents_fts, 1, '', '', '…', 16)
		FROM documents_fts
		JOIN documents d ON d.rowid = documents_fts.rowid
		WHERE documents_fts MATCH ?
		ORDER BY documents_fts.rank
		LIMIT ?`, match, k)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var hits []types.SearchHit
	for rows.Next() {
		var (
			h      types.SearchHit
			method string
		)
		if err := rows.Scan(&h.ID, &h.Title, &h.Source, &h.Text, &h.SectionCount, &method, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		h.Method = types.ExtractionMethod(method)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	total := len(hits)
	for i := range hits {
		if total > 1 {
			hits[i].Score = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			hits[i].Score = 1.0
		}
	}
	return hits, nil
}

// Stats returns aggregate counts over the indexed corpus.
func (s *Store) Stats(ctx context.Context) (types.KnowledgeStats, error) {
	stats := types.KnowledgeStats{
		Sources: make(map[string]int),
		Methods: make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM documents`,
	).Scan(&stats.Documents); err != nil {
		return stats, fmt.Errorf("counting documents: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, extraction_method, count(*) FROM documents GROUP BY source, extraction_method`)
	if err != nil {
		return stats, fmt.Errorf("grouping documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source, method string
		var n int
		if err := rows.Scan(&source, &method, &n); err != nil {
			return stats, fmt.Errorf("scanning group: %w", err)
		}
		stats.Sources[source] += n
		stats.Methods[method] += n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	var last sql.NullString
	if err := s.db.QueryRowContext(ctx,
		`SELECT max(indexed_at) FROM documents`,
	).Scan(&last); err != nil {
		return stats, fmt.Errorf("reading last indexed: %w", err)
	}
	if last.Valid {
		if t, err := time.Parse(time.RFC3339, last.String); err == nil {
			stats.LastIndexed = t
		}
	}

	return stats, nil
}

// ftsQuery converts free text into a safe FTS5 MATCH expression: each word
// token is quoted and tokens are joined with OR, so punctuation in a user
// query cannot break the MATCH syntax.
func ftsQuery(query string) string {
	norm := types.NormalizeTitle(query)
	fields := strings.Fields(norm)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}
	return strings.Join(quoted, " OR ")
}
