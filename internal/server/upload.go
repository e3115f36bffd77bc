// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/extract"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Ingester turns uploaded files into knowledge-store documents. PDFs go
// through the native extraction tier; plain-text formats are indexed
// as-is.
type Ingester struct {
	Native  extract.TextExtractor
	WorkDir string
}

// Ingest produces a Document from one uploaded file.
func (ing *Ingester) Ingest(ctx context.Context, filename string, data []byte) (types.Document, error) {
	var (
		text   string
		method types.ExtractionMethod
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		if ing.Native == nil {
			return types.Document{}, fmt.Errorf("PDF extraction not configured")
		}
		path, err := ing.stage(filename, data)
		if err != nil {
			return types.Document{}, err
		}
		defer os.Remove(path)

		text, err = ing.Native.Extract(ctx, path)
		if err != nil {
			return types.Document{}, &types.ExtractionError{Method: types.MethodNative, Err: err}
		}
		method = types.MethodNative
	case ".txt", ".md", ".markdown":
		text = string(data)
		method = types.MethodNative
	default:
		return types.Document{}, fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}

	if strings.TrimSpace(text) == "" {
		return types.Document{}, fmt.Errorf("no text extracted from %s", filename)
	}

	return types.Document{
		ID:           uuid.NewString(),
		Title:        strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
		Source:       "upload",
		Text:         text,
		SectionCount: len(extract.Sectionize(text)),
		Method:       method,
	}, nil
}

// stage writes upload bytes to a scratch file for the extraction tool.
func (ing *Ingester) stage(filename string, data []byte) (string, error) {
	if err := os.MkdirAll(ing.WorkDir, 0o755); err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	f, err := os.CreateTemp(ing.WorkDir, ".upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing scratch file: %w", err)
	}
	return f.Name(), nil
}

func (s *Server) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	var (
		docs   []types.Document
		failed []string
	)
	for _, fh := range files {
		data, err := readUpload(fh, s.cfg.MaxUploadBytes)
		if err != nil {
			s.log.Warn("upload read failed", zap.String("file", fh.Filename), zap.Error(err))
			failed = append(failed, fh.Filename)
			continue
		}
		doc, err := s.ingester.Ingest(c.Request.Context(), fh.Filename, data)
		if err != nil {
			s.log.Warn("upload ingest failed", zap.String("file", fh.Filename), zap.Error(err))
			failed = append(failed, fh.Filename)
			continue
		}
		docs = append(docs, doc)
	}

	indexed := 0
	if len(docs) > 0 {
		indexed, err = s.knowledge.AddDocuments(c.Request.Context(), docs)
		if err != nil {
			s.log.Error("indexing uploads failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to index documents"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"indexed": indexed,
		"failed":  failed,
	})
}

func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if limit > 0 && fh.Size > limit {
		return nil, fmt.Errorf("file exceeds %d byte limit", limit)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
