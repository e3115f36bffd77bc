// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research pipeline over HTTP. All responses
// are JSON; pipeline errors surface as structured payloads, never raw
// panics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// ResearchEngine is the workflow surface the HTTP layer drives.
type ResearchEngine interface {
	Submit(query string, maxPapers int) (string, error)
	Status(requestID string) (types.ResearchRequest, error)
	Results(requestID string) (types.ResearchResults, error)
}

// Knowledge is the document index surface for direct queries and uploads.
type Knowledge interface {
	Search(ctx context.Context, query string, k int) ([]types.SearchHit, error)
	AddDocuments(ctx context.Context, docs []types.Document) (int, error)
	Stats(ctx context.Context) (types.KnowledgeStats, error)
	Clusters(ctx context.Context, n int) ([]types.TopicCluster, error)
}

// Sessions manages client session lifecycle.
type Sessions interface {
	Create() types.Session
	Validate(id string) bool
}

// Server holds the handler dependencies.
type Server struct {
	engine    ResearchEngine
	knowledge Knowledge
	sessions  Sessions
	ingester  *Ingester
	cfg       types.ServerConfig
	log       *zap.Logger
}

// New creates the HTTP server over its collaborators.
func New(engine ResearchEngine, knowledge Knowledge, sessions Sessions, ingester *Ingester, cfg types.ServerConfig, log *zap.Logger) *Server {
	return &Server{
		engine:    engine,
		knowledge: knowledge,
		sessions:  sessions,
		ingester:  ingester,
		cfg:       cfg,
		log:       log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.accessLog(), gin.Recovery())
	r.MaxMultipartMemory = s.cfg.MaxUploadBytes

	r.GET("/health", s.health)

	r.POST("/research", s.submitResearch)
	r.GET("/research/:id/status", s.researchStatus)
	r.GET("/research/:id/results", s.researchResults)

	r.GET("/search", s.search)
	r.GET("/statistics", s.statistics)
	r.GET("/clusters", s.clusters)

	r.POST("/session/start", s.sessionStart)
	r.POST("/session/validate", s.sessionValidate)

	r.POST("/upload", s.upload)

	return r
}

// accessLog is a minimal zap request logger.
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
