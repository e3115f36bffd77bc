// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultSearchK  = 10
	defaultClusters = 5
)

func (s *Server) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	k := defaultSearchK
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be a positive integer"})
			return
		}
		k = parsed
	}

	hits, err := s.knowledge.Search(c.Request.Context(), query, k)
	if err != nil {
		s.log.Error("knowledge search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "results": hits})
}

func (s *Server) statistics(c *gin.Context) {
	stats, err := s.knowledge.Stats(c.Request.Context())
	if err != nil {
		s.log.Error("knowledge stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "statistics unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) clusters(c *gin.Context) {
	n := defaultClusters
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	clusters, err := s.knowledge.Clusters(c.Request.Context(), n)
	if err != nil {
		s.log.Error("knowledge clusters failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clusters unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}
