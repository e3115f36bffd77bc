// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/research-assistant/pkg/types"
)

type submitRequest struct {
	Query     string `json:"query"`
	MaxPapers int    `json:"max_papers"`
}

func (s *Server) submitResearch(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := s.engine.Submit(req.Query, req.MaxPapers)
	if err != nil {
		var valErr *types.ValidationError
		if errors.As(err, &valErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Msg})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit request"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"request_id": id})
}

func (s *Server) researchStatus(c *gin.Context) {
	req, err := s.engine.Status(c.Param("id"))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown request id"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id":   req.ID,
		"status":       req.Status,
		"current_step": req.CurrentStep,
		"progress":     req.Progress,
	})
}

func (s *Server) researchResults(c *gin.Context) {
	id := c.Param("id")
	results, err := s.engine.Results(id)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown request id"})
		case errors.Is(err, types.ErrPending):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "request not completed",
				"status": "pending",
			})
		default:
			var failErr *types.RequestFailedError
			if errors.As(err, &failErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":  failErr.Msg,
					"status": types.StatusFailed,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read results"})
		}
		return
	}

	c.JSON(http.StatusOK, results)
}
