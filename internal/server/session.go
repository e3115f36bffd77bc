// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) sessionStart(c *gin.Context) {
	session := s.sessions.Create()
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"expires_at": session.ExpiresAt,
	})
}

type validateRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) sessionValidate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": s.sessions.Validate(req.SessionID)})
}
