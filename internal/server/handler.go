// ABOUTME: Handlers for POST /api/query and GET /api/courses
// ABOUTME: Empty queries are rejected with 400; other failures return 500
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harper/coursemate/internal/models"
)

// QueryRequest is the body of POST /api/query
type QueryRequest struct {
	Query     string  `json:"query" binding:"required"`
	SessionID *string `json:"session_id"`
}

// Handler handles the course API
type Handler struct {
	assistant Assistant
	logger    *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(assistant Assistant, logger *zap.Logger) *Handler {
	return &Handler{assistant: assistant, logger: logger}
}

// RegisterRoutes registers the API routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/query", h.Query)
	r.GET("/courses", h.Courses)
}

// Query answers a question within a session
func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrEmptyQuery.Error()})
		return
	}

	sessionID := ""
	if req.SessionID != nil {
		sessionID = *req.SessionID
	}

	result, err := h.assistant.Query(c.Request.Context(), req.Query, sessionID)
	if errors.Is(err, models.ErrEmptyQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("query failed", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Courses returns the catalog analytics
func (h *Handler) Courses(c *gin.Context) {
	analytics, err := h.assistant.CourseAnalytics(c.Request.Context())
	if err != nil {
		h.logger.Error("course analytics failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analytics)
}
