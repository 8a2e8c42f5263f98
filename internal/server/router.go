// ABOUTME: Gin router exposing the query and catalog endpoints
// ABOUTME: Also serves /healthz and Prometheus metrics at /metrics
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harper/coursemate/internal/metrics"
	"github.com/harper/coursemate/internal/rag"
)

// Assistant is the part of the system the HTTP layer calls
type Assistant interface {
	Query(ctx context.Context, text, sessionID string) (*rag.QueryResult, error)
	CourseAnalytics(ctx context.Context) (*rag.Analytics, error)
}

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// SetupRouter sets up the Gin router
func SetupRouter(assistant Assistant, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(CORS(cfg.AllowOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	h := NewHandler(assistant, logger)
	h.RegisterRoutes(r.Group("/api"))

	return r
}
