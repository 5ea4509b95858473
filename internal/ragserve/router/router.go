// Package router provides RAG service routing.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/ragserve/internal/ragserve/handler"
	"github.com/kart-io/ragserve/internal/ragserve/metrics"
	"github.com/kart-io/ragserve/pkg/middleware"
)

// queryTimeout bounds a single query including retrieval and generation.
const queryTimeout = 60 * time.Second

// Register registers the RAG service routes on the gin engine.
func Register(engine *gin.Engine, ragHandler *handler.RAGHandler) {
	logger.Info("Registering RAG routes...")

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	// Health and operational endpoints
	engine.GET("/healthz", ragHandler.Healthz)
	engine.GET("/metrics", exportMetrics)

	// RAG API Routes
	v1 := engine.Group("/v1")
	{
		rag := v1.Group("/rag")
		{
			// Query endpoint carries the longest deadline
			rag.POST("/query", middleware.Timeout(queryTimeout), ragHandler.Query)

			// Document endpoints
			rag.POST("/documents", ragHandler.Upload)
			rag.DELETE("/documents", ragHandler.DeleteDocuments)
			rag.POST("/index/directory", ragHandler.IndexDirectory)

			// Observability endpoints
			rag.GET("/metrics/recent", ragHandler.Recent)
			rag.GET("/stats", ragHandler.Stats)
		}
	}

	logger.Info("HTTP routes registered")
}

// exportMetrics serves counters in Prometheus text exposition format.
func exportMetrics(c *gin.Context) {
	body := metrics.GetCounters().Export("ragserve", "rag")
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(body))
}
