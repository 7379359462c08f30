package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the HTTP routes. corpus may be nil to disable document
// uploads; gatherer may be nil to omit /metrics.
func NewRouter(answers *AnswerHandler, corpus *CorpusHandler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API routes
	api := r.Group("/api")
	{
		api.POST("/ask", answers.Ask)
		api.POST("/verify", answers.Verify)
		api.POST("/grade", answers.Grade)
		api.POST("/severity", answers.Severity)

		if corpus != nil {
			api.POST("/corpus", corpus.UploadDocument)
			api.GET("/corpus", corpus.ListDocuments)
			api.GET("/corpus/files/*key", corpus.GetDocument)
		}
	}
	return r
}
