package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"legid-backend/models"
	"legid-backend/service"

	"github.com/gin-gonic/gin"
)

// Answerer runs the question pipeline
type Answerer interface {
	Run(ctx context.Context, question string, qctx *models.QuestionContext) (*models.Response, error)
}

// AnswerHandler handles HTTP requests for answers and draft diagnostics
type AnswerHandler struct {
	pipeline Answerer
	timeout  time.Duration
}

// NewAnswerHandler creates a new answer handler. timeout bounds one ask
// request; zero means the request context alone decides.
func NewAnswerHandler(pipeline Answerer, timeout time.Duration) *AnswerHandler {
	return &AnswerHandler{
		pipeline: pipeline,
		timeout:  timeout,
	}
}

// AskRequest represents the request body for asking a question
type AskRequest struct {
	Question         string `json:"question" binding:"required"`
	JurisdictionHint string `json:"jurisdiction_hint"`
	ConversationID   string `json:"conversation_id"`
}

// VerifyRequest represents the request body for verifying a draft
type VerifyRequest struct {
	Draft       string                   `json:"draft" binding:"required"`
	CitationMap []models.CitationMapping `json:"citation_map"`
	Chunks      []models.EvidenceChunk   `json:"chunks"`
}

// GradeRequest represents the request body for grading a draft
type GradeRequest struct {
	Draft string `json:"draft" binding:"required"`
}

// SeverityRequest represents the request body for severity classification
type SeverityRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask handles POST /api/ask
func (h *AnswerHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp, err := h.pipeline.Run(ctx, req.Question, &models.QuestionContext{
		JurisdictionHint: req.JurisdictionHint,
		ConversationID:   req.ConversationID,
	})
	if err != nil {
		status, code := classifyError(err)
		slog.Error("ask failed", "status", status, "code", code, "error", err)
		errorResponse(c, status, code, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
	})
}

// Verify handles POST /api/verify
func (h *AnswerHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    service.Verify(req.Draft, req.CitationMap, req.Chunks),
	})
}

// Grade handles POST /api/grade
func (h *AnswerHandler) Grade(c *gin.Context) {
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    service.Grade(req.Draft),
	})
}

// Severity handles POST /api/severity
func (h *AnswerHandler) Severity(c *gin.Context) {
	var req SeverityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    service.ClassifySeverity(req.Question),
	})
}

func invalidRequest(c *gin.Context, err error) {
	errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
}

// classifyError maps pipeline errors onto HTTP status and error code.
// Deadline is checked first since a timed-out backend call is also upstream.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return 499, "CANCELED"
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, service.ErrEmptyQuestion):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, service.ErrPromptTemplate):
		return http.StatusInternalServerError, "PROMPT_TEMPLATE_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
