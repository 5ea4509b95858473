// Package handler provides HTTP handlers for the RAG query service.
package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/ragserve/internal/model"
	"github.com/kart-io/ragserve/internal/ragserve/biz"
	"github.com/kart-io/ragserve/pkg/errors"
	"github.com/kart-io/ragserve/pkg/loader"
)

// RAGHandler handles RAG HTTP requests.
type RAGHandler struct {
	service     biz.Service
	recentLimit int
}

// NewRAGHandler creates a new RAGHandler.
func NewRAGHandler(service biz.Service, recentLimit int) *RAGHandler {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &RAGHandler{
		service:     service,
		recentLimit: recentLimit,
	}
}

// SuccessResponse is a standard success response.
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// fail writes an Errno-based error response.
func fail(c *gin.Context, err error) {
	errno := errors.FromError(err)
	c.JSON(errno.HTTPStatus(), ErrorResponse{
		Code:    errno.Code,
		Message: errno.Message,
	})
}

// ok writes a success response.
func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    0,
		Message: "OK",
		Data:    data,
	})
}

// QueryRequest represents a query request.
type QueryRequest struct {
	Query string `json:"query" binding:"required"`

	// ChatHistory is accepted for client compatibility. Answers are
	// currently grounded on retrieved context only.
	ChatHistory []ChatTurn `json:"chat_history,omitempty"`
}

// ChatTurn is one prior exchange in a conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Query answers a question against the knowledge base.
func (h *RAGHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.ErrBadRequest.WithMessage(err.Error()))
		return
	}

	result, err := h.service.Query(c.Request.Context(), req.Query)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, result)
}

// Upload receives a document file, parses it and indexes its chunks.
func (h *RAGHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		fail(c, errors.ErrBadRequest.WithMessage("missing file field"))
		return
	}

	if !loader.IsSupported(filepath.Ext(file.Filename)) {
		fail(c, errors.ErrUnsupportedMedia.WithMessagef(
			"unsupported file type: %s", filepath.Ext(file.Filename)))
		return
	}

	// Spool to a temp file so the loader can parse it from disk.
	tmpDir, err := os.MkdirTemp("", "ragserve-upload-")
	if err != nil {
		fail(c, errors.ErrInternal.WithCause(err))
		return
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Warnw("failed to remove upload temp dir", "dir", tmpDir, "error", err.Error())
		}
	}()

	tmpPath := filepath.Join(tmpDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		fail(c, errors.ErrInternal.WithCause(err))
		return
	}

	loaded, err := loader.Load(tmpPath)
	if err != nil {
		fail(c, errors.ErrDocumentLoad.WithCause(err))
		return
	}

	// Use the uploaded file name, not the temp path, as the source.
	doc := &model.Document{
		Source:   filepath.Base(file.Filename),
		Text:     loaded.Text,
		Metadata: loaded.Metadata,
	}

	result, err := h.service.IndexDocument(c.Request.Context(), doc)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, result)
}

// IndexDirectoryRequest represents a directory index request.
type IndexDirectoryRequest struct {
	Directory string `json:"directory" binding:"required"`
}

// IndexDirectory indexes all supported documents from a local directory.
func (h *RAGHandler) IndexDirectory(c *gin.Context) {
	var req IndexDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.ErrBadRequest.WithMessage(err.Error()))
		return
	}

	results, err := h.service.IndexDirectory(c.Request.Context(), req.Directory)
	if err != nil {
		fail(c, errors.ErrIndexing.WithCause(err))
		return
	}

	ok(c, results)
}

// DeleteDocuments clears the knowledge base, or a single source when
// the "source" query parameter is present.
func (h *RAGHandler) DeleteDocuments(c *gin.Context) {
	if source := c.Query("source"); source != "" {
		if err := h.service.DeleteSource(c.Request.Context(), source); err != nil {
			fail(c, err)
			return
		}
		ok(c, gin.H{"deleted_source": source})
		return
	}

	if err := h.service.Reset(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}

	ok(c, gin.H{"reset": true})
}

// Recent returns the most recent query records, newest first.
func (h *RAGHandler) Recent(c *gin.Context) {
	limit := h.recentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			fail(c, errors.ErrInvalidParam.WithMessage("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	records, err := h.service.RecentRecords(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	if records == nil {
		records = []*model.QueryRecord{}
	}

	ok(c, records)
}

// Stats returns knowledge base statistics.
func (h *RAGHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, stats)
}

// Healthz is a liveness probe.
func (h *RAGHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
