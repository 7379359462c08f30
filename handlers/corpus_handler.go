package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"legid-backend/models"
	"legid-backend/storage"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// DefaultMaxCorpusFileSize bounds one uploaded corpus document
const DefaultMaxCorpusFileSize = 10 * 1024 * 1024 // 10MB

// CorpusHandler handles uploads and downloads of the raw documents that
// build-embeddings ingests into the knowledge base
type CorpusHandler struct {
	storage          storage.Storage
	prefix           string
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewCorpusHandler creates a new corpus handler storing documents under prefix
func NewCorpusHandler(store storage.Storage, prefix string, maxFileSize int64) *CorpusHandler {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxCorpusFileSize
	}
	return &CorpusHandler{
		storage:     store,
		prefix:      prefix,
		maxFileSize: maxFileSize,
		allowedMimeTypes: map[string]bool{
			"text/plain":    true,
			"text/markdown": true,
		},
	}
}

// UploadDocument handles POST /api/corpus
func (h *CorpusHandler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	// Validate file size
	if fileHeader.Size > h.maxFileSize {
		errorResponse(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
		return
	}

	filename := path.Base(strings.ReplaceAll(fileHeader.Filename, "\\", "/"))
	if !models.IsCorpusDocument(filename) {
		errorResponse(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "File type not allowed. Allowed types: TXT, MD")
		return
	}

	// Validate MIME type
	mimeType := fileHeader.Header.Get("Content-Type")
	if base, _, _ := strings.Cut(mimeType, ";"); mimeType != "" &&
		!h.allowedMimeTypes[strings.TrimSpace(base)] && base != "application/octet-stream" {
		errorResponse(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "File type not allowed. Allowed types: TXT, MD")
		return
	}

	meta := models.DocumentMeta{
		Title:        strings.TrimSpace(c.PostForm("title")),
		SourceType:   strings.TrimSpace(c.PostForm("source_type")),
		SourceURL:    strings.TrimSpace(c.PostForm("source_url")),
		Jurisdiction: strings.TrimSpace(c.PostForm("jurisdiction")),
		Authority:    strings.TrimSpace(c.PostForm("authority")),
	}

	key := h.prefix + filename
	if meta.Jurisdiction != "" {
		key = h.prefix + strings.ToLower(meta.Jurisdiction) + "/" + filename
	}

	file, err := fileHeader.Open()
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	if err := h.storage.Put(ctx, key, file); err != nil {
		status, code := http.StatusInternalServerError, "UPLOAD_FAILED"
		if errors.Is(err, storage.ErrInvalidKey) {
			status, code = http.StatusBadRequest, "INVALID_FILENAME"
		}
		errorResponse(c, status, code, fmt.Sprintf("Failed to upload file: %v", err))
		return
	}

	if !meta.IsZero() {
		data, err := yaml.Marshal(meta)
		if err == nil {
			err = h.storage.Put(ctx, models.DocumentMetaKey(key), bytes.NewReader(data))
		}
		if err != nil {
			// Try to clean up uploaded file
			if delErr := h.storage.Delete(ctx, key); delErr != nil {
				slog.Warn("failed to remove document after metadata error", "key", key, "error", delErr)
			}
			errorResponse(c, http.StatusInternalServerError, "UPLOAD_FAILED",
				fmt.Sprintf("Failed to save document metadata: %v", err))
			return
		}
	}

	slog.Info("corpus document uploaded", "key", key, "size", fileHeader.Size)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"key":      key,
			"filename": filename,
			"size":     fileHeader.Size,
			"metadata": meta,
		},
	})
}

// ListDocuments handles GET /api/corpus
func (h *CorpusHandler) ListDocuments(c *gin.Context) {
	keys, err := h.storage.List(c.Request.Context(), h.prefix)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}

	docs := make([]string, 0, len(keys))
	for _, k := range keys {
		if models.IsCorpusDocument(k) {
			docs = append(docs, k)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"documents": docs},
	})
}

// GetDocument handles GET /api/corpus/files/*key, where key is relative to the
// corpus prefix
func (h *CorpusHandler) GetDocument(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("key"), "/")
	if !models.IsCorpusDocument(rel) {
		errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		return
	}

	reader, err := h.storage.Get(c.Request.Context(), h.prefix+rel)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		case errors.Is(err, storage.ErrInvalidKey):
			errorResponse(c, http.StatusBadRequest, "INVALID_KEY", err.Error())
		default:
			errorResponse(c, http.StatusInternalServerError, "DOWNLOAD_FAILED",
				fmt.Sprintf("Failed to download file: %v", err))
		}
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(rel)))
	c.DataFromReader(http.StatusOK, -1, "text/plain; charset=utf-8", reader, nil)
}

// errorResponse writes the failure envelope
func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
