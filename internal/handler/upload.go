package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dropngo/internal/service"
)

// UploadHandler accepts image uploads.
type UploadHandler struct {
	uploadService *service.UploadService
	maxSize       int64
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploadService *service.UploadService, maxSize int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxSize: maxSize}
}

// UploadResponse is the HTTP response for an upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /v1/uploads (multipart field "file", optional "folder")
func (h *UploadHandler) Upload(c *gin.Context) {
	// Leave room for multipart headers on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, service.ErrFileTooLarge)
			return
		}
		badRequest(c, "file is required")
		return
	}
	if fh.Size > h.maxSize {
		respondError(c, service.ErrFileTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	url, err := h.uploadService.Upload(c.Request.Context(), service.UploadRequest{
		Filename: fh.Filename,
		Folder:   c.PostForm("folder"),
		Body:     f,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, UploadResponse{URL: url})
}
