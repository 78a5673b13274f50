package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"dropngo/internal/logger"
	"dropngo/internal/storage"
)

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Upload folders.
const (
	FolderLuggage   = "luggage"
	FolderDocuments = "documents"
	FolderGeneral   = "general"
)

var uploadFolders = map[string]bool{
	FolderLuggage:   true,
	FolderDocuments: true,
	FolderGeneral:   true,
}

// UploadService validates images and hands them to a storage backend.
type UploadService struct {
	store   storage.Store
	maxSize int64
	log     logger.ILogger
}

// NewUploadService creates a new UploadService.
func NewUploadService(store storage.Store, maxSize int64, log logger.ILogger) *UploadService {
	return &UploadService{store: store, maxSize: maxSize, log: log}
}

// UploadRequest is one image upload.
type UploadRequest struct {
	Filename string
	Folder   string
	Body     io.Reader
}

// Upload stores a png, jpg, jpeg or webp image no larger than the configured
// limit and returns its URL.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (string, error) {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !allowedImageExts[ext] {
		return "", ErrUnsupportedFileType
	}

	folder := req.Folder
	if folder == "" {
		folder = FolderGeneral
	}
	if !uploadFolders[folder] {
		return "", fmt.Errorf("%w: folder", ErrMissingField)
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrFileTooLarge
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file", ErrMissingField)
	}

	url, err := s.store.Save(ctx, storage.Object{
		Name:   uuid.New().String(),
		Ext:    ext,
		Folder: folder,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	s.log.Debug("image uploaded",
		logger.String("folder", folder),
		logger.Int("bytes", len(data)),
	)
	return url, nil
}
