package handlers

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/ephyspipe/internal/storage"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// UploadHandler hands out pre-signed URLs into the project inbox
type UploadHandler struct {
	s3Service   storage.S3Service
	inboxPrefix string
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(s3Service storage.S3Service, inboxPrefix string) *UploadHandler {
	return &UploadHandler{s3Service: s3Service, inboxPrefix: inboxPrefix}
}

// CreateUpload returns an upload URL for a file below the inbox
func (h *UploadHandler) CreateUpload(ctx context.Context, req *models.CreateUploadRequest) (*models.CreateUploadResponse, error) {
	rel := path.Clean("/" + req.Body.Path)[1:]
	if rel == "" || strings.Contains(req.Body.Path, "..") {
		return nil, huma.Error400BadRequest("Invalid upload path")
	}
	key := h.inboxPrefix + rel

	contentType := req.Body.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForKey(key)
	}

	uploadURL, err := h.s3Service.GenerateUploadURL(ctx, key, contentType)
	if err != nil {
		return nil, huma.Error400BadRequest("Failed to prepare upload", err)
	}
	log.Info().Str("key", key).Str("content_type", contentType).Msg("Upload URL generated")

	resp := &models.CreateUploadResponse{}
	resp.Body.Key = key
	resp.Body.UploadURL = uploadURL
	resp.Body.ExpiresIn = int((15 * time.Minute).Seconds())
	return resp, nil
}
