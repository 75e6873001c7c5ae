package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/internal/storage"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// downloadURLExpiry matches the lifetime the S3 service signs downloads for
const downloadURLExpiry = 24 * time.Hour

// RawFileHandler serves registered raw recordings
type RawFileHandler struct {
	repo      repository.IngestionRepository
	s3Service storage.S3Service
}

// NewRawFileHandler creates a new raw file handler
func NewRawFileHandler(repo repository.IngestionRepository, s3Service storage.S3Service) *RawFileHandler {
	return &RawFileHandler{repo: repo, s3Service: s3Service}
}

// GetRawFile returns a registered raw file and a download URL for it.
// Objects that were never registered are not signed.
func (h *RawFileHandler) GetRawFile(ctx context.Context, req *models.RawFileRequest) (*models.RawFileResponse, error) {
	file, err := h.repo.GetRawFile(ctx, req.Path)
	if err != nil {
		return nil, httpError("Raw file not found", err)
	}

	url, err := h.s3Service.GenerateDownloadURL(ctx, file.FilePath)
	if err != nil {
		return nil, httpError("Failed to prepare download", err)
	}
	log.Debug().Str("key", file.FilePath).Msg("Download URL generated")

	resp := &models.RawFileResponse{}
	resp.Body.File = file
	resp.Body.DownloadURL = url
	resp.Body.ExpiresIn = int(downloadURLExpiry.Seconds())
	return resp, nil
}
