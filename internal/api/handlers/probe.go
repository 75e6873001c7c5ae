package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/ephyspipe/internal/ingestion"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// ProbeHandler registers probes from probe.yaml in the root data directory
type ProbeHandler struct {
	ingest      ingestion.IngestionService
	rootDataDir string
}

// NewProbeHandler creates a new probe handler
func NewProbeHandler(ingest ingestion.IngestionService, rootDataDir string) *ProbeHandler {
	return &ProbeHandler{ingest: ingest, rootDataDir: rootDataDir}
}

// IngestProbes reads probe.yaml and stores its probes
func (h *ProbeHandler) IngestProbes(ctx context.Context, _ *struct{}) (*models.IngestProbesResponse, error) {
	if h.rootDataDir == "" {
		return nil, huma.Error503ServiceUnavailable("EPHYS_ROOT_DATA_DIR is not configured")
	}

	n, err := h.ingest.IngestProbes(ctx, filepath.Join(h.rootDataDir, "probe.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, huma.Error404NotFound("probe.yaml not found in the root data directory", err)
	}
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("Failed to ingest probes", err)
	}

	resp := &models.IngestProbesResponse{}
	resp.Body.Configs = n
	return resp, nil
}
