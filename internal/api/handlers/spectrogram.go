package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/ephyspipe/internal/processing"
	"github.com/RMahshie/ephyspipe/internal/render"
	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// SpectrogramHandler handles LFP, spectrogram and band power requests
type SpectrogramHandler struct {
	repo repository.SpectrogramRepository
	svc  processing.SpectrogramService
}

// NewSpectrogramHandler creates a new spectrogram handler
func NewSpectrogramHandler(repo repository.SpectrogramRepository, svc processing.SpectrogramService) *SpectrogramHandler {
	return &SpectrogramHandler{repo: repo, svc: svc}
}

// ListBands returns the canonical spectral bands
func (h *SpectrogramHandler) ListBands(ctx context.Context, _ *struct{}) (*models.ListBandsResponse, error) {
	bands, err := h.repo.ListBands(ctx)
	if err != nil {
		return nil, httpError("Failed to list bands", err)
	}
	resp := &models.ListBandsResponse{}
	resp.Body.Bands = bands
	return resp, nil
}

// ListParameters returns the spectrogram parameter sets
func (h *SpectrogramHandler) ListParameters(ctx context.Context, _ *struct{}) (*models.ListParametersResponse, error) {
	params, err := h.repo.ListParameters(ctx)
	if err != nil {
		return nil, httpError("Failed to list spectrogram parameters", err)
	}
	resp := &models.ListParametersResponse{}
	resp.Body.Parameters = params
	return resp, nil
}

// CreateParameters adds a spectrogram parameter set
func (h *SpectrogramHandler) CreateParameters(ctx context.Context, req *models.CreateParametersRequest) (*models.CreateParametersResponse, error) {
	params := &models.SpectrogramParameters{
		ParamIdx:    req.Body.ParamIdx,
		WindowSize:  req.Body.WindowSize,
		OverlapSize: req.Body.OverlapSize,
		WindowType:  req.Body.WindowType,
		Description: req.Body.Description,
	}
	if err := h.svc.CreateParameters(ctx, params); err != nil {
		return nil, httpError("Failed to create spectrogram parameters", err)
	}
	return &models.CreateParametersResponse{Body: params}, nil
}

// CreateLFP stores the sampling rate and traces of a session
func (h *SpectrogramHandler) CreateLFP(ctx context.Context, req *models.CreateLFPRequest) (*models.CreateLFPResponse, error) {
	log.Info().Str("session_id", req.SessionID).Int("traces", len(req.Body.Traces)).Msg("Storing LFP")

	seen := make(map[int]bool, len(req.Body.Traces))
	traces := make([]models.LFPTrace, 0, len(req.Body.Traces))
	for _, tr := range req.Body.Traces {
		if seen[tr.Electrode] {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("electrode %d appears more than once", tr.Electrode))
		}
		seen[tr.Electrode] = true
		traces = append(traces, models.LFPTrace{
			TraceKey: models.TraceKey{SessionID: req.SessionID, Electrode: tr.Electrode},
			LFP:      tr.LFP,
		})
	}

	lfp := &models.LFP{
		SessionID:    req.SessionID,
		SamplingRate: req.Body.SamplingRate,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.repo.CreateLFP(ctx, lfp, traces); err != nil {
		return nil, httpError("Failed to store LFP", err)
	}

	return &models.CreateLFPResponse{
		Body: models.CreateLFPResponseBody{SessionID: req.SessionID, Electrodes: len(traces)},
	}, nil
}

// PopulateSession computes the missing spectrograms of a session
func (h *SpectrogramHandler) PopulateSession(ctx context.Context, req *models.SessionParamRequest) (*models.PopulateSessionResponse, error) {
	summary, err := h.svc.PopulateSession(ctx, req.SessionID, req.ParamIdx)
	if err != nil {
		return nil, httpError("Failed to populate session", err)
	}

	log.Info().
		Str("session_id", req.SessionID).
		Int("param_idx", req.ParamIdx).
		Int("computed", len(summary.Computed)).
		Int("skipped", len(summary.Skipped)).
		Int("failed", len(summary.Failed)).
		Msg("Session populated")

	return &models.PopulateSessionResponse{
		Body: models.PopulateSessionResponseBody{
			Computed: summary.Computed,
			Skipped:  summary.Skipped,
			Failed:   summary.Failed,
		},
	}, nil
}

// DeleteTrace removes the trace of one electrode together with everything
// computed from it. Session plots containing it are re-rendered by the worker.
func (h *SpectrogramHandler) DeleteTrace(ctx context.Context, req *models.TraceRequest) (*struct{}, error) {
	key := models.TraceKey{SessionID: req.SessionID, Electrode: req.Electrode}
	if err := h.repo.DeleteTrace(ctx, key); err != nil {
		return nil, httpError("Failed to delete trace", err)
	}
	log.Info().Str("session_id", req.SessionID).Int("electrode", req.Electrode).Msg("Trace deleted")
	return &struct{}{}, nil
}

func channelKey(req *models.ChannelRequest) models.SpectrogramKey {
	return models.SpectrogramKey{
		TraceKey: models.TraceKey{SessionID: req.SessionID, Electrode: req.Electrode},
		ParamIdx: req.ParamIdx,
	}
}

// GetSpectrogram returns the spectrogram of one electrode
func (h *SpectrogramHandler) GetSpectrogram(ctx context.Context, req *models.ChannelRequest) (*models.GetSpectrogramResponse, error) {
	ch, err := h.repo.GetChannelSpectrogram(ctx, channelKey(req))
	if err != nil {
		return nil, httpError("Spectrogram not found", err)
	}
	return &models.GetSpectrogramResponse{Body: ch}, nil
}

// GetPowers returns the band powers of one electrode
func (h *SpectrogramHandler) GetPowers(ctx context.Context, req *models.ChannelRequest) (*models.GetPowersResponse, error) {
	powers, err := h.repo.GetChannelPowers(ctx, channelKey(req))
	if err != nil {
		return nil, httpError("Band powers not found", err)
	}
	resp := &models.GetPowersResponse{}
	resp.Body.Powers = powers
	return resp, nil
}

// PowersPNG draws the band powers of one electrode
func (h *SpectrogramHandler) PowersPNG(w http.ResponseWriter, r *http.Request) {
	electrode, err := strconv.Atoi(chi.URLParam(r, "electrode"))
	if err != nil {
		http.Error(w, "invalid electrode", http.StatusBadRequest)
		return
	}
	paramIdx, err := queryInt(r, "param_idx")
	if err != nil {
		http.Error(w, "invalid param_idx", http.StatusBadRequest)
		return
	}
	key := models.SpectrogramKey{
		TraceKey: models.TraceKey{SessionID: chi.URLParam(r, "session_id"), Electrode: electrode},
		ParamIdx: paramIdx,
	}

	ch, err := h.repo.GetChannelSpectrogram(r.Context(), key)
	if err != nil {
		writeError(w, "Spectrogram not found", err)
		return
	}
	powers, err := h.repo.GetChannelPowers(r.Context(), key)
	if err != nil {
		writeError(w, "Band powers not found", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := render.WriteBandPowerPNG(fmt.Sprintf("%s %s", key.SessionID, render.ElectrodeLabel(electrode)), ch.Time, powers, w); err != nil {
		log.Error().Err(err).Str("key", key.String()).Msg("Failed to render band powers")
	}
}

// queryInt reads an optional integer query parameter, defaulting to 0
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err == nil && n < 0 {
		err = fmt.Errorf("%s must not be negative", name)
	}
	return n, err
}
