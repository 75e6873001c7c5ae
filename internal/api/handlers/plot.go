package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/ephyspipe/internal/processing"
	"github.com/RMahshie/ephyspipe/internal/render"
	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// GetPlotResponseBody is a stored plot together with its decoded figure
type GetPlotResponseBody struct {
	Plot   *models.SpectrogramPlot `json:"plot" doc:"Plot metadata"`
	Figure *render.Figure          `json:"figure" doc:"Traces, toggle buttons and layout"`
}

// GetPlotResponse returns a rendered plot
type GetPlotResponse struct {
	Body GetPlotResponseBody
}

// PlotHandler handles rendering and retrieval of session plots
type PlotHandler struct {
	repo repository.SpectrogramRepository
	svc  processing.SpectrogramService
}

// NewPlotHandler creates a new plot handler
func NewPlotHandler(repo repository.SpectrogramRepository, svc processing.SpectrogramService) *PlotHandler {
	return &PlotHandler{repo: repo, svc: svc}
}

func plotKey(req *models.SessionParamRequest) models.PlotKey {
	return models.PlotKey{SessionID: req.SessionID, ParamIdx: req.ParamIdx}
}

// RenderPlot renders the plot of a session
func (h *PlotHandler) RenderPlot(ctx context.Context, req *models.SessionParamRequest) (*models.PlotResponse, error) {
	plot, err := h.svc.RenderSessionPlot(ctx, plotKey(req))
	if err != nil {
		return nil, httpError("Failed to render plot", err)
	}
	return &models.PlotResponse{Body: plot}, nil
}

// GetPlot returns a stored plot with its figure
func (h *PlotHandler) GetPlot(ctx context.Context, req *models.SessionParamRequest) (*GetPlotResponse, error) {
	plot, err := h.repo.GetPlot(ctx, plotKey(req))
	if err != nil {
		return nil, httpError("Plot not found", err)
	}
	fig, err := render.DecodeFigure(plot.Figure)
	if err != nil {
		return nil, httpError("Stored figure is unreadable", err)
	}
	return &GetPlotResponse{Body: GetPlotResponseBody{Plot: plot, Figure: fig}}, nil
}

// PlotHTML serves a stored plot as an interactive page
func (h *PlotHandler) PlotHTML(w http.ResponseWriter, r *http.Request) {
	paramIdx, err := queryInt(r, "param_idx")
	if err != nil {
		http.Error(w, "invalid param_idx", http.StatusBadRequest)
		return
	}
	key := models.PlotKey{SessionID: chi.URLParam(r, "session_id"), ParamIdx: paramIdx}

	plot, err := h.repo.GetPlot(r.Context(), key)
	if err != nil {
		writeError(w, "Plot not found", err)
		return
	}
	fig, err := render.DecodeFigure(plot.Figure)
	if err != nil {
		writeError(w, "Stored figure is unreadable", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WriteHTML(fig, key.SessionID, w); err != nil {
		log.Error().Err(err).Str("key", key.String()).Msg("Failed to write plot page")
	}
}
