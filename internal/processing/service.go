// Package processing populates spectrogram records from stored LFP traces and
// renders them into per-session plots.
package processing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/ephyspipe/internal/render"
	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/internal/spectral"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// PopulateSummary reports the outcome of populating a session
type PopulateSummary struct {
	Computed []models.SpectrogramKey `json:"computed"`
	Skipped  []models.SpectrogramKey `json:"skipped"`
	Failed   []models.SpectrogramKey `json:"failed"`
}

type SpectrogramService interface {
	PopulateSpectrogram(ctx context.Context, key models.SpectrogramKey) (*models.LFPSpectrogram, error)
	PopulateSession(ctx context.Context, sessionID string, paramIdx int) (*PopulateSummary, error)
	PendingKeys(ctx context.Context, limit int) ([]models.SpectrogramKey, error)
	RenderSessionPlot(ctx context.Context, key models.PlotKey) (*models.SpectrogramPlot, error)
	PendingPlots(ctx context.Context, exclude []models.SpectrogramKey) ([]models.PlotKey, error)
	CreateParameters(ctx context.Context, params *models.SpectrogramParameters) error
}

type spectrogramService struct {
	repository repository.SpectrogramRepository
	now        func() time.Time
}

func NewSpectrogramService(repo repository.SpectrogramRepository) SpectrogramService {
	return &spectrogramService{
		repository: repo,
		now:        time.Now,
	}
}

func (s *spectrogramService) PopulateSpectrogram(ctx context.Context, key models.SpectrogramKey) (*models.LFPSpectrogram, error) {
	// Step 1: Reject keys that already have a spectrogram
	exists, err := s.repository.SpectrogramExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("spectrogram %s: %w", key, repository.ErrDuplicateKey)
	}

	// Step 2: Gather inputs
	params, err := s.repository.GetParameters(ctx, key.ParamIdx)
	if err != nil {
		return nil, missing(err, "spectrogram parameters", fmt.Sprint(key.ParamIdx))
	}
	lfp, err := s.repository.GetLFP(ctx, key.SessionID)
	if err != nil {
		return nil, missing(err, "LFP", key.SessionID)
	}
	trace, err := s.repository.GetTrace(ctx, key.TraceKey)
	if err != nil {
		return nil, missing(err, "LFP trace", key.TraceKey.String())
	}
	bands, err := s.repository.ListBands(ctx)
	if err != nil {
		return nil, err
	}

	// Step 3: Compute
	res, err := spectral.Compute(trace.LFP, lfp.SamplingRate, spectral.Params{
		WindowSize:  params.WindowSize,
		OverlapSize: params.OverlapSize,
		Window:      params.WindowType,
	})
	if err != nil {
		return nil, err
	}

	rows, _ := res.Power.Dims()
	matrix := make([][]float64, rows)
	for i := range matrix {
		matrix[i] = append([]float64(nil), res.Power.RawRowView(i)...)
	}

	spec := &models.LFPSpectrogram{
		SpectrogramKey: key,
		CreatedAt:      s.now().UTC(),
		Channel: models.ChannelSpectrogram{
			SpectrogramKey: key,
			Spectrogram:    matrix,
			Time:           res.Time,
			Frequency:      res.Frequency,
		},
	}
	for _, band := range bands {
		series := spectral.BandPower(res, band.LowerFreq, band.UpperFreq)
		spec.Powers = append(spec.Powers, models.ChannelPower{
			SpectrogramKey: key,
			BandName:       band.BandName,
			LowerFreq:      band.LowerFreq,
			UpperFreq:      band.UpperFreq,
			Power:          series.Power,
			MeanPower:      series.Mean,
			StdPower:       series.Std,
		})
	}

	// Step 4: Store master, matrix and powers together
	if err := s.repository.StoreSpectrogram(ctx, spec); err != nil {
		return nil, err
	}

	log.Info().
		Str("key", key.String()).
		Int("freq_bins", len(res.Frequency)).
		Int("time_bins", len(res.Time)).
		Msg("Spectrogram populated")
	return spec, nil
}

func (s *spectrogramService) PopulateSession(ctx context.Context, sessionID string, paramIdx int) (*PopulateSummary, error) {
	if _, err := s.repository.GetLFP(ctx, sessionID); err != nil {
		return nil, missing(err, "LFP", sessionID)
	}
	traces, err := s.repository.ListTraceKeys(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &PopulateSummary{
		Computed: []models.SpectrogramKey{},
		Skipped:  []models.SpectrogramKey{},
		Failed:   []models.SpectrogramKey{},
	}
	for _, tk := range traces {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		key := models.SpectrogramKey{TraceKey: tk, ParamIdx: paramIdx}
		_, err := s.PopulateSpectrogram(ctx, key)
		switch {
		case err == nil:
			summary.Computed = append(summary.Computed, key)
		case errors.Is(err, repository.ErrDuplicateKey):
			summary.Skipped = append(summary.Skipped, key)
		default:
			log.Error().Err(err).Str("key", key.String()).Msg("Failed to populate spectrogram")
			summary.Failed = append(summary.Failed, key)
		}
	}
	return summary, nil
}

func (s *spectrogramService) PendingKeys(ctx context.Context, limit int) ([]models.SpectrogramKey, error) {
	return s.repository.PendingSpectrogramKeys(ctx, limit)
}

// PendingPlots lists groups whose plot is missing or stale. Traces listed in
// exclude are treated as settled, so a channel that cannot be computed does
// not hold back the rest of its session.
func (s *spectrogramService) PendingPlots(ctx context.Context, exclude []models.SpectrogramKey) ([]models.PlotKey, error) {
	return s.repository.PendingPlotKeys(ctx, exclude)
}

func (s *spectrogramService) CreateParameters(ctx context.Context, params *models.SpectrogramParameters) error {
	if params.WindowType == "" {
		params.WindowType = spectral.WindowBoxcar
	}
	err := spectral.CheckParams(spectral.Params{
		WindowSize:  params.WindowSize,
		OverlapSize: params.OverlapSize,
		Window:      params.WindowType,
	})
	if err != nil {
		return err
	}
	if err := s.repository.CreateParameters(ctx, params); err != nil {
		return err
	}

	log.Info().
		Int("param_idx", params.ParamIdx).
		Float64("window_size", params.WindowSize).
		Float64("overlap_size", params.OverlapSize).
		Str("window_type", params.WindowType).
		Msg("Spectrogram parameters created")
	return nil
}

// RenderSessionPlot renders the spectrograms currently stored for the group.
// The plot records its channel set, so rendering again after more channels
// are populated replaces it, while rendering the same set is a duplicate.
func (s *spectrogramService) RenderSessionPlot(ctx context.Context, key models.PlotKey) (*models.SpectrogramPlot, error) {
	started := s.now()

	channels, err := s.repository.ListChannelSpectrograms(ctx, key)
	if err != nil {
		return nil, err
	}

	fig, err := render.BuildFigure(channels)
	if err != nil {
		var empty *render.EmptyChannelSetError
		if errors.As(err, &empty) {
			return nil, &render.EmptyChannelSetError{Group: key.String()}
		}
		return nil, err
	}

	payload, err := fig.Encode()
	if err != nil {
		return nil, err
	}

	electrodes := make([]int, len(channels))
	for i, ch := range channels {
		electrodes[i] = ch.Electrode
	}
	slices.Sort(electrodes)

	finished := s.now()
	plot := &models.SpectrogramPlot{
		PlotKey:           key,
		ID:                uuid.New().String(),
		Electrodes:        electrodes,
		FreqMin:           render.FreqMin,
		FreqMax:           render.FreqMax,
		ExecutionDuration: finished.Sub(started).Hours(),
		Figure:            payload,
		CreatedAt:         finished.UTC(),
	}

	if err := s.repository.StorePlot(ctx, plot); err != nil {
		return nil, err
	}

	log.Info().
		Str("key", key.String()).
		Int("channels", len(channels)).
		Float64("duration_h", plot.ExecutionDuration).
		Msg("Spectrogram plot rendered")
	return plot, nil
}

// missing converts a not-found lookup into a MissingInputError
func missing(err error, input, key string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &MissingInputError{Input: input, Key: key}
	}
	return err
}
