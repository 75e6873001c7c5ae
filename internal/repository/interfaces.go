package repository

import (
	"context"
	"errors"

	"github.com/RMahshie/ephyspipe/pkg/models"
)

var (
	// ErrNotFound is returned when a keyed record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a record already exists for a key
	ErrDuplicateKey = errors.New("record already exists for key")
)

// LookupRepository reads the static parameter and band tables
type LookupRepository interface {
	ListBands(ctx context.Context) ([]models.SpectralBand, error)
	ListParameters(ctx context.Context) ([]models.SpectrogramParameters, error)
	GetParameters(ctx context.Context, paramIdx int) (*models.SpectrogramParameters, error)
	CreateParameters(ctx context.Context, params *models.SpectrogramParameters) error
}

// TraceRepository stores the LFP input data
type TraceRepository interface {
	CreateLFP(ctx context.Context, lfp *models.LFP, traces []models.LFPTrace) error
	GetLFP(ctx context.Context, sessionID string) (*models.LFP, error)
	GetTrace(ctx context.Context, key models.TraceKey) (*models.LFPTrace, error)
	ListTraceKeys(ctx context.Context, sessionID string) ([]models.TraceKey, error)
	DeleteTrace(ctx context.Context, key models.TraceKey) error
}

// SpectrogramRepository defines the interface for spectrogram data operations
type SpectrogramRepository interface {
	LookupRepository
	TraceRepository

	SpectrogramExists(ctx context.Context, key models.SpectrogramKey) (bool, error)
	StoreSpectrogram(ctx context.Context, spec *models.LFPSpectrogram) error
	GetChannelSpectrogram(ctx context.Context, key models.SpectrogramKey) (*models.ChannelSpectrogram, error)
	ListChannelSpectrograms(ctx context.Context, key models.PlotKey) ([]models.ChannelSpectrogram, error)
	GetChannelPowers(ctx context.Context, key models.SpectrogramKey) ([]models.ChannelPower, error)
	PendingSpectrogramKeys(ctx context.Context, limit int) ([]models.SpectrogramKey, error)

	StorePlot(ctx context.Context, plot *models.SpectrogramPlot) error
	GetPlot(ctx context.Context, key models.PlotKey) (*models.SpectrogramPlot, error)
	// PendingPlotKeys lists groups without a current plot whose traces all
	// have spectrograms, not counting the keys in exclude
	PendingPlotKeys(ctx context.Context, exclude []models.SpectrogramKey) ([]models.PlotKey, error)
}

// IngestionRepository defines the interface for probe and raw file registration
type IngestionRepository interface {
	CreateProbeType(ctx context.Context, probeType *models.ProbeType) error
	CreateProbe(ctx context.Context, probe *models.Probe) error
	CreateElectrodeConfig(ctx context.Context, cfg *models.ElectrodeConfig) error
	CreateRawFile(ctx context.Context, file *models.EphysRawFile) error
	GetRawFile(ctx context.Context, filePath string) (*models.EphysRawFile, error)
	CreateFileProcessing(ctx context.Context, entry *models.FileProcessing) error
	FileProcessed(ctx context.Context, remotePath string) (bool, error)
}
