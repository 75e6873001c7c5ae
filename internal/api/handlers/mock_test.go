package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/RMahshie/ephyspipe/internal/processing"
	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/internal/storage"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// MockSpectrogramRepository implements repository.SpectrogramRepository for testing.
// Only the methods the handlers call are stubbed; the rest come from the
// embedded interface and panic if reached.
type MockSpectrogramRepository struct {
	mock.Mock
	repository.SpectrogramRepository
}

func (m *MockSpectrogramRepository) ListBands(ctx context.Context) ([]models.SpectralBand, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.SpectralBand), args.Error(1)
}

func (m *MockSpectrogramRepository) ListParameters(ctx context.Context) ([]models.SpectrogramParameters, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.SpectrogramParameters), args.Error(1)
}

func (m *MockSpectrogramRepository) CreateLFP(ctx context.Context, lfp *models.LFP, traces []models.LFPTrace) error {
	args := m.Called(ctx, lfp, traces)
	return args.Error(0)
}

func (m *MockSpectrogramRepository) DeleteTrace(ctx context.Context, key models.TraceKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockSpectrogramRepository) GetChannelSpectrogram(ctx context.Context, key models.SpectrogramKey) (*models.ChannelSpectrogram, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChannelSpectrogram), args.Error(1)
}

func (m *MockSpectrogramRepository) GetChannelPowers(ctx context.Context, key models.SpectrogramKey) ([]models.ChannelPower, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChannelPower), args.Error(1)
}

func (m *MockSpectrogramRepository) GetPlot(ctx context.Context, key models.PlotKey) (*models.SpectrogramPlot, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SpectrogramPlot), args.Error(1)
}

// MockSpectrogramService implements processing.SpectrogramService for testing
type MockSpectrogramService struct {
	mock.Mock
}

func (m *MockSpectrogramService) PopulateSpectrogram(ctx context.Context, key models.SpectrogramKey) (*models.LFPSpectrogram, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LFPSpectrogram), args.Error(1)
}

func (m *MockSpectrogramService) PopulateSession(ctx context.Context, sessionID string, paramIdx int) (*processing.PopulateSummary, error) {
	args := m.Called(ctx, sessionID, paramIdx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processing.PopulateSummary), args.Error(1)
}

func (m *MockSpectrogramService) PendingKeys(ctx context.Context, limit int) ([]models.SpectrogramKey, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.SpectrogramKey), args.Error(1)
}

func (m *MockSpectrogramService) RenderSessionPlot(ctx context.Context, key models.PlotKey) (*models.SpectrogramPlot, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SpectrogramPlot), args.Error(1)
}

func (m *MockSpectrogramService) PendingPlots(ctx context.Context, exclude []models.SpectrogramKey) ([]models.PlotKey, error) {
	args := m.Called(ctx, exclude)
	return args.Get(0).([]models.PlotKey), args.Error(1)
}

func (m *MockSpectrogramService) CreateParameters(ctx context.Context, params *models.SpectrogramParameters) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// MockIngestionService implements ingestion.IngestionService for testing
type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) IngestProbes(ctx context.Context, probeFile string) (int, error) {
	args := m.Called(ctx, probeFile)
	return args.Int(0), args.Error(1)
}

func (m *MockIngestionService) ProcessFile(ctx context.Context, remotePath string) (*models.FileProcessing, error) {
	args := m.Called(ctx, remotePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FileProcessing), args.Error(1)
}

func (m *MockIngestionService) ScanInbox(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockRawFileRepository provides the raw file lookup of
// repository.IngestionRepository
type MockRawFileRepository struct {
	mock.Mock
	repository.IngestionRepository
}

func (m *MockRawFileRepository) GetRawFile(ctx context.Context, filePath string) (*models.EphysRawFile, error) {
	args := m.Called(ctx, filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EphysRawFile), args.Error(1)
}

// MockS3Service provides the pre-signing part of storage.S3Service
type MockS3Service struct {
	mock.Mock
	storage.S3Service
}

func (m *MockS3Service) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockS3Service) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
