package processing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/RMahshie/ephyspipe/pkg/models"
)

// MockSpectrogramRepository implements repository.SpectrogramRepository for testing
type MockSpectrogramRepository struct {
	mock.Mock
}

func (m *MockSpectrogramRepository) ListBands(ctx context.Context) ([]models.SpectralBand, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.SpectralBand), args.Error(1)
}

func (m *MockSpectrogramRepository) ListParameters(ctx context.Context) ([]models.SpectrogramParameters, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.SpectrogramParameters), args.Error(1)
}

func (m *MockSpectrogramRepository) GetParameters(ctx context.Context, paramIdx int) (*models.SpectrogramParameters, error) {
	args := m.Called(ctx, paramIdx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SpectrogramParameters), args.Error(1)
}

func (m *MockSpectrogramRepository) CreateLFP(ctx context.Context, lfp *models.LFP, traces []models.LFPTrace) error {
	args := m.Called(ctx, lfp, traces)
	return args.Error(0)
}

func (m *MockSpectrogramRepository) GetLFP(ctx context.Context, sessionID string) (*models.LFP, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LFP), args.Error(1)
}

func (m *MockSpectrogramRepository) GetTrace(ctx context.Context, key models.TraceKey) (*models.LFPTrace, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LFPTrace), args.Error(1)
}

func (m *MockSpectrogramRepository) ListTraceKeys(ctx context.Context, sessionID string) ([]models.TraceKey, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]models.TraceKey), args.Error(1)
}

func (m *MockSpectrogramRepository) DeleteTrace(ctx context.Context, key models.TraceKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockSpectrogramRepository) SpectrogramExists(ctx context.Context, key models.SpectrogramKey) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockSpectrogramRepository) StoreSpectrogram(ctx context.Context, spec *models.LFPSpectrogram) error {
	args := m.Called(ctx, spec)
	return args.Error(0)
}

func (m *MockSpectrogramRepository) GetChannelSpectrogram(ctx context.Context, key models.SpectrogramKey) (*models.ChannelSpectrogram, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChannelSpectrogram), args.Error(1)
}

func (m *MockSpectrogramRepository) ListChannelSpectrograms(ctx context.Context, key models.PlotKey) ([]models.ChannelSpectrogram, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]models.ChannelSpectrogram), args.Error(1)
}

func (m *MockSpectrogramRepository) GetChannelPowers(ctx context.Context, key models.SpectrogramKey) ([]models.ChannelPower, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]models.ChannelPower), args.Error(1)
}

func (m *MockSpectrogramRepository) PendingSpectrogramKeys(ctx context.Context, limit int) ([]models.SpectrogramKey, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.SpectrogramKey), args.Error(1)
}

func (m *MockSpectrogramRepository) StorePlot(ctx context.Context, plot *models.SpectrogramPlot) error {
	args := m.Called(ctx, plot)
	return args.Error(0)
}

func (m *MockSpectrogramRepository) GetPlot(ctx context.Context, key models.PlotKey) (*models.SpectrogramPlot, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SpectrogramPlot), args.Error(1)
}

func (m *MockSpectrogramRepository) PendingPlotKeys(ctx context.Context, exclude []models.SpectrogramKey) ([]models.PlotKey, error) {
	args := m.Called(ctx, exclude)
	return args.Get(0).([]models.PlotKey), args.Error(1)
}

func (m *MockSpectrogramRepository) CreateParameters(ctx context.Context, params *models.SpectrogramParameters) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
