package sqlstore_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/ephyspipe/internal/config"
	"github.com/RMahshie/ephyspipe/internal/database"
	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/internal/repository/sqlstore"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

const session = "O09_20240301"

func openSQLite(t *testing.T) (*sql.DB, *sqlstore.Store) {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: sqlstore.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "ephys.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, sqlstore.New(db, sqlstore.DriverSQLite)
}

func createSession(t *testing.T, store *sqlstore.Store, electrodes ...int) {
	t.Helper()
	traces := make([]models.LFPTrace, len(electrodes))
	for i, e := range electrodes {
		traces[i] = models.LFPTrace{
			TraceKey: models.TraceKey{SessionID: session, Electrode: e},
			LFP:      []float64{float64(e), 0.5, -0.25, 1e-9},
		}
	}
	lfp := &models.LFP{SessionID: session, SamplingRate: 2500, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, store.CreateLFP(context.Background(), lfp, traces))
}

func spectrogramFor(electrode int) *models.LFPSpectrogram {
	key := models.SpectrogramKey{TraceKey: models.TraceKey{SessionID: session, Electrode: electrode}}
	return &models.LFPSpectrogram{
		SpectrogramKey: key,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
		Channel: models.ChannelSpectrogram{
			SpectrogramKey: key,
			Spectrogram:    [][]float64{{1, 2}, {3, 4}, {5, 6}},
			Time:           []float64{0.25, 0.75},
			Frequency:      []float64{0, 2, 4},
		},
		Powers: []models.ChannelPower{
			{SpectrogramKey: key, BandName: "delta", LowerFreq: 2, UpperFreq: 4, Power: []float64{3, 4}, MeanPower: 3.5, StdPower: 0.7071067811865476},
			{SpectrogramKey: key, BandName: "theta", LowerFreq: 4, UpperFreq: 7, Power: []float64{5, 6}, MeanPower: 5.5, StdPower: 0.7071067811865476},
		},
	}
}

func TestLookupTables(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()

	bands, err := store.ListBands(ctx)
	require.NoError(t, err)
	require.Len(t, bands, 7)
	assert.Equal(t, "delta", bands[0].BandName)
	assert.Equal(t, "highgamma2", bands[6].BandName)

	params, err := store.ListParameters(ctx)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, 0.5, params[0].WindowSize)
	assert.Equal(t, "boxcar", params[0].WindowType)

	_, err = store.GetParameters(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateLFP(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()
	createSession(t, store, 5, 1)

	lfp, err := store.GetLFP(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, lfp.SamplingRate)

	keys, err := store.ListTraceKeys(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, []models.TraceKey{{SessionID: session, Electrode: 1}, {SessionID: session, Electrode: 5}}, keys)

	trace, err := store.GetTrace(ctx, models.TraceKey{SessionID: session, Electrode: 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 0.5, -0.25, 1e-9}, trace.LFP)

	err = store.CreateLFP(ctx, &models.LFP{SessionID: session, SamplingRate: 1000, CreatedAt: time.Now()}, nil)
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	lfp, err = store.GetLFP(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, lfp.SamplingRate)

	_, err = store.GetLFP(ctx, "unknown")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.GetTrace(ctx, models.TraceKey{SessionID: session, Electrode: 9})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStoreSpectrogram_RoundTrip(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()
	createSession(t, store, 1)

	want := spectrogramFor(1)
	require.NoError(t, store.StoreSpectrogram(ctx, want))

	exists, err := store.SpectrogramExists(ctx, want.SpectrogramKey)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := store.GetChannelSpectrogram(ctx, want.SpectrogramKey)
	require.NoError(t, err)
	if diff := cmp.Diff(want.Channel, *got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("channel spectrogram mismatch (-want +got):\n%s", diff)
	}

	powers, err := store.GetChannelPowers(ctx, want.SpectrogramKey)
	require.NoError(t, err)
	if diff := cmp.Diff(want.Powers, powers, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("powers mismatch (-want +got):\n%s", diff)
	}

	channels, err := store.ListChannelSpectrograms(ctx, models.PlotKey{SessionID: session})
	require.NoError(t, err)
	assert.Len(t, channels, 1)
}

func TestStoreSpectrogram_Duplicate(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()
	createSession(t, store, 1)

	first := spectrogramFor(1)
	require.NoError(t, store.StoreSpectrogram(ctx, first))

	second := spectrogramFor(1)
	second.Channel.Spectrogram = [][]float64{{9, 9}, {9, 9}, {9, 9}}
	err := store.StoreSpectrogram(ctx, second)
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	got, err := store.GetChannelSpectrogram(ctx, first.SpectrogramKey)
	require.NoError(t, err)
	assert.Equal(t, first.Channel.Spectrogram, got.Spectrogram)
}

func TestStoreSpectrogram_FailureLeavesNoRows(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()
	createSession(t, store, 1)

	spec := spectrogramFor(1)
	spec.Powers[1].BandName = "not-a-band"
	err := store.StoreSpectrogram(ctx, spec)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDuplicateKey)

	exists, err := store.SpectrogramExists(ctx, spec.SpectrogramKey)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.GetChannelSpectrogram(ctx, spec.SpectrogramKey)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.GetChannelPowers(ctx, spec.SpectrogramKey)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPendingKeys(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()
	createSession(t, store, 1, 2)

	pending, err := store.PendingSpectrogramKeys(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 1, pending[0].Electrode)
	assert.Equal(t, 2, pending[1].Electrode)

	limited, err := store.PendingSpectrogramKeys(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	plots, err := store.PendingPlotKeys(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, plots)

	require.NoError(t, store.StoreSpectrogram(ctx, spectrogramFor(1)))

	pending, err = store.PendingSpectrogramKeys(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Electrode)

	// half of the group is still missing
	plots, err = store.PendingPlotKeys(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, plots)

	require.NoError(t, store.StoreSpectrogram(ctx, spectrogramFor(2)))

	plots, err = store.PendingPlotKeys(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.PlotKey{{SessionID: session, ParamIdx: 0}}, plots)

	plot := &models.SpectrogramPlot{
		PlotKey:           plots[0],
		ID:                "0b0f4c2e-2f7d-4f53-9c35-1d3c1f2b7a10",
		Electrodes:        []int{1, 2},
		FreqMin:           1,
		FreqMax:           300,
		ExecutionDuration: 0.01,
		Figure:            []byte(`{"data":[]}`),
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, store.StorePlot(ctx, plot))

	plots, err = store.PendingPlotKeys(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, plots)
}

func TestStorePlot(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()
	createSession(t, store, 1)

	key := models.PlotKey{SessionID: session}
	_, err := store.GetPlot(ctx, key)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	plot := &models.SpectrogramPlot{
		PlotKey:           key,
		ID:                "5d0c5e55-8b3c-4f3e-a1ad-43a0f3a1c7f2",
		Electrodes:        []int{1},
		FreqMin:           1,
		FreqMax:           300,
		ExecutionDuration: 0.25,
		Figure:            []byte(`{"data":[{"type":"heatmap"}]}`),
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, store.StorePlot(ctx, plot))

	got, err := store.GetPlot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, plot.ID, got.ID)
	assert.Equal(t, 0.25, got.ExecutionDuration)
	assert.Equal(t, []int{1}, got.Electrodes)
	assert.JSONEq(t, string(plot.Figure), string(got.Figure))

	again := *plot
	again.ID = "a3c1b6a4-6f0e-4d53-8a1e-2b9c7d6e5f40"
	err = store.StorePlot(ctx, &again)
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func plotFor(id string, electrodes ...int) *models.SpectrogramPlot {
	return &models.SpectrogramPlot{
		PlotKey:           models.PlotKey{SessionID: session},
		ID:                id,
		Electrodes:        electrodes,
		FreqMin:           1,
		FreqMax:           300,
		ExecutionDuration: 0.01,
		Figure:            []byte(`{"data":[]}`),
		CreatedAt:         time.Now().UTC(),
	}
}

func TestStorePlot_ReplacesStalePlot(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()
	createSession(t, store, 1, 2)
	key := models.PlotKey{SessionID: session}

	require.NoError(t, store.StoreSpectrogram(ctx, spectrogramFor(1)))
	require.NoError(t, store.StorePlot(ctx, plotFor("6f1d2a9e-0c4b-4e57-9a3d-8b2e1f0c7d61", 1)))

	// the plot covers every stored spectrogram
	plots, err := store.PendingPlotKeys(ctx, []models.SpectrogramKey{spectrogramFor(2).SpectrogramKey})
	require.NoError(t, err)
	assert.Empty(t, plots)

	require.NoError(t, store.StoreSpectrogram(ctx, spectrogramFor(2)))

	plots, err = store.PendingPlotKeys(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.PlotKey{key}, plots)

	require.NoError(t, store.StorePlot(ctx, plotFor("c2e8b7a4-5d3f-4a1e-9b6c-0f7d2e4a8b13", 2, 1)))

	got, err := store.GetPlot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "c2e8b7a4-5d3f-4a1e-9b6c-0f7d2e4a8b13", got.ID)
	assert.Equal(t, []int{1, 2}, got.Electrodes)

	err = store.StorePlot(ctx, plotFor("e0a4c6b8-1d3f-4b5a-8c7e-9f1a2b3c4d5e", 1, 2))
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	plots, err = store.PendingPlotKeys(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, plots)
}

func TestPendingPlotKeys_Exclude(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()
	createSession(t, store, 1, 2)
	require.NoError(t, store.StoreSpectrogram(ctx, spectrogramFor(1)))

	plots, err := store.PendingPlotKeys(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, plots)

	// excluding another session's key does not unblock this one
	other := models.SpectrogramKey{TraceKey: models.TraceKey{SessionID: "other", Electrode: 2}}
	plots, err = store.PendingPlotKeys(ctx, []models.SpectrogramKey{other})
	require.NoError(t, err)
	assert.Empty(t, plots)

	plots, err = store.PendingPlotKeys(ctx, []models.SpectrogramKey{spectrogramFor(2).SpectrogramKey})
	require.NoError(t, err)
	assert.Equal(t, []models.PlotKey{{SessionID: session}}, plots)
}

func TestDeleteTrace_StalesPlot(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()
	createSession(t, store, 1, 2)
	require.NoError(t, store.StoreSpectrogram(ctx, spectrogramFor(1)))
	require.NoError(t, store.StoreSpectrogram(ctx, spectrogramFor(2)))
	require.NoError(t, store.StorePlot(ctx, plotFor("7a9c1e3b-5d7f-4a2c-8e4b-6d8f0a2c4e6a", 1, 2)))

	require.NoError(t, store.DeleteTrace(ctx, models.TraceKey{SessionID: session, Electrode: 2}))

	plots, err := store.PendingPlotKeys(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.PlotKey{{SessionID: session}}, plots)
}

func TestCreateParameters(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()

	params := &models.SpectrogramParameters{ParamIdx: 1, WindowSize: 1, OverlapSize: 0.5, WindowType: "hann", Description: "1s hann, half overlap"}
	require.NoError(t, store.CreateParameters(ctx, params))

	got, err := store.GetParameters(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, *params, *got)

	err = store.CreateParameters(ctx, params)
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	// a new parameter set makes every trace pending again
	createSession(t, store, 1)
	pending, err := store.PendingSpectrogramKeys(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestDeleteTrace_Cascades(t *testing.T) {
	_, store := openSQLite(t)
	ctx := context.Background()
	createSession(t, store, 1, 2)

	spec := spectrogramFor(1)
	require.NoError(t, store.StoreSpectrogram(ctx, spec))

	require.NoError(t, store.DeleteTrace(ctx, spec.TraceKey))

	exists, err := store.SpectrogramExists(ctx, spec.SpectrogramKey)
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = store.GetChannelSpectrogram(ctx, spec.SpectrogramKey)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	keys, err := store.ListTraceKeys(ctx, session)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	err = store.DeleteTrace(ctx, spec.TraceKey)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIngestionTables_Idempotent(t *testing.T) {
	db, store := openSQLite(t)
	ctx := context.Background()

	probeType := &models.ProbeType{
		ProbeType: "O09-config",
		Electrodes: []models.ProbeElectrode{
			{ProbeType: "O09-config", Electrode: 0, Shank: 0, ShankCol: 0, ShankRow: 0, XCoord: 0, YCoord: 0},
			{ProbeType: "O09-config", Electrode: 1, Shank: 0, ShankCol: 1, ShankRow: 0, XCoord: 1, YCoord: 0},
		},
	}
	electrodeConfig := &models.ElectrodeConfig{Name: "O09-config", ProbeType: "O09-config", Channels: map[int]int{7: 0, 3: 1}}
	probe := &models.Probe{Probe: "Q983", ProbeType: "O09-config", ProbeComment: "organoid probe"}

	for i := 0; i < 2; i++ {
		require.NoError(t, store.CreateProbeType(ctx, probeType))
		require.NoError(t, store.CreateProbe(ctx, probe))
		require.NoError(t, store.CreateElectrodeConfig(ctx, electrodeConfig))
	}

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM probe_electrodes`).Scan(&n))
	assert.Equal(t, 2, n)
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM electrode_config_channels`).Scan(&n))
	assert.Equal(t, 2, n)

	const path = "utah-organoids/inbox/O09/O09_240301_120000.rhs"
	processed, err := store.FileProcessed(ctx, path)
	require.NoError(t, err)
	assert.False(t, processed)

	raw := &models.EphysRawFile{
		FilePath:       path,
		FileTime:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ParentFolder:   "O09",
		FilenamePrefix: "O09",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, store.CreateRawFile(ctx, raw))
	require.NoError(t, store.CreateRawFile(ctx, raw))
	require.NoError(t, store.CreateFileProcessing(ctx, &models.FileProcessing{
		ID:            "9a0e2b4c-6d8f-4a1b-8c3d-5e7f9a1b3c5d",
		RemotePath:    path,
		ExecutionTime: time.Now().UTC(),
		LogMessage:    "Added new raw ephys: O09_240301_120000.rhs\n",
	}))

	processed, err = store.FileProcessed(ctx, path)
	require.NoError(t, err)
	assert.True(t, processed)

	got, err := store.GetRawFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "O09", got.ParentFolder)
	assert.True(t, raw.FileTime.Equal(got.FileTime))

	_, err = store.GetRawFile(ctx, "utah-organoids/inbox/O09/missing.rhs")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
