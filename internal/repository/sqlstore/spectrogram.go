package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// ListBands returns the spectral bands ordered by lower frequency
func (s *Store) ListBands(ctx context.Context) ([]models.SpectralBand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT band_name, lower_freq, upper_freq
		FROM spectral_bands
		ORDER BY lower_freq, band_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bands []models.SpectralBand
	for rows.Next() {
		var b models.SpectralBand
		if err := rows.Scan(&b.BandName, &b.LowerFreq, &b.UpperFreq); err != nil {
			return nil, err
		}
		bands = append(bands, b)
	}
	return bands, rows.Err()
}

// ListParameters returns every spectrogram parameter set
func (s *Store) ListParameters(ctx context.Context) ([]models.SpectrogramParameters, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT param_idx, window_size, overlap_size, window_type, description
		FROM spectrogram_parameters
		ORDER BY param_idx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var params []models.SpectrogramParameters
	for rows.Next() {
		var p models.SpectrogramParameters
		if err := rows.Scan(&p.ParamIdx, &p.WindowSize, &p.OverlapSize, &p.WindowType, &p.Description); err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

// GetParameters retrieves one parameter set by id
func (s *Store) GetParameters(ctx context.Context, paramIdx int) (*models.SpectrogramParameters, error) {
	query := `
		SELECT param_idx, window_size, overlap_size, window_type, description
		FROM spectrogram_parameters
		WHERE param_idx = ?`

	var p models.SpectrogramParameters
	err := s.db.QueryRowContext(ctx, s.rebind(query), paramIdx).Scan(
		&p.ParamIdx, &p.WindowSize, &p.OverlapSize, &p.WindowType, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("spectrogram parameters %d: %w", paramIdx, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateParameters adds a parameter set. An existing param_idx yields
// ErrDuplicateKey.
func (s *Store) CreateParameters(ctx context.Context, p *models.SpectrogramParameters) error {
	inserted, err := s.insertIfAbsent(ctx, s.db, `
		INSERT INTO spectrogram_parameters (param_idx, window_size, overlap_size, window_type, description)
		VALUES (?, ?, ?, ?, ?)`,
		p.ParamIdx, p.WindowSize, p.OverlapSize, p.WindowType, p.Description)
	if err != nil {
		return fmt.Errorf("failed to insert spectrogram parameters: %w", err)
	}
	if !inserted {
		return fmt.Errorf("spectrogram parameters %d: %w", p.ParamIdx, repository.ErrDuplicateKey)
	}
	return nil
}

// CreateLFP stores a session's sampling rate together with its traces
func (s *Store) CreateLFP(ctx context.Context, lfp *models.LFP, traces []models.LFPTrace) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		inserted, err := s.insertIfAbsent(ctx, tx, `
			INSERT INTO lfp (session_id, sampling_rate, created_at)
			VALUES (?, ?, ?)`,
			lfp.SessionID, lfp.SamplingRate, lfp.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert lfp: %w", err)
		}
		if !inserted {
			return fmt.Errorf("lfp %s: %w", lfp.SessionID, repository.ErrDuplicateKey)
		}

		for _, trace := range traces {
			blob, err := encodeVector(trace.LFP)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, s.rebind(`
				INSERT INTO lfp_traces (session_id, electrode, lfp)
				VALUES (?, ?, ?)`),
				lfp.SessionID, trace.Electrode, blob)
			if err != nil {
				return fmt.Errorf("failed to insert trace %d: %w", trace.Electrode, err)
			}
		}
		return nil
	})
}

// GetLFP retrieves the session-level LFP record
func (s *Store) GetLFP(ctx context.Context, sessionID string) (*models.LFP, error) {
	query := `SELECT session_id, sampling_rate, created_at FROM lfp WHERE session_id = ?`

	var lfp models.LFP
	err := s.db.QueryRowContext(ctx, s.rebind(query), sessionID).Scan(&lfp.SessionID, &lfp.SamplingRate, &lfp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lfp %s: %w", sessionID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &lfp, nil
}

// GetTrace retrieves one electrode's samples
func (s *Store) GetTrace(ctx context.Context, key models.TraceKey) (*models.LFPTrace, error) {
	query := `SELECT lfp FROM lfp_traces WHERE session_id = ? AND electrode = ?`

	var blob []byte
	err := s.db.QueryRowContext(ctx, s.rebind(query), key.SessionID, key.Electrode).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trace %s: %w", key, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	samples, err := decodeVector(blob)
	if err != nil {
		return nil, err
	}
	return &models.LFPTrace{TraceKey: key, LFP: samples}, nil
}

// ListTraceKeys lists a session's traces ordered by electrode
func (s *Store) ListTraceKeys(ctx context.Context, sessionID string) ([]models.TraceKey, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT session_id, electrode
		FROM lfp_traces
		WHERE session_id = ?
		ORDER BY electrode`), sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.TraceKey
	for rows.Next() {
		var k models.TraceKey
		if err := rows.Scan(&k.SessionID, &k.Electrode); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// DeleteTrace removes a trace; its spectrograms are removed by cascade
func (s *Store) DeleteTrace(ctx context.Context, key models.TraceKey) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM lfp_traces WHERE session_id = ? AND electrode = ?`),
		key.SessionID, key.Electrode)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("trace %s: %w", key, repository.ErrNotFound)
	}
	return nil
}

// SpectrogramExists reports whether a spectrogram has been stored for key
func (s *Store) SpectrogramExists(ctx context.Context, key models.SpectrogramKey) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM lfp_spectrograms
		WHERE session_id = ? AND electrode = ? AND param_idx = ?`),
		key.SessionID, key.Electrode, key.ParamIdx).Scan(&n)
	return n > 0, err
}

// StoreSpectrogram writes the master row, the channel spectrogram and every
// band power in one transaction. An existing key yields ErrDuplicateKey and
// leaves the stored rows untouched.
func (s *Store) StoreSpectrogram(ctx context.Context, spec *models.LFPSpectrogram) error {
	key := spec.SpectrogramKey

	matrix, err := encodeMatrix(spec.Channel.Spectrogram)
	if err != nil {
		return err
	}
	times, err := encodeVector(spec.Channel.Time)
	if err != nil {
		return err
	}
	freqs, err := encodeVector(spec.Channel.Frequency)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		inserted, err := s.insertIfAbsent(ctx, tx, `
			INSERT INTO lfp_spectrograms (session_id, electrode, param_idx, created_at)
			VALUES (?, ?, ?, ?)`,
			key.SessionID, key.Electrode, key.ParamIdx, spec.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert spectrogram: %w", err)
		}
		if !inserted {
			return fmt.Errorf("spectrogram %s: %w", key, repository.ErrDuplicateKey)
		}

		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO channel_spectrograms (session_id, electrode, param_idx, spectrogram, time, frequency)
			VALUES (?, ?, ?, ?, ?, ?)`),
			key.SessionID, key.Electrode, key.ParamIdx, matrix, times, freqs)
		if err != nil {
			return fmt.Errorf("failed to insert channel spectrogram: %w", err)
		}

		for _, p := range spec.Powers {
			power, err := encodeVector(p.Power)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, s.rebind(`
				INSERT INTO channel_powers (session_id, electrode, param_idx, band_name, lower_freq, upper_freq, power, mean_power, std_power)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
				key.SessionID, key.Electrode, key.ParamIdx, p.BandName, p.LowerFreq, p.UpperFreq, power, p.MeanPower, p.StdPower)
			if err != nil {
				return fmt.Errorf("failed to insert %s power: %w", p.BandName, err)
			}
		}
		return nil
	})
}

func scanChannel(row interface{ Scan(...any) error }) (*models.ChannelSpectrogram, error) {
	var ch models.ChannelSpectrogram
	var matrix, times, freqs []byte
	if err := row.Scan(&ch.SessionID, &ch.Electrode, &ch.ParamIdx, &matrix, &times, &freqs); err != nil {
		return nil, err
	}

	var err error
	if ch.Spectrogram, err = decodeMatrix(matrix); err != nil {
		return nil, err
	}
	if ch.Time, err = decodeVector(times); err != nil {
		return nil, err
	}
	if ch.Frequency, err = decodeVector(freqs); err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetChannelSpectrogram retrieves the power matrix and axes for key
func (s *Store) GetChannelSpectrogram(ctx context.Context, key models.SpectrogramKey) (*models.ChannelSpectrogram, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT session_id, electrode, param_idx, spectrogram, time, frequency
		FROM channel_spectrograms
		WHERE session_id = ? AND electrode = ? AND param_idx = ?`),
		key.SessionID, key.Electrode, key.ParamIdx)

	ch, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("channel spectrogram %s: %w", key, repository.ErrNotFound)
	}
	return ch, err
}

// ListChannelSpectrograms returns every channel of a group ordered by electrode
func (s *Store) ListChannelSpectrograms(ctx context.Context, key models.PlotKey) ([]models.ChannelSpectrogram, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT session_id, electrode, param_idx, spectrogram, time, frequency
		FROM channel_spectrograms
		WHERE session_id = ? AND param_idx = ?
		ORDER BY electrode`), key.SessionID, key.ParamIdx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.ChannelSpectrogram
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

// GetChannelPowers returns the band powers of one spectrogram
func (s *Store) GetChannelPowers(ctx context.Context, key models.SpectrogramKey) ([]models.ChannelPower, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT band_name, lower_freq, upper_freq, power, mean_power, std_power
		FROM channel_powers
		WHERE session_id = ? AND electrode = ? AND param_idx = ?
		ORDER BY lower_freq, band_name`),
		key.SessionID, key.Electrode, key.ParamIdx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var powers []models.ChannelPower
	for rows.Next() {
		p := models.ChannelPower{SpectrogramKey: key}
		var blob []byte
		if err := rows.Scan(&p.BandName, &p.LowerFreq, &p.UpperFreq, &blob, &p.MeanPower, &p.StdPower); err != nil {
			return nil, err
		}
		if p.Power, err = decodeVector(blob); err != nil {
			return nil, err
		}
		powers = append(powers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(powers) == 0 {
		exists, err := s.SpectrogramExists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("spectrogram %s: %w", key, repository.ErrNotFound)
		}
	}
	return powers, nil
}

// PendingSpectrogramKeys lists trace and parameter combinations that have no
// spectrogram yet
func (s *Store) PendingSpectrogramKeys(ctx context.Context, limit int) ([]models.SpectrogramKey, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT t.session_id, t.electrode, p.param_idx
		FROM lfp_traces t
		CROSS JOIN spectrogram_parameters p
		LEFT JOIN lfp_spectrograms s
			ON s.session_id = t.session_id AND s.electrode = t.electrode AND s.param_idx = p.param_idx
		WHERE s.session_id IS NULL
		ORDER BY t.session_id, t.electrode, p.param_idx
		LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.SpectrogramKey
	for rows.Next() {
		var k models.SpectrogramKey
		if err := rows.Scan(&k.SessionID, &k.Electrode, &k.ParamIdx); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// plotElectrodes returns the channel set of the stored plot for key and
// whether such a plot exists
func (s *Store) plotElectrodes(ctx context.Context, q queryer, key models.PlotKey) ([]int, bool, error) {
	var n int
	err := q.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM spectrogram_plots WHERE session_id = ? AND param_idx = ?`),
		key.SessionID, key.ParamIdx).Scan(&n)
	if err != nil || n == 0 {
		return nil, false, err
	}

	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT electrode FROM spectrogram_plot_channels
		WHERE session_id = ? AND param_idx = ?
		ORDER BY electrode`), key.SessionID, key.ParamIdx)
	if err != nil {
		return nil, true, err
	}
	defer rows.Close()

	electrodes := []int{}
	for rows.Next() {
		var e int
		if err := rows.Scan(&e); err != nil {
			return nil, true, err
		}
		electrodes = append(electrodes, e)
	}
	return electrodes, true, rows.Err()
}

func sameElectrodes(a, b []int) bool {
	return slices.Equal(slices.Sorted(slices.Values(a)), slices.Sorted(slices.Values(b)))
}

// StorePlot inserts a rendered plot together with its channel set. A plot
// already rendered from the same channels yields ErrDuplicateKey; a plot
// rendered from a different set is stale and is replaced.
func (s *Store) StorePlot(ctx context.Context, plot *models.SpectrogramPlot) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, found, err := s.plotElectrodes(ctx, tx, plot.PlotKey)
		if err != nil {
			return fmt.Errorf("failed to read current plot: %w", err)
		}
		if found {
			if sameElectrodes(current, plot.Electrodes) {
				return fmt.Errorf("plot %s: %w", plot.PlotKey, repository.ErrDuplicateKey)
			}
			_, err := tx.ExecContext(ctx, s.rebind(`
				DELETE FROM spectrogram_plots WHERE session_id = ? AND param_idx = ?`),
				plot.SessionID, plot.ParamIdx)
			if err != nil {
				return fmt.Errorf("failed to remove stale plot: %w", err)
			}
		}

		inserted, err := s.insertIfAbsent(ctx, tx, `
			INSERT INTO spectrogram_plots (id, session_id, param_idx, freq_min, freq_max, execution_duration, figure, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			plot.ID, plot.SessionID, plot.ParamIdx, plot.FreqMin, plot.FreqMax, plot.ExecutionDuration, string(plot.Figure), plot.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert plot: %w", err)
		}
		if !inserted {
			return fmt.Errorf("plot %s: %w", plot.PlotKey, repository.ErrDuplicateKey)
		}

		for _, e := range plot.Electrodes {
			_, err := tx.ExecContext(ctx, s.rebind(`
				INSERT INTO spectrogram_plot_channels (session_id, param_idx, electrode)
				VALUES (?, ?, ?)`), plot.SessionID, plot.ParamIdx, e)
			if err != nil {
				return fmt.Errorf("failed to insert plot channel %d: %w", e, err)
			}
		}
		return nil
	})
}

// GetPlot retrieves the plot of a channel group
func (s *Store) GetPlot(ctx context.Context, key models.PlotKey) (*models.SpectrogramPlot, error) {
	query := `
		SELECT id, session_id, param_idx, freq_min, freq_max, execution_duration, figure, created_at
		FROM spectrogram_plots
		WHERE session_id = ? AND param_idx = ?`

	var plot models.SpectrogramPlot
	var figure string
	err := s.db.QueryRowContext(ctx, s.rebind(query), key.SessionID, key.ParamIdx).Scan(
		&plot.ID,
		&plot.SessionID,
		&plot.ParamIdx,
		&plot.FreqMin,
		&plot.FreqMax,
		&plot.ExecutionDuration,
		&figure,
		&plot.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plot %s: %w", key, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	plot.Figure = []byte(figure)

	if plot.Electrodes, _, err = s.plotElectrodes(ctx, s.db, key); err != nil {
		return nil, err
	}
	return &plot, nil
}

// PendingPlotKeys lists groups that need a plot. A group qualifies when it has
// no plot, or its plot was rendered from a different channel set, and every
// trace of the session has a spectrogram or is listed in exclude.
func (s *Store) PendingPlotKeys(ctx context.Context, exclude []models.SpectrogramKey) ([]models.PlotKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.session_id, s.param_idx
		FROM lfp_spectrograms s
		LEFT JOIN spectrogram_plot_channels c
			ON c.session_id = s.session_id AND c.param_idx = s.param_idx AND c.electrode = s.electrode
		GROUP BY s.session_id, s.param_idx
		HAVING COUNT(c.electrode) < COUNT(*)
			OR COUNT(*) <> (
				SELECT COUNT(*) FROM spectrogram_plot_channels pc
				WHERE pc.session_id = s.session_id AND pc.param_idx = s.param_idx)
		ORDER BY s.session_id, s.param_idx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []models.PlotKey
	for rows.Next() {
		var k models.PlotKey
		if err := rows.Scan(&k.SessionID, &k.ParamIdx); err != nil {
			return nil, err
		}
		candidates = append(candidates, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return candidates, nil
	}

	blocked, err := s.incompletePlotGroups(ctx, exclude)
	if err != nil {
		return nil, err
	}
	keys := make([]models.PlotKey, 0, len(candidates))
	for _, k := range candidates {
		if !blocked[k] {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// incompletePlotGroups marks groups with a trace that has neither a
// spectrogram nor an entry in exclude
func (s *Store) incompletePlotGroups(ctx context.Context, exclude []models.SpectrogramKey) (map[models.PlotKey]bool, error) {
	skip := make(map[models.SpectrogramKey]struct{}, len(exclude))
	for _, k := range exclude {
		skip[k] = struct{}{}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.session_id, t.electrode, g.param_idx
		FROM lfp_traces t
		JOIN (SELECT DISTINCT session_id, param_idx FROM lfp_spectrograms) g
			ON g.session_id = t.session_id
		LEFT JOIN lfp_spectrograms s
			ON s.session_id = t.session_id AND s.electrode = t.electrode AND s.param_idx = g.param_idx
		WHERE s.session_id IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocked := make(map[models.PlotKey]bool)
	for rows.Next() {
		var k models.SpectrogramKey
		if err := rows.Scan(&k.SessionID, &k.Electrode, &k.ParamIdx); err != nil {
			return nil, err
		}
		if _, ok := skip[k]; !ok {
			blocked[models.PlotKey{SessionID: k.SessionID, ParamIdx: k.ParamIdx}] = true
		}
	}
	return blocked, rows.Err()
}
