package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// CreateProbeType inserts a probe type and its electrode layout, skipping
// rows that already exist
func (s *Store) CreateProbeType(ctx context.Context, probeType *models.ProbeType) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.insertIfAbsent(ctx, tx, `INSERT INTO probe_types (probe_type) VALUES (?)`, probeType.ProbeType); err != nil {
			return fmt.Errorf("failed to insert probe type: %w", err)
		}
		for _, e := range probeType.Electrodes {
			_, err := s.insertIfAbsent(ctx, tx, `
				INSERT INTO probe_electrodes (probe_type, electrode, shank, shank_col, shank_row, x_coord, y_coord)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				probeType.ProbeType, e.Electrode, e.Shank, e.ShankCol, e.ShankRow, e.XCoord, e.YCoord)
			if err != nil {
				return fmt.Errorf("failed to insert electrode %d: %w", e.Electrode, err)
			}
		}
		return nil
	})
}

// CreateProbe inserts a probe, skipping it if already registered
func (s *Store) CreateProbe(ctx context.Context, probe *models.Probe) error {
	_, err := s.insertIfAbsent(ctx, s.db, `
		INSERT INTO probes (probe, probe_type, probe_comment)
		VALUES (?, ?, ?)`,
		probe.Probe, probe.ProbeType, probe.ProbeComment)
	return err
}

// CreateElectrodeConfig inserts a channel to electrode map, skipping rows
// that already exist
func (s *Store) CreateElectrodeConfig(ctx context.Context, cfg *models.ElectrodeConfig) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.insertIfAbsent(ctx, tx, `
			INSERT INTO electrode_configs (electrode_config_name, probe_type)
			VALUES (?, ?)`, cfg.Name, cfg.ProbeType); err != nil {
			return fmt.Errorf("failed to insert electrode config: %w", err)
		}
		for channel, electrode := range cfg.Channels {
			if _, err := s.insertIfAbsent(ctx, tx, `
				INSERT INTO electrode_config_channels (electrode_config_name, channel, probe_type, electrode)
				VALUES (?, ?, ?, ?)`, cfg.Name, channel, cfg.ProbeType, electrode); err != nil {
				return fmt.Errorf("failed to map channel %d: %w", channel, err)
			}
		}
		return nil
	})
}

// CreateRawFile registers a raw acquisition file
func (s *Store) CreateRawFile(ctx context.Context, file *models.EphysRawFile) error {
	_, err := s.insertIfAbsent(ctx, s.db, `
		INSERT INTO ephys_raw_files (file_path, file_time, parent_folder, filename_prefix, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		file.FilePath, file.FileTime, file.ParentFolder, file.FilenamePrefix, file.CreatedAt)
	return err
}

// GetRawFile retrieves a registered raw file by its object key
func (s *Store) GetRawFile(ctx context.Context, filePath string) (*models.EphysRawFile, error) {
	var f models.EphysRawFile
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT file_path, file_time, parent_folder, filename_prefix, created_at
		FROM ephys_raw_files
		WHERE file_path = ?`), filePath).Scan(&f.FilePath, &f.FileTime, &f.ParentFolder, &f.FilenamePrefix, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("raw file %s: %w", filePath, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFileProcessing records the outcome of processing one inbox file
func (s *Store) CreateFileProcessing(ctx context.Context, entry *models.FileProcessing) error {
	_, err := s.insertIfAbsent(ctx, s.db, `
		INSERT INTO file_processing (id, remote_path, execution_time, log_message)
		VALUES (?, ?, ?, ?)`,
		entry.ID, entry.RemotePath, entry.ExecutionTime, entry.LogMessage)
	return err
}

// FileProcessed reports whether remotePath has been processed before
func (s *Store) FileProcessed(ctx context.Context, remotePath string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM file_processing WHERE remote_path = ?`), remotePath).Scan(&n)
	return n > 0, err
}
