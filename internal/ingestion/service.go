// Package ingestion registers probes and raw acquisition files uploaded to
// the project inbox.
package ingestion

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/internal/storage"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// RawFileSuffix marks Intan RHS recordings
const RawFileSuffix = ".rhs"

var rawFileName = regexp.MustCompile(`^(.*)_(\d{6}_\d{6})$`)

// ParseRawFileName splits "<prefix>_<yymmdd>_<HHMMSS>.rhs" into the prefix
// and the UTC start time of the recording.
func ParseRawFileName(name string) (string, time.Time, error) {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	m := rawFileName.FindStringSubmatch(stem)
	if m == nil {
		return "", time.Time{}, fmt.Errorf("file name %q does not end in _yymmdd_HHMMSS", name)
	}
	t, err := time.Parse("060102_150405", m[2])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("file name %q: %w", name, err)
	}
	return m[1], t, nil
}

type IngestionService interface {
	IngestProbes(ctx context.Context, probeFile string) (int, error)
	ProcessFile(ctx context.Context, remotePath string) (*models.FileProcessing, error)
	ScanInbox(ctx context.Context) (int, error)
}

type ingestionService struct {
	repository   repository.IngestionRepository
	s3           storage.S3Service
	inboxPrefix  string
	processedDir string
	now          func() time.Time
}

// NewIngestionService returns an ingestion service. When processedDir is set
// and storage is configured, registered raw files are also copied below it.
func NewIngestionService(repo repository.IngestionRepository, s3Service storage.S3Service, inboxPrefix, processedDir string) IngestionService {
	return &ingestionService{
		repository:   repo,
		s3:           s3Service,
		inboxPrefix:  inboxPrefix,
		processedDir: processedDir,
		now:          time.Now,
	}
}

// IngestProbes registers every probe configuration in probeFile and returns
// how many were read. Records that already exist are kept.
func (s *ingestionService) IngestProbes(ctx context.Context, probeFile string) (int, error) {
	entries, err := LoadProbeFile(probeFile)
	if err != nil {
		return 0, err
	}

	for _, entry := range entries {
		electrodes, err := BuildElectrodeLayouts(entry.Config)
		if err != nil {
			return 0, fmt.Errorf("probe config %s: %w", entry.Name, err)
		}

		known := make(map[int]bool, len(electrodes))
		for _, e := range electrodes {
			known[e.Electrode] = true
		}
		for channel, electrode := range entry.ChannelToElectrode {
			if !known[electrode] {
				return 0, fmt.Errorf("probe config %s: channel %d maps to unknown electrode %d", entry.Name, channel, electrode)
			}
		}

		probeType := entry.Config.ProbeType
		if err := s.repository.CreateProbeType(ctx, &models.ProbeType{ProbeType: probeType, Electrodes: electrodes}); err != nil {
			return 0, err
		}
		if err := s.repository.CreateProbe(ctx, &models.Probe{
			Probe:        entry.SerialNumber,
			ProbeType:    probeType,
			ProbeComment: entry.Comment,
		}); err != nil {
			return 0, err
		}
		if err := s.repository.CreateElectrodeConfig(ctx, &models.ElectrodeConfig{
			Name:      entry.Name,
			ProbeType: probeType,
			Channels:  entry.ChannelToElectrode,
		}); err != nil {
			return 0, err
		}

		log.Info().
			Str("config", entry.Name).
			Str("probe", entry.SerialNumber).
			Str("probe_type", probeType).
			Int("electrodes", len(electrodes)).
			Msg("Probe registered")
	}
	return len(entries), nil
}

// ProcessFile registers remotePath as a raw file when it is an RHS recording
// in the inbox. A processing entry is written for every file, including
// those that register nothing.
func (s *ingestionService) ProcessFile(ctx context.Context, remotePath string) (*models.FileProcessing, error) {
	var msg strings.Builder

	if strings.HasPrefix(remotePath, s.inboxPrefix) && strings.HasSuffix(remotePath, RawFileSuffix) {
		prefix, start, err := ParseRawFileName(remotePath)
		if err != nil {
			log.Warn().Err(err).Str("path", remotePath).Msg("Skipping raw file with unexpected name")
			fmt.Fprintf(&msg, "Skipped: %v\n", err)
		} else {
			raw := &models.EphysRawFile{
				FilePath:       remotePath,
				FileTime:       start,
				ParentFolder:   path.Base(path.Dir(remotePath)),
				FilenamePrefix: prefix,
				CreatedAt:      s.now().UTC(),
			}
			if err := s.repository.CreateRawFile(ctx, raw); err != nil {
				return nil, fmt.Errorf("failed to register %s: %w", remotePath, err)
			}
			fmt.Fprintf(&msg, "Added new raw ephys: %s\n", path.Base(remotePath))

			if local, err := s.fetchRawFile(ctx, remotePath); err != nil {
				log.Warn().Err(err).Str("path", remotePath).Msg("Failed to copy raw file")
				fmt.Fprintf(&msg, "Copy failed: %v\n", err)
			} else if local != "" {
				fmt.Fprintf(&msg, "Copied to %s\n", local)
			}
		}
	}

	entry := &models.FileProcessing{
		ID:            uuid.New().String(),
		RemotePath:    remotePath,
		ExecutionTime: s.now().UTC(),
		LogMessage:    msg.String(),
	}
	if err := s.repository.CreateFileProcessing(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// fetchRawFile downloads remotePath to the same relative location below the
// processed data directory. It returns "" when there is nowhere to copy to.
func (s *ingestionService) fetchRawFile(ctx context.Context, remotePath string) (string, error) {
	if s.s3 == nil || s.processedDir == "" {
		return "", nil
	}

	data, err := s.s3.DownloadFile(ctx, remotePath)
	if err != nil {
		return "", err
	}

	rel := filepath.FromSlash(strings.TrimPrefix(remotePath, s.inboxPrefix))
	local := filepath.Join(s.processedDir, rel)
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return "", err
	}
	log.Debug().Str("path", remotePath).Str("local", local).Int("bytes", len(data)).Msg("Raw file copied")
	return local, nil
}

// ScanInbox processes every inbox object without a processing entry and
// returns how many were processed.
func (s *ingestionService) ScanInbox(ctx context.Context) (int, error) {
	if s.s3 == nil {
		return 0, nil
	}

	objects, err := s.s3.ListFiles(ctx, s.inboxPrefix)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		done, err := s.repository.FileProcessed(ctx, obj.Key)
		if err != nil {
			return processed, err
		}
		if done {
			continue
		}
		entry, err := s.ProcessFile(ctx, obj.Key)
		if err != nil {
			log.Error().Err(err).Str("path", obj.Key).Msg("Failed to process inbox file")
			continue
		}
		log.Debug().Str("path", entry.RemotePath).Str("log", strings.TrimSpace(entry.LogMessage)).Msg("Inbox file processed")
		processed++
	}

	if processed > 0 {
		log.Info().Str("inbox", s.inboxPrefix).Int("processed", processed).Msg("Inbox scanned")
	}
	return processed, nil
}
