// Package worker drives the pipeline: it registers new inbox files,
// populates missing spectrograms and renders completed sessions.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/ephyspipe/internal/config"
	"github.com/RMahshie/ephyspipe/internal/processing"
	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/pkg/models"
)

// DefaultBatchSize bounds the spectrograms populated per cycle
const DefaultBatchSize = 64

// InboxScanner registers files uploaded to the inbox
type InboxScanner interface {
	ScanInbox(ctx context.Context) (int, error)
}

// Worker runs population cycles until it has been idle for
// MaxIdledCycle consecutive cycles. A negative MaxIdledCycle runs forever.
type Worker struct {
	inbox        InboxScanner
	spectrograms processing.SpectrogramService
	cfg          config.WorkerConfig
	batchSize    int

	// keys that failed once are not retried by this worker
	failed      map[models.SpectrogramKey]struct{}
	failedPlots map[models.PlotKey]struct{}
}

// New creates a worker. inbox may be nil when no object store is configured.
func New(inbox InboxScanner, spectrograms processing.SpectrogramService, cfg config.WorkerConfig) *Worker {
	return &Worker{
		inbox:        inbox,
		spectrograms: spectrograms,
		cfg:          cfg,
		batchSize:    DefaultBatchSize,
		failed:       make(map[models.SpectrogramKey]struct{}),
		failedPlots:  make(map[models.PlotKey]struct{}),
	}
}

// Run loops until the idle limit is reached or ctx is done
func (w *Worker) Run(ctx context.Context) error {
	log.Info().
		Int("max_idled_cycle", w.cfg.MaxIdledCycle).
		Dur("poll_interval", w.cfg.PollInterval).
		Msg("Worker started")

	idle := 0
	for cycle := 1; ; cycle++ {
		work, err := w.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Int("cycle", cycle).Msg("Worker cycle failed")
		}

		if work > 0 {
			idle = 0
		} else {
			idle++
		}
		log.Debug().Int("cycle", cycle).Int("work", work).Int("idle", idle).Msg("Worker cycle finished")

		if w.cfg.MaxIdledCycle >= 0 && idle > 0 && idle >= w.cfg.MaxIdledCycle {
			log.Info().Int("cycles", cycle).Msg("Worker idle, stopping")
			return nil
		}

		timer := time.NewTimer(w.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunOnce performs a single cycle and reports how many units of work it did
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	work := 0

	if w.inbox != nil {
		n, err := w.inbox.ScanInbox(ctx)
		if err != nil {
			return work, err
		}
		work += n
	}

	keys, err := w.spectrograms.PendingKeys(ctx, w.batchSize+len(w.failed))
	if err != nil {
		return work, err
	}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return work, err
		}
		if _, skip := w.failed[key]; skip {
			continue
		}
		_, err := w.spectrograms.PopulateSpectrogram(ctx, key)
		switch {
		case err == nil:
			work++
		case errors.Is(err, repository.ErrDuplicateKey):
		default:
			log.Error().Err(err).Str("key", key.String()).Msg("Failed to populate spectrogram")
			w.failed[key] = struct{}{}
		}
	}

	// failed channels must not hold back the rest of their session
	failed := make([]models.SpectrogramKey, 0, len(w.failed))
	for key := range w.failed {
		failed = append(failed, key)
	}
	plots, err := w.spectrograms.PendingPlots(ctx, failed)
	if err != nil {
		return work, err
	}
	for _, key := range plots {
		if err := ctx.Err(); err != nil {
			return work, err
		}
		if _, skip := w.failedPlots[key]; skip {
			continue
		}
		_, err := w.spectrograms.RenderSessionPlot(ctx, key)
		switch {
		case err == nil:
			work++
		case errors.Is(err, repository.ErrDuplicateKey):
		default:
			log.Error().Err(err).Str("key", key.String()).Msg("Failed to render plot")
			w.failedPlots[key] = struct{}{}
		}
	}

	return work, nil
}
