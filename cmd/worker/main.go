package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/RMahshie/ephyspipe/internal/config"
	"github.com/RMahshie/ephyspipe/internal/database"
	"github.com/RMahshie/ephyspipe/internal/ingestion"
	"github.com/RMahshie/ephyspipe/internal/logging"
	"github.com/RMahshie/ephyspipe/internal/processing"
	"github.com/RMahshie/ephyspipe/internal/repository/sqlstore"
	"github.com/RMahshie/ephyspipe/internal/storage"
	"github.com/RMahshie/ephyspipe/internal/worker"
)

func main() {
	flags := pflag.NewFlagSet("worker", pflag.ExitOnError)
	flags.Int("max-idled-cycle", 3, "stop after this many idle cycles, negative runs forever")
	flags.Duration("poll-interval", 0, "sleep between cycles")
	ingestProbes := flags.Bool("ingest-probes", false, "load probe.yaml from EPHYS_ROOT_DATA_DIR before starting")
	_ = flags.Parse(os.Args[1:])

	v := config.New()
	if flags.Changed("max-idled-cycle") {
		_ = v.BindPFlag("WORKER_MAX_IDLED_CYCLE", flags.Lookup("max-idled-cycle"))
	}
	if flags.Changed("poll-interval") {
		_ = v.BindPFlag("WORKER_POLL_INTERVAL", flags.Lookup("poll-interval"))
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	store := sqlstore.New(db, cfg.Database.Driver)

	var s3Service storage.S3Service
	if cfg.AWS.S3Bucket != "" {
		s3Service, err = storage.NewS3Service(storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 service")
		}
	}
	ingest := ingestion.NewIngestionService(store, s3Service, cfg.Ephys.InboxPrefix(), cfg.Ephys.ProcessedDataDir)

	if *ingestProbes {
		if cfg.Ephys.RootDataDir == "" {
			log.Fatal().Msg("EPHYS_ROOT_DATA_DIR is required to ingest probes")
		}
		n, err := ingest.IngestProbes(ctx, filepath.Join(cfg.Ephys.RootDataDir, "probe.yaml"))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to ingest probes")
		}
		log.Info().Int("probes", n).Msg("Probes ingested")
	}

	w := worker.New(ingest, processing.NewSpectrogramService(store), cfg.Worker)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Worker failed")
	}
	log.Info().Msg("Worker exited")
}
