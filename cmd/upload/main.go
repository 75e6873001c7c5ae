// Command upload copies a local recording session into the project inbox.
//
//	upload --root /data/outbox O09/O09_20240301
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/RMahshie/ephyspipe/internal/config"
	"github.com/RMahshie/ephyspipe/internal/logging"
	"github.com/RMahshie/ephyspipe/internal/storage"
)

func main() {
	flags := pflag.NewFlagSet("upload", pflag.ExitOnError)
	root := flags.String("root", "", "local directory the session path is relative to")
	flags.String("project", "", "project name, overrides PROJECT_NAME")
	flags.String("bucket", "", "target bucket, overrides S3_BUCKET")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: upload --root DIR [flags] SESSION_PATH\n")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() != 1 || *root == "" {
		flags.Usage()
		os.Exit(2)
	}

	v := config.New()
	if flags.Changed("project") {
		_ = v.BindPFlag("PROJECT_NAME", flags.Lookup("project"))
	}
	if flags.Changed("bucket") {
		_ = v.BindPFlag("S3_BUCKET", flags.Lookup("bucket"))
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.Server.Env)

	s3Service, err := storage.NewS3Service(storage.S3Config{
		Bucket:    cfg.AWS.S3Bucket,
		Endpoint:  cfg.AWS.S3Endpoint,
		Region:    cfg.AWS.Region,
		AccessKey: cfg.AWS.AccessKeyID,
		SecretKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create S3 service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	keys, err := storage.UploadSessionDir(ctx, s3Service, *root, flags.Arg(0), cfg.Ephys.ProjectName)
	if err != nil {
		log.Fatal().Err(err).Int("uploaded", len(keys)).Msg("Upload failed")
	}
	for _, k := range keys {
		fmt.Println(k)
	}
}
