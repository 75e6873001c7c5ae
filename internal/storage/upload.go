package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// UploadSessionDir uploads every file below localRoot/relPath to
// <project>/inbox/<relPath>/, keeping the directory structure. It returns the
// keys written in walk order. When an upload fails, the keys already written
// are removed so a half-uploaded session never reaches the inbox scan.
func UploadSessionDir(ctx context.Context, svc S3Service, localRoot, relPath, project string) ([]string, error) {
	src := filepath.Join(localRoot, relPath)
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("session directory %s: %w", src, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("session path %s is not a directory", src)
	}

	prefix := path.Join(project, "inbox", filepath.ToSlash(relPath))

	var keys []string
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		key := path.Join(prefix, filepath.ToSlash(rel))

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := svc.UploadFile(ctx, key, f, ContentTypeForKey(key)); err != nil {
			return err
		}
		log.Debug().Str("key", key).Msg("Uploaded file")
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		rollback(svc, keys)
		return nil, err
	}

	log.Info().Str("source", src).Str("prefix", prefix).Int("files", len(keys)).Msg("Session uploaded")
	return keys, nil
}

func rollback(svc S3Service, keys []string) {
	ctx := context.Background()
	for _, key := range keys {
		if err := svc.DeleteFile(ctx, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to remove partially uploaded file")
		}
	}
}
