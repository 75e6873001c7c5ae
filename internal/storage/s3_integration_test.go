package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	miniogo "github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

// startMinio runs a MinIO container with a fresh bucket
func startMinio(t *testing.T) S3Config {
	t.Helper()
	ctx := context.Background()

	container, err := minio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		minio.WithUsername("minioadmin"),
		minio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	bucket := "ephys-test-" + uuid.New().String()[:8]
	client, err := miniogo.New(endpoint, &miniogo.Options{
		Creds:  miniocreds.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)
	require.NoError(t, client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}))

	return S3Config{
		Bucket:    bucket,
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}
}

func TestS3Service_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc, err := NewS3Service(startMinio(t))
	require.NoError(t, err)
	ctx := context.Background()

	key := "utah/inbox/O09/O09_240301_120000.rhs"
	require.NoError(t, svc.UploadFile(ctx, key, bytes.NewReader([]byte("payload")), ""))

	objects, err := svc.ListFiles(ctx, "utah/inbox/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, key, objects[0].Key)
	assert.Equal(t, int64(7), objects[0].Size)

	data, err := svc.DownloadFile(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	url, err := svc.GenerateDownloadURL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, key)

	require.NoError(t, svc.DeleteFile(ctx, key))
	objects, err = svc.ListFiles(ctx, "utah/inbox/")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestNewS3Service_RequiresBucket(t *testing.T) {
	_, err := NewS3Service(S3Config{})
	assert.Error(t, err)
}
