package minio

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/districtlab/benstream"
	"github.com/districtlab/benstream/blobstore"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-benstream"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	prefix := fmt.Sprintf("test-%d/", time.Now().UnixNano())
	store := NewStore(client, bucket, prefix)

	t.Run("RoundTrip", func(t *testing.T) {
		w, err := store.Create(ctx, "run.ben")
		require.NoError(t, err)

		enc, err := benstream.NewEncoder(w, 6, benstream.ModeChain)
		require.NoError(t, err)
		require.NoError(t, enc.WriteRepeated([]uint64{1, 1, 2, 2, 3, 3}, 5))
		require.NoError(t, enc.WriteAssignment([]uint64{1, 2, 2, 2, 3, 3}))
		require.NoError(t, enc.Close())
		require.NoError(t, w.Close())

		blob, err := store.Open(ctx, "run.ben")
		require.NoError(t, err)
		defer blob.Close()

		dec, err := benstream.NewDecoder(blobstore.SectionReader(blob))
		require.NoError(t, err)

		var steps int
		require.NoError(t, dec.ForEach(func(step uint64, assignment []uint64) error {
			steps++
			return nil
		}))
		assert.Equal(t, 6, steps)
	})

	t.Run("List", func(t *testing.T) {
		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, names, "run.ben")
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "missing.ben")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("PutDelete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "small.bin", bytes.Repeat([]byte{0xAB}, 128)))

		blob, err := store.Open(ctx, "small.bin")
		require.NoError(t, err)
		assert.Equal(t, int64(128), blob.Size())
		require.NoError(t, blob.Close())

		require.NoError(t, store.Delete(ctx, "small.bin"))
		_, err = store.Open(ctx, "small.bin")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
