// Package blobstore provides storage abstraction for immutable ensemble
// streams.
//
// BlobStore is the interface for reading and writing encoded ensembles.
// Implementations must be safe for concurrent use.
//
// # Built-in implementations
//
//   - LocalStore: local filesystem with memory-mapped reads
//   - MemoryStore: in-memory store for tests
//   - minio.Store: MinIO and S3-compatible object storage
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//
// # Usage with the codec
//
//	blob, err := store.Open(ctx, "runs/pa-house-2m.ben")
//	ix, err := benstream.BuildChunkIndex(blobstore.SectionReader(blob))
//	err = ix.ParallelScan(ctx, blob, 8, fn)
//
// Blobs are io.ReaderAt, so any number of cursors can decode disjoint step
// ranges of one blob concurrently.
package blobstore
