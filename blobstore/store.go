package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when an ensemble blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction over where closed ensemble streams live:
// local disk, memory, or object storage. Implementations must be safe for
// concurrent use.
type BlobStore interface {
	// Open opens an existing blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates a blob for streaming writes. The blob becomes visible
	// to readers only after a successful Close.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob atomically from a complete byte slice.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all blob names under the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to an immutable ensemble stream. The io.ReaderAt
// surface is what chunk-index cursors need: independent readers over disjoint
// byte ranges with no shared position.
type Blob interface {
	io.ReaderAt
	io.Closer

	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a write-once streaming handle. An encoder appends records
// to it front to back; Close finalizes the blob, Abort discards it.
type WritableBlob interface {
	io.Writer
	io.Closer

	// Abort discards everything written so far. After Abort, the blob does
	// not exist. Abort after Close is a no-op.
	Abort() error
}

// SectionReader adapts a Blob to an io.Reader over its full contents,
// suitable for NewDecoder and BuildChunkIndex.
func SectionReader(b Blob) *io.SectionReader {
	return io.NewSectionReader(b, 0, b.Size())
}
