package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/districtlab/benstream/internal/mmap"
)

// LocalStore implements BlobStore on the local filesystem. Reads are
// memory-mapped: ensemble decoding is sequential-with-seeks over immutable
// files, which mmap serves without double buffering.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory, creating
// it if necessary.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Create creates a blob for streaming writes. The data lands in a temporary
// file and is renamed into place on Close, so readers never observe a
// partially written ensemble.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{f: tmp, dst: path}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Abort()
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List returns all blob names under prefix, sorted, with /-separated paths.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("blobstore: invalid read offset %d", off)
	}
	data := b.m.Bytes()
	if off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *localBlob) Size() int64 {
	return b.m.Size()
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

type localWritableBlob struct {
	f    *os.File
	dst  string
	done bool
}

func (b *localWritableBlob) Write(p []byte) (int, error) {
	if b.done {
		return 0, io.ErrClosedPipe
	}
	return b.f.Write(p)
}

func (b *localWritableBlob) Close() error {
	if b.done {
		return nil
	}
	b.done = true

	if err := b.f.Sync(); err != nil {
		_ = b.f.Close()
		_ = os.Remove(b.f.Name())
		return err
	}
	if err := b.f.Close(); err != nil {
		_ = os.Remove(b.f.Name())
		return err
	}
	return os.Rename(b.f.Name(), b.dst)
}

func (b *localWritableBlob) Abort() error {
	if b.done {
		return nil
	}
	b.done = true
	_ = b.f.Close()
	return os.Remove(b.f.Name())
}
