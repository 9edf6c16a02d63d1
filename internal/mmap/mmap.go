// Package mmap provides read-only memory-mapped file access.
//
// Ensemble files routinely run to gigabytes; mapping them gives cursors
// zero-copy random access without pulling the whole stream through a buffer.
package mmap

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
)

// ErrClosed is returned when accessing a closed mapping.
var ErrClosed = errors.New("mmap: mapping closed")

// Mapping is a read-only memory mapping of a file. It owns the mapped bytes
// and is responsible for unmapping them on Close.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path read-only. Empty files map to an empty,
// valid Mapping.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is caller-provided by design
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	size := st.Size()
	if size == 0 {
		return &Mapping{}, nil
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", path, err)
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Bytes returns the mapped file contents. The slice is valid until Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the mapped length in bytes.
func (m *Mapping) Size() int64 {
	if m.closed.Load() {
		return 0
	}
	return int64(len(m.data))
}

// Close unmaps the file. Subsequent access to previously returned slices is
// undefined. Close is idempotent.
func (m *Mapping) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if m.unmap == nil {
		return nil
	}
	data := m.data
	m.data = nil
	return m.unmap(data)
}
