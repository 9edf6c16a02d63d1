// Package xben wraps an already-encoded ensemble stream in a self-describing
// compressed container. Run-length coding leaves byte-level redundancy on the
// table (label and length varints repeat heavily across records); a
// dictionary coder on top routinely shrinks large ensembles severalfold.
//
// The container is opaque to the core codec: it receives the complete encoded
// byte stream and produces bytes, nothing more. Layout: magic "XBN0", version,
// one compression id byte, then the compressed payload.
package xben

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the coding applied to the payload.
type Compression uint8

const (
	// Zstd selects zstandard stream compression (better ratio, default).
	Zstd Compression = 1
	// LZ4 selects LZ4 frame compression (faster, lighter ratio).
	LZ4 Compression = 2
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

const (
	version   = 1
	headerLen = 6
)

var containerMagic = [4]byte{'X', 'B', 'N', '0'}

var (
	// ErrInvalidMagic reports a container whose magic tag is unrecognized.
	ErrInvalidMagic = errors.New("xben: invalid container magic")

	// ErrInvalidVersion reports an unsupported container version.
	ErrInvalidVersion = errors.New("xben: unsupported container version")

	// ErrUnknownCompression reports an unknown compression id.
	ErrUnknownCompression = errors.New("xben: unknown compression")
)

// Writer compresses a byte stream into a container. Close must be called to
// flush the coder's final frame; it does not close the underlying writer.
type Writer struct {
	wc io.WriteCloser
}

// NewWriter writes the container header to w and returns a Writer that
// compresses everything written to it with the chosen coding.
func NewWriter(w io.Writer, compression Compression) (*Writer, error) {
	var buf [headerLen]byte
	copy(buf[0:4], containerMagic[:])
	buf[4] = version
	buf[5] = byte(compression)

	switch compression {
	case Zstd, LZ4:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, compression)
	}

	if _, err := w.Write(buf[:]); err != nil {
		return nil, fmt.Errorf("failed to write container header: %w", err)
	}

	switch compression {
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return &Writer{wc: zw}, nil
	case LZ4:
		return &Writer{wc: lz4.NewWriter(w)}, nil
	default:
		panic("unreachable")
	}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.wc.Write(p)
}

// Close flushes and finalizes the compressed stream.
func (w *Writer) Close() error {
	return w.wc.Close()
}

// Reader decompresses a container produced by Writer.
type Reader struct {
	rc          io.ReadCloser
	compression Compression
}

// NewReader validates the container header of r and returns a Reader that
// yields the original uncompressed bytes.
func NewReader(r io.Reader) (*Reader, error) {
	var buf [headerLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: container shorter than header", ErrInvalidMagic)
		}
		return nil, fmt.Errorf("failed to read container header: %w", err)
	}

	if [4]byte(buf[0:4]) != containerMagic {
		return nil, ErrInvalidMagic
	}
	if buf[4] != version {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, buf[4])
	}

	compression := Compression(buf[5])
	switch compression {
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return &Reader{rc: zr.IOReadCloser(), compression: compression}, nil
	case LZ4:
		return &Reader{rc: io.NopCloser(lz4.NewReader(r)), compression: compression}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, buf[5])
	}
}

// Compression returns the coding declared by the container header.
func (r *Reader) Compression() Compression {
	return r.compression
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	return r.rc.Read(p)
}

// Close releases decompression resources. It does not close the source.
func (r *Reader) Close() error {
	return r.rc.Close()
}

// Compress copies src into a compressed container written to dst.
func Compress(dst io.Writer, src io.Reader, compression Compression) error {
	w, err := NewWriter(dst, compression)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

// Decompress copies the decompressed payload of the container in src to dst.
func Decompress(dst io.Writer, src io.Reader) error {
	r, err := NewReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	_, err = io.Copy(dst, r)
	return err
}
