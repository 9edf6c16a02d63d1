package benstream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"
)

// IndexOptions configures chunk index construction.
type IndexOptions struct {
	// Stride indexes every stride-th record boundary. 1 (the default) indexes
	// every record; larger strides trade seek precision for index size on
	// ensembles with hundreds of millions of records. Seeks remain exact:
	// the cursor decodes forward from the nearest indexed boundary.
	Stride int

	// Logger receives a summary log once the build completes.
	Logger *Logger

	// Metrics receives index build metrics.
	Metrics MetricsCollector

	// BufferSize is the scan buffer size in bytes.
	BufferSize int
}

func applyIndexOptions(optFns []func(*IndexOptions)) IndexOptions {
	opts := IndexOptions{
		Stride:     1,
		Logger:     NoopLogger(),
		Metrics:    NoopMetricsCollector{},
		BufferSize: defaultBufferSize,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Stride <= 0 {
		opts.Stride = 1
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	return opts
}

// ChunkIndex maps logical step offsets to byte offsets in an immutable,
// already-closed stream. It is built once by a single linear scan and is
// read-only afterwards, so any number of cursors may share it concurrently.
//
// The index is not part of the on-disk format.
type ChunkIndex struct {
	hdr    Header
	stride uint64

	// starts holds the expanded start step of every indexed record boundary.
	// Boundaries are located by rank/select: the boundary governing step k is
	// the greatest indexed start not exceeding k.
	starts  *roaring64.Bitmap
	offsets []int64 // byte offset per indexed boundary, same ordering

	totalSteps   uint64
	totalRecords uint64
	endOffset    int64
}

// countingReader counts bytes consumed through ReadByte, so record boundaries
// can be mapped to byte offsets during the index scan.
type countingReader struct {
	br *bufio.Reader
	n  int64
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.br.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// BuildChunkIndex scans a stream once, front to back, recording the
// cumulative expanded step count and byte offset of record boundaries.
// The scan validates every record; a corrupt or truncated stream fails the
// build rather than producing an index with undefined holes.
func BuildChunkIndex(r io.Reader, optFns ...func(*IndexOptions)) (*ChunkIndex, error) {
	opts := applyIndexOptions(optFns)
	start := time.Now()

	ix, err := buildChunkIndex(r, opts)
	if err != nil {
		opts.Metrics.RecordIndexBuild(0, 0, time.Since(start), err)
		opts.Logger.LogIndexBuild(0, 0, 0, err)
		return nil, err
	}

	opts.Metrics.RecordIndexBuild(ix.totalSteps, ix.totalRecords, time.Since(start), nil)
	opts.Logger.WithStream(ix.hdr).LogIndexBuild(ix.totalSteps, ix.totalRecords, len(ix.offsets), nil)
	return ix, nil
}

func buildChunkIndex(r io.Reader, opts IndexOptions) (*ChunkIndex, error) {
	br := bufio.NewReaderSize(r, opts.BufferSize)
	hdr, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	ix := &ChunkIndex{
		hdr:    hdr,
		stride: uint64(opts.Stride),
		starts: roaring64.New(),
	}

	cr := &countingReader{br: br, n: headerLen}
	var step, rec uint64
	for {
		offset := cr.n
		mult, err := skipRecord(cr, hdr.Mode, hdr.UnitCount, rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if rec%ix.stride == 0 {
			ix.starts.Add(step)
			ix.offsets = append(ix.offsets, offset)
		}
		step += mult
		rec++
	}

	ix.totalSteps = step
	ix.totalRecords = rec
	ix.endOffset = cr.n
	return ix, nil
}

// Header returns the header of the indexed stream.
func (ix *ChunkIndex) Header() Header { return ix.hdr }

// StepCount returns the total number of expanded steps in the stream.
func (ix *ChunkIndex) StepCount() uint64 { return ix.totalSteps }

// RecordCount returns the number of stored records in the stream.
func (ix *ChunkIndex) RecordCount() uint64 { return ix.totalRecords }

// locate returns the indexed boundary governing step k: its start step, byte
// offset, and record ordinal.
func (ix *ChunkIndex) locate(k uint64) (startStep uint64, offset int64, record uint64, err error) {
	rank := ix.starts.Rank(k)
	if rank == 0 {
		// Step 0 is always indexed, so rank 0 means an empty stream.
		return 0, 0, 0, fmt.Errorf("%w: step %d in empty stream", ErrOutOfRange, k)
	}

	startStep, err = ix.starts.Select(rank - 1)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("chunk index select failed: %w", err)
	}
	return startStep, ix.offsets[rank-1], (rank - 1) * ix.stride, nil
}

// Cursor is a restartable read position over an indexed stream. Each cursor
// owns its read state; independent cursors over the same io.ReaderAt may run
// on separate goroutines with no locking.
type Cursor struct {
	ix   *ChunkIndex
	ra   io.ReaderAt
	opts Options

	dec      *Decoder
	nextStep uint64
}

// NewCursor creates a cursor over the indexed stream's bytes. ra must expose
// the same immutable bytes the index was built from, header included.
// The cursor starts positioned at step 0.
func (ix *ChunkIndex) NewCursor(ra io.ReaderAt, optFns ...func(*Options)) *Cursor {
	return &Cursor{
		ix:   ix,
		ra:   ra,
		opts: applyOptions(optFns),
	}
}

// SeekToStep positions the cursor so that the next call to Next yields
// logical step k. Seeking to StepCount() positions the cursor at the clean
// end of the stream. It fails with ErrOutOfRange if k is larger than that;
// the failure is local and does not invalidate the cursor.
func (c *Cursor) SeekToStep(k uint64) error {
	start := time.Now()
	err := c.seekToStep(k)
	c.opts.Metrics.RecordSeek(time.Since(start), err)
	return err
}

func (c *Cursor) seekToStep(k uint64) error {
	if k > c.ix.totalSteps {
		return fmt.Errorf("%w: step %d, stream has %d", ErrOutOfRange, k, c.ix.totalSteps)
	}

	if k == c.ix.totalSteps {
		// Position at the clean end: a zero-length section yields io.EOF on
		// the next record read.
		c.dec = resumeDecoder(io.NewSectionReader(c.ra, c.ix.endOffset, 0), c.ix.hdr, c.opts)
		c.dec.records = c.ix.totalRecords
		c.nextStep = k
		return nil
	}

	startStep, offset, record, err := c.ix.locate(k)
	if err != nil {
		return err
	}

	sec := io.NewSectionReader(c.ra, offset, c.ix.endOffset-offset)
	dec := resumeDecoder(sec, c.ix.hdr, c.opts)
	dec.records = record
	if err := dec.skipSteps(k - startStep); err != nil {
		return err
	}

	c.dec = dec
	c.nextStep = k
	return nil
}

// Next returns the next expanded assignment vector. See Decoder.Next.
func (c *Cursor) Next() ([]uint64, error) {
	if c.dec == nil {
		if err := c.SeekToStep(0); err != nil {
			return nil, err
		}
	}
	assignment, err := c.dec.Next()
	if err == nil {
		c.nextStep++
	}
	return assignment, err
}

// NextCompact returns the next stored record. See Decoder.NextCompact.
func (c *Cursor) NextCompact() (Record, error) {
	if c.dec == nil {
		if err := c.SeekToStep(0); err != nil {
			return Record{}, err
		}
	}
	rec, err := c.dec.NextCompact()
	if err == nil {
		c.nextStep += rec.Multiplicity
	}
	return rec, err
}

// Step returns the logical step the next call to Next would yield.
func (c *Cursor) Step() uint64 { return c.nextStep }

// ScanRange decodes expanded steps [a, b), invoking fn with each absolute
// step ordinal and assignment vector. The sub-sequence is identical to what
// decoding from the start and discarding the first a steps would produce.
func (ix *ChunkIndex) ScanRange(ctx context.Context, ra io.ReaderAt, a, b uint64, fn func(step uint64, assignment []uint64) error) error {
	if a > b || b > ix.totalSteps {
		return fmt.Errorf("%w: range [%d, %d) over %d steps", ErrOutOfRange, a, b, ix.totalSteps)
	}

	cur := ix.NewCursor(ra)
	if err := cur.SeekToStep(a); err != nil {
		return err
	}

	for step := a; step < b; step++ {
		if step%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		assignment, err := cur.Next()
		if err != nil {
			return err
		}
		if err := fn(step, assignment); err != nil {
			return err
		}
	}
	return nil
}

// ParallelScan decodes the whole stream using the given number of workers,
// each scanning a disjoint contiguous step range with its own cursor. fn is
// invoked concurrently and must be safe for concurrent use; steps arrive in
// order within a range but ranges interleave arbitrarily.
func (ix *ChunkIndex) ParallelScan(ctx context.Context, ra io.ReaderAt, workers int, fn func(step uint64, assignment []uint64) error) error {
	if workers <= 0 {
		workers = 1
	}
	if uint64(workers) > ix.totalSteps {
		workers = int(ix.totalSteps)
	}
	if workers == 0 {
		return nil // empty stream
	}

	g, ctx := errgroup.WithContext(ctx)

	span := ix.totalSteps / uint64(workers)
	rem := ix.totalSteps % uint64(workers)

	var a uint64
	for i := 0; i < workers; i++ {
		b := a + span
		if uint64(i) < rem {
			b++
		}
		lo, hi := a, b
		g.Go(func() error {
			return ix.ScanRange(ctx, ra, lo, hi, fn)
		})
		a = b
	}

	return g.Wait()
}
