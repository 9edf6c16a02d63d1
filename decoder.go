package benstream

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/districtlab/benstream/rle"
)

// Decoder reads an ensemble stream front to back and lazily produces its
// vectors. Decoding never mutates the source, so re-opening the same
// immutable stream always yields identical results; restarting means
// constructing a fresh Decoder, not rewinding this one.
//
// In chain mode, Next transparently repeats each decoded vector according to
// its multiplicity, so the emitted sequence reproduces the original
// step-by-step chain exactly regardless of mode. NextCompact exposes the
// stored records instead, one (vector, multiplicity) pair per record.
//
// Errors other than a clean io.EOF are sticky: once decoding fails, every
// subsequent call reports the same failure.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	br  *bufio.Reader
	hdr Header

	records uint64 // records decoded so far
	steps   uint64 // expanded steps emitted so far

	// expansion state for the current record
	current []uint64
	left    uint64 // expanded copies of current not yet emitted

	err error // sticky terminal error (includes io.EOF)

	logger  *Logger
	metrics MetricsCollector
	limiter *rate.Limiter
}

// NewDecoder opens an ensemble stream over r, reading and validating the
// header. It fails with an error wrapping ErrFormat if the magic tag or
// version is unrecognized, and with ErrCorruptRecord if the header declares
// zero units.
func NewDecoder(r io.Reader, optFns ...func(*Options)) (*Decoder, error) {
	opts := applyOptions(optFns)

	br := bufio.NewReaderSize(r, opts.BufferSize)
	hdr, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	return &Decoder{
		br:      br,
		hdr:     hdr,
		logger:  opts.Logger.WithStream(hdr),
		metrics: opts.Metrics,
		limiter: opts.progressLimiter(),
	}, nil
}

// resumeDecoder constructs a decoder mid-body, for cursors that position by
// byte offset. The header is taken as given and r must start exactly at a
// record boundary.
func resumeDecoder(r io.Reader, hdr Header, opts Options) *Decoder {
	return &Decoder{
		br:      bufio.NewReaderSize(r, opts.BufferSize),
		hdr:     hdr,
		logger:  opts.Logger.WithStream(hdr),
		metrics: opts.Metrics,
		limiter: opts.progressLimiter(),
	}
}

// Header returns the validated stream header.
func (d *Decoder) Header() Header { return d.hdr }

// UnitCount returns the fixed vector length of the stream.
func (d *Decoder) UnitCount() int { return int(d.hdr.UnitCount) }

// Mode returns the stream mode.
func (d *Decoder) Mode() Mode { return d.hdr.Mode }

// Next returns the next expanded assignment vector (one original step).
// It returns io.EOF at a clean end of stream and ErrUnexpectedEOF if the
// source is exhausted mid-record. The returned slice is owned by the caller.
func (d *Decoder) Next() ([]uint64, error) {
	start := time.Now()
	assignment, err := d.next()
	d.observeRead(start, err)
	return assignment, err
}

func (d *Decoder) next() ([]uint64, error) {
	if d.err != nil {
		return nil, d.err
	}

	if d.left == 0 {
		if err := d.advance(); err != nil {
			d.err = err
			return nil, err
		}
	}

	d.left--
	d.steps++

	out := make([]uint64, len(d.current))
	copy(out, d.current)
	return out, nil
}

// NextCompact returns the next stored record without expanding duplicates,
// for consumers computing multiplicity-weighted statistics. In standard mode
// every returned record has multiplicity 1, so the sequence is equivalent to
// Next with a fixed weight.
//
// If the current record was partially consumed by Next, NextCompact returns
// the remainder with its residual multiplicity.
func (d *Decoder) NextCompact() (Record, error) {
	start := time.Now()
	rec, err := d.nextCompact()
	d.observeRead(start, err)
	return rec, err
}

func (d *Decoder) nextCompact() (Record, error) {
	if d.err != nil {
		return Record{}, d.err
	}

	if d.left == 0 {
		if err := d.advance(); err != nil {
			d.err = err
			return Record{}, err
		}
	}

	rec := Record{Multiplicity: d.left}
	rec.Assignment = make([]uint64, len(d.current))
	copy(rec.Assignment, d.current)

	d.steps += d.left
	d.left = 0
	return rec, nil
}

// ForEach pulls every remaining expanded step, invoking fn with the logical
// step ordinal (0-based, relative to the first step this decoder emitted) and
// the assignment vector. It stops at a clean end of stream or on the first
// error, which is returned.
func (d *Decoder) ForEach(fn func(step uint64, assignment []uint64) error) error {
	for i := uint64(0); ; i++ {
		assignment, err := d.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(i, assignment); err != nil {
			return err
		}
	}
}

// advance decodes the next record into the expansion state.
func (d *Decoder) advance() error {
	mult, runs, err := readRecordRuns(d.br, d.hdr.Mode, d.hdr.UnitCount, d.records)
	if err != nil {
		return err
	}

	assignment, err := rle.Expand(runs, int(d.hdr.UnitCount))
	if err != nil {
		return fmt.Errorf("%w: record %d: %w", ErrCorruptRecord, d.records, err)
	}

	d.current = assignment
	d.left = mult
	d.records++
	return nil
}

// skipSteps discards n expanded steps without materializing them. Skipped
// records are validated but not expanded; only the record containing the
// target step is expanded. Used by cursor seeks.
func (d *Decoder) skipSteps(n uint64) error {
	if d.err != nil {
		return d.err
	}

	// Drain the partially consumed record first.
	if d.left > 0 {
		take := min(d.left, n)
		d.left -= take
		d.steps += take
		n -= take
	}

	for n > 0 {
		mult, runs, err := readRecordRuns(d.br, d.hdr.Mode, d.hdr.UnitCount, d.records)
		if err != nil {
			d.err = err
			return err
		}
		if mult > n {
			// The target step lands inside this record.
			assignment, err := rle.Expand(runs, int(d.hdr.UnitCount))
			if err != nil {
				d.err = fmt.Errorf("%w: record %d: %w", ErrCorruptRecord, d.records, err)
				return d.err
			}
			d.current = assignment
			d.left = mult - n
			d.records++
			d.steps += n
			break
		}
		d.records++
		d.steps += mult
		n -= mult
	}

	if d.limiter != nil && d.limiter.Allow() {
		d.logger.LogDecodeProgress(d.steps, d.records)
	}
	return nil
}

func (d *Decoder) observeRead(start time.Time, err error) {
	if err == io.EOF {
		err = nil // clean end, not a failure
	}
	d.metrics.RecordRead(time.Since(start), err)

	if err == nil && d.limiter != nil && d.limiter.Allow() {
		d.logger.LogDecodeProgress(d.steps, d.records)
	}
}
