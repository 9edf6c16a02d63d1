package benstream

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/districtlab/benstream/rle"
)

// Encoder writes an ensemble stream: a header followed by records, appended
// strictly front to back. The encoder never rewinds or rewrites previously
// written bytes, so a producer does not need to know the total step count in
// advance and the sink can be a pipe or an object-store upload.
//
// In chain mode the encoder buffers one pending record and counts consecutive
// identical vectors into its multiplicity; the pending record reaches the sink
// only when a different vector arrives or on Close. Equality is decided on the
// encoded payload bytes, which for a fixed unit count is equivalent to exact
// element-wise vector equality.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	bw        *bufio.Writer
	mode      Mode
	unitCount uint64

	// pending chain-mode accumulator; nil when nothing is buffered
	pending     []byte
	pendingMult uint64

	scratch []byte
	closed  bool

	steps   uint64 // original steps accepted so far
	records uint64 // records written to the sink

	logger  *Logger
	metrics MetricsCollector
	limiter *rate.Limiter
}

// NewEncoder opens an ensemble stream over w and writes the format header.
// unitCount is the fixed number of graph units; it fails with ErrInvalidConfig
// if unitCount is not positive.
func NewEncoder(w io.Writer, unitCount int, mode Mode, optFns ...func(*Options)) (*Encoder, error) {
	if unitCount <= 0 {
		return nil, fmt.Errorf("%w: unit count must be positive, got %d", ErrInvalidConfig, unitCount)
	}
	if mode != ModeStandard && mode != ModeChain {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, mode)
	}

	opts := applyOptions(optFns)

	hdr := Header{Version: Version, Mode: mode, UnitCount: uint64(unitCount)}
	e := &Encoder{
		bw:        bufio.NewWriterSize(w, opts.BufferSize),
		mode:      mode,
		unitCount: uint64(unitCount),
		logger:    opts.Logger.WithStream(hdr),
		metrics:   opts.Metrics,
		limiter:   opts.progressLimiter(),
	}

	if err := writeHeader(e.bw, hdr); err != nil {
		return nil, err
	}
	return e, nil
}

// UnitCount returns the fixed vector length of the stream.
func (e *Encoder) UnitCount() int { return int(e.unitCount) }

// Mode returns the stream mode.
func (e *Encoder) Mode() Mode { return e.mode }

// Steps returns the number of original steps written so far.
func (e *Encoder) Steps() uint64 { return e.steps }

// WriteAssignment appends one sampled assignment vector (one original step).
func (e *Encoder) WriteAssignment(assignment []uint64) error {
	return e.WriteRepeated(assignment, 1)
}

// WriteRepeated appends an assignment vector repeated multiplicity times, for
// producers that already know how often the chain self-looped. In standard
// mode the record is written multiplicity times; in chain mode the repetition
// folds into the pending accumulator.
func (e *Encoder) WriteRepeated(assignment []uint64, multiplicity uint64) error {
	start := time.Now()
	err := e.writeRepeated(assignment, multiplicity)
	e.metrics.RecordWrite(time.Since(start), err)
	return err
}

func (e *Encoder) writeRepeated(assignment []uint64, multiplicity uint64) error {
	if e.closed {
		return ErrClosed
	}
	if uint64(len(assignment)) != e.unitCount {
		return fmt.Errorf("%w: vector has %d labels, stream declares %d units",
			ErrInvalidConfig, len(assignment), e.unitCount)
	}
	if multiplicity == 0 {
		return fmt.Errorf("%w: multiplicity must be at least 1", ErrInvalidConfig)
	}
	return e.writePayload(rle.FromAssignment(assignment), multiplicity)
}

// WriteRuns appends one step given as a pre-built run list. The runs must
// cover exactly the stream's unit count and contain no zero-length run.
// Adjacent runs sharing a label are merged before encoding.
func (e *Encoder) WriteRuns(runs []rle.Run) error {
	start := time.Now()
	err := e.writeRuns(runs)
	e.metrics.RecordWrite(time.Since(start), err)
	return err
}

func (e *Encoder) writeRuns(runs []rle.Run) error {
	if e.closed {
		return ErrClosed
	}
	var total uint64
	for _, r := range runs {
		if r.Length == 0 {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, rle.ErrZeroRun)
		}
		if r.Length > e.unitCount-total {
			return fmt.Errorf("%w: runs exceed %d units", ErrInvalidConfig, e.unitCount)
		}
		total += r.Length
	}
	if total != e.unitCount {
		return fmt.Errorf("%w: runs cover %d units, stream declares %d",
			ErrInvalidConfig, total, e.unitCount)
	}
	// Maximal form keeps the encoded payload canonical: the same vector
	// yields the same bytes whether it arrives as runs or as a full
	// assignment, which chain-mode collapsing depends on.
	return e.writePayload(rle.Normalize(runs), 1)
}

func (e *Encoder) writePayload(runs []rle.Run, multiplicity uint64) error {
	e.scratch = appendPayload(e.scratch[:0], runs)

	switch e.mode {
	case ModeStandard:
		for i := uint64(0); i < multiplicity; i++ {
			if _, err := e.bw.Write(e.scratch); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
			e.records++
		}
	case ModeChain:
		if e.pending != nil && bytes.Equal(e.scratch, e.pending) {
			e.pendingMult += multiplicity
		} else {
			if err := e.flushPending(); err != nil {
				return err
			}
			e.pending = append(e.pending[:0], e.scratch...)
			e.pendingMult = multiplicity
		}
	}

	e.steps += multiplicity
	if e.limiter != nil && e.limiter.Allow() {
		e.logger.LogEncodeProgress(e.steps, e.records)
	}
	return nil
}

// flushPending writes the buffered chain-mode record, if any.
func (e *Encoder) flushPending() error {
	if e.pending == nil {
		return nil
	}

	var mult [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(mult[:], e.pendingMult)
	if _, err := e.bw.Write(mult[:n]); err != nil {
		return fmt.Errorf("failed to write record multiplicity: %w", err)
	}
	if _, err := e.bw.Write(e.pending); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	e.pending = nil
	e.pendingMult = 0
	e.records++
	return nil
}

// Flush forces completed records through the internal buffer to the sink.
// A pending chain-mode record is not flushed: its multiplicity may still
// grow, and flushing it early would split a self-loop run across records.
func (e *Encoder) Flush() error {
	if e.closed {
		return ErrClosed
	}
	return e.bw.Flush()
}

// Close flushes any pending record and the internal buffer, then finalizes
// the stream. Subsequent writes fail with ErrClosed. Close does not close the
// underlying sink. Close is idempotent.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	err := e.flushPending()
	if err == nil {
		err = e.bw.Flush()
	}
	e.logger.LogClose(e.steps, e.records, err)
	return err
}
