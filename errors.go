package benstream

import (
	"errors"
	"fmt"

	"github.com/districtlab/benstream/rle"
)

var (
	// ErrInvalidConfig is returned when a stream is opened with an invalid
	// configuration, such as a zero unit count. It is rejected at open time
	// and never partially applied.
	ErrInvalidConfig = errors.New("benstream: invalid configuration")

	// ErrFormat is returned when the stream cannot be interpreted at all:
	// unrecognized magic, unsupported version, or an invalid multiplicity.
	// The stream is unusable from that point on.
	ErrFormat = errors.New("benstream: invalid stream format")

	// ErrInvalidMagic reports a stream whose magic tag is not "BENS".
	ErrInvalidMagic = fmt.Errorf("%w: invalid magic", ErrFormat)

	// ErrInvalidVersion reports an unsupported format version.
	ErrInvalidVersion = fmt.Errorf("%w: unsupported version", ErrFormat)

	// ErrZeroMultiplicity reports a chain-mode record with multiplicity zero.
	// A record always represents at least one occurrence.
	ErrZeroMultiplicity = fmt.Errorf("%w: record multiplicity is zero", ErrFormat)

	// ErrCorruptRecord is returned when a single record is unrecoverable:
	// run lengths that do not sum to the unit count, or a zero-length run.
	// The decoder never guesses a repair and never skips the record.
	ErrCorruptRecord = errors.New("benstream: corrupt record")

	// ErrUnexpectedEOF is returned when the source is exhausted in the middle
	// of a record. A clean end of stream occurs only at a record boundary and
	// is reported as io.EOF instead, so callers can tell "ensemble ended" from
	// "ensemble file is truncated".
	ErrUnexpectedEOF = errors.New("benstream: unexpected end of stream")

	// ErrOutOfRange is returned by seeks past the known step count. It is
	// local to the seek and does not invalidate the cursor.
	ErrOutOfRange = errors.New("benstream: step out of range")

	// ErrClosed is returned on writes after Close.
	ErrClosed = errors.New("benstream: stream closed")
)

// corruptRecord tags a record-level decode failure with the record ordinal.
func corruptRecord(record uint64, err error) error {
	if errors.Is(err, rle.ErrZeroRun) || errors.Is(err, rle.ErrLengthSum) {
		return fmt.Errorf("%w: record %d: %w", ErrCorruptRecord, record, err)
	}
	return fmt.Errorf("record %d: %w", record, err)
}
