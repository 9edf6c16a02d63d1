package benstream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/districtlab/benstream/rle"
)

// Record is one decoded ensemble record: an assignment vector plus the number
// of consecutive original steps it represents. In standard mode Multiplicity
// is always 1.
type Record struct {
	Multiplicity uint64
	Assignment   []uint64
}

// appendPayload appends the vector payload of a record: the run count followed
// by (label, length) pairs, all as continuation-bit uvarints.
func appendPayload(dst []byte, runs []rle.Run) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(runs)))
	for _, r := range runs {
		dst = binary.AppendUvarint(dst, r.Label)
		dst = binary.AppendUvarint(dst, r.Length)
	}
	return dst
}

// readUvarint reads one uvarint, mapping any end-of-source condition to
// ErrUnexpectedEOF. It is used for every varint except the first of a record.
func readUvarint(br io.ByteReader) (uint64, error) {
	v, err := binary.ReadUvarint(br)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return 0, ErrUnexpectedEOF
	}
	return v, err
}

// readRecordHead reads the leading varint(s) of a record: the multiplicity in
// chain mode, and the run count in either mode.
//
// A clean end of stream (EOF before the first byte of a record) is reported
// as io.EOF. EOF anywhere inside the record is ErrUnexpectedEOF.
func readRecordHead(br io.ByteReader, mode Mode, n uint64, record uint64) (multiplicity, runCount uint64, err error) {
	first, err := binary.ReadUvarint(br)
	if err == io.EOF {
		return 0, 0, io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		return 0, 0, corruptRecord(record, ErrUnexpectedEOF)
	}
	if err != nil {
		return 0, 0, corruptRecord(record, err)
	}

	multiplicity = 1
	if mode == ModeChain {
		if first == 0 {
			return 0, 0, corruptRecord(record, ErrZeroMultiplicity)
		}
		multiplicity = first
		runCount, err = readUvarint(br)
		if err != nil {
			return 0, 0, corruptRecord(record, err)
		}
	} else {
		runCount = first
	}

	if runCount > n {
		// More runs than units cannot sum to n without a zero-length run.
		return 0, 0, fmt.Errorf("%w: record %d: %d runs for %d units", ErrCorruptRecord, record, runCount, n)
	}
	return multiplicity, runCount, nil
}

// readRecordRuns decodes one full record from br, validating the run-length
// invariants (no zero-length run, lengths sum to n) without expanding the
// vector. mode governs whether a multiplicity prefix is present; n is the
// declared unit count; record is the ordinal used in error messages.
func readRecordRuns(br io.ByteReader, mode Mode, n uint64, record uint64) (multiplicity uint64, runs []rle.Run, err error) {
	multiplicity, runCount, err := readRecordHead(br, mode, n, record)
	if err != nil {
		return 0, nil, err
	}

	runs = make([]rle.Run, runCount)
	var total uint64
	for i := range runs {
		if runs[i].Label, err = readUvarint(br); err != nil {
			return 0, nil, corruptRecord(record, err)
		}
		if runs[i].Length, err = readUvarint(br); err != nil {
			return 0, nil, corruptRecord(record, err)
		}
		if runs[i].Length == 0 {
			return 0, nil, corruptRecord(record, rle.ErrZeroRun)
		}
		// Incremental bound: guards against uint64 wraparound summing back
		// to n.
		if runs[i].Length > n-total {
			return 0, nil, corruptRecord(record, fmt.Errorf("%w: runs exceed %d units", rle.ErrLengthSum, n))
		}
		total += runs[i].Length
	}
	if total != n {
		return 0, nil, corruptRecord(record, fmt.Errorf("%w: got %d, want %d", rle.ErrLengthSum, total, n))
	}
	return multiplicity, runs, nil
}

// skipRecord decodes a record but discards the runs, validating structure
// only. It returns the record's multiplicity. Used by index builds, where
// materializing every vector would defeat bounded-memory scanning.
func skipRecord(br io.ByteReader, mode Mode, n uint64, record uint64) (multiplicity uint64, err error) {
	multiplicity, runCount, err := readRecordHead(br, mode, n, record)
	if err != nil {
		return 0, err
	}

	var total uint64
	for i := uint64(0); i < runCount; i++ {
		if _, err = readUvarint(br); err != nil { // label
			return 0, corruptRecord(record, err)
		}
		length, err := readUvarint(br)
		if err != nil {
			return 0, corruptRecord(record, err)
		}
		if length == 0 {
			return 0, corruptRecord(record, rle.ErrZeroRun)
		}
		// Same wraparound guard as readRecordRuns.
		if length > n-total {
			return 0, corruptRecord(record, fmt.Errorf("%w: runs exceed %d units", rle.ErrLengthSum, n))
		}
		total += length
	}
	if total != n {
		return 0, corruptRecord(record, fmt.Errorf("%w: got %d, want %d", rle.ErrLengthSum, total, n))
	}
	return multiplicity, nil
}
