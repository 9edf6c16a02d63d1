// Package rle implements run-length coding of partition assignment vectors.
//
// Assignment vectors from districting-style samplers have strong spatial
// locality: adjacent units usually carry the same district label. A vector is
// therefore stored as maximal (label, length) runs. Runs are maximal by
// construction, meaning no two adjacent runs share a label, and the run
// lengths of a well-formed vector always sum to the vector length.
package rle

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroRun is returned when a run has length zero.
	ErrZeroRun = errors.New("rle: zero-length run")

	// ErrLengthSum is returned when run lengths do not sum to the expected
	// vector length.
	ErrLengthSum = errors.New("rle: run lengths do not sum to vector length")
)

// Run is a maximal contiguous span of a vector sharing one label.
type Run struct {
	Label  uint64
	Length uint64
}

// FromAssignment collapses an assignment vector into maximal runs.
// It is total: every input, including an empty one, encodes.
func FromAssignment(assignment []uint64) []Run {
	if len(assignment) == 0 {
		return nil
	}

	runs := make([]Run, 0, 16)
	cur := Run{Label: assignment[0], Length: 1}

	for _, label := range assignment[1:] {
		if label == cur.Label {
			cur.Length++
			continue
		}
		runs = append(runs, cur)
		cur = Run{Label: label, Length: 1}
	}

	return append(runs, cur)
}

// Expand materializes runs back into a length-n assignment vector.
//
// It fails with ErrZeroRun if any run has length zero and with ErrLengthSum
// if the lengths do not sum to exactly n. No partial vector is returned on
// error.
func Expand(runs []Run, n int) ([]uint64, error) {
	var total uint64
	for _, r := range runs {
		if r.Length == 0 {
			return nil, ErrZeroRun
		}
		// Subtraction form so the bound holds even when the plain sum would
		// wrap around uint64.
		if r.Length > uint64(n)-total {
			return nil, fmt.Errorf("%w: runs exceed %d units", ErrLengthSum, n)
		}
		total += r.Length
	}
	if total != uint64(n) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthSum, total, n)
	}

	assignment := make([]uint64, 0, n)
	for _, r := range runs {
		for i := uint64(0); i < r.Length; i++ {
			assignment = append(assignment, r.Label)
		}
	}
	return assignment, nil
}

// Normalize merges adjacent runs sharing a label, producing the maximal-run
// form FromAssignment emits. The input is not modified.
func Normalize(runs []Run) []Run {
	if len(runs) == 0 {
		return nil
	}

	out := make([]Run, 0, len(runs))
	cur := runs[0]
	for _, r := range runs[1:] {
		if r.Label == cur.Label {
			cur.Length += r.Length
			continue
		}
		out = append(out, cur)
		cur = r
	}
	return append(out, cur)
}

// Sum returns the total number of units covered by runs.
func Sum(runs []Run) uint64 {
	var total uint64
	for _, r := range runs {
		total += r.Length
	}
	return total
}

// Equal reports whether two run lists are element-wise identical.
func Equal(a, b []Run) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
