package benstream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// jsonlStep is the interchange line format used by samplers:
// one JSON object per line with a 1-based sample number.
type jsonlStep struct {
	Assignment []uint64 `json:"assignment"`
	Sample     uint64   `json:"sample"`
}

// maxJSONLLine bounds a single JSONL line. Assignment vectors for statewide
// plans run to a few hundred thousand units, well under this.
const maxJSONLLine = 64 * 1024 * 1024

// EncodeJSONL reads newline-delimited {"assignment": [...], "sample": N}
// objects from r and appends each assignment to enc in input order. The
// encoder is not closed, so a caller can append further steps afterwards.
func EncodeJSONL(r io.Reader, enc *Encoder) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxJSONLLine)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var step jsonlStep
		if err := json.Unmarshal(raw, &step); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := enc.WriteAssignment(step.Assignment); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return scanner.Err()
}

// DecodeJSONL writes every remaining expanded step of dec to w as
// newline-delimited JSON, one object per original step with 1-based sample
// numbers. Chain-mode streams are expanded, so the output reproduces the
// sampler's original step sequence.
func DecodeJSONL(dec *Decoder, w io.Writer) error {
	bw := bufio.NewWriter(w)

	err := dec.ForEach(func(step uint64, assignment []uint64) error {
		raw, err := json.Marshal(jsonlStep{Assignment: assignment, Sample: step + 1})
		if err != nil {
			return err
		}
		if _, err := bw.Write(raw); err != nil {
			return err
		}
		return bw.WriteByte('\n')
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}
