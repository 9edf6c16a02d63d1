package benstream

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Version is the current stream format version.
	Version = uint16(1)

	// headerLen is the fixed size of the stream header in bytes.
	headerLen = 16

	flagChain = uint16(1)
)

// streamMagic identifies a benstream ensemble file (ASCII "BENS").
var streamMagic = [4]byte{'B', 'E', 'N', 'S'}

// Mode selects how records are laid out in the stream body.
type Mode uint8

const (
	// ModeStandard stores one record per step, duplicates included.
	ModeStandard Mode = iota

	// ModeChain collapses runs of identical consecutive steps into a single
	// record carrying a multiplicity. This is the primary size lever for
	// rejective chains, where a rejected proposal repeats the previous state
	// byte for byte.
	ModeChain
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeChain:
		return "chain"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Header describes an ensemble stream. It is written once at stream-open time
// and immutable thereafter.
//
// Layout (little-endian): magic [4]byte, version uint16, flags uint16
// (bit 0: chain mode), unit count uint64.
type Header struct {
	Version   uint16
	Mode      Mode
	UnitCount uint64
}

func writeHeader(w io.Writer, hdr Header) error {
	var buf [headerLen]byte
	copy(buf[0:4], streamMagic[:])
	binary.LittleEndian.PutUint16(buf[4:6], hdr.Version)

	var flags uint16
	if hdr.Mode == ModeChain {
		flags |= flagChain
	}
	binary.LittleEndian.PutUint16(buf[6:8], flags)
	binary.LittleEndian.PutUint64(buf[8:16], hdr.UnitCount)

	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("failed to write stream header: %w", err)
	}
	return nil
}

func readHeader(r io.Reader) (Header, error) {
	var buf [headerLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Header{}, fmt.Errorf("%w: stream shorter than header", ErrUnexpectedEOF)
		}
		return Header{}, fmt.Errorf("failed to read stream header: %w", err)
	}

	if [4]byte(buf[0:4]) != streamMagic {
		return Header{}, ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint16(buf[4:6])
	if version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}

	flags := binary.LittleEndian.Uint16(buf[6:8])
	if unknown := flags &^ flagChain; unknown != 0 {
		// Version 1 defines only the chain bit. Rejecting the rest keeps
		// future flag bits usable without a version bump.
		return Header{}, fmt.Errorf("%w: unknown flag bits %#04x", ErrFormat, unknown)
	}
	mode := ModeStandard
	if flags&flagChain != 0 {
		mode = ModeChain
	}

	unitCount := binary.LittleEndian.Uint64(buf[8:16])
	if unitCount == 0 {
		return Header{}, fmt.Errorf("%w: header declares zero units", ErrCorruptRecord)
	}

	return Header{Version: version, Mode: mode, UnitCount: unitCount}, nil
}
