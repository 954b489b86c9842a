// Package lasio reads and writes uncompressed LAS point cloud files.
//
// The reader parses the public header block and variable length
// records, then deinterleaves the point data block into a columnar
// batch in the file's physical point format. The writer does the
// reverse, recomputing the header's structural fields (sizes, offsets,
// counts, bounds) from the data it is handed. Compressed (LAZ) point
// data is detected and refused, never decoded.
package lasio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/pointpack/internal/las"
)

const fileSignature = "LASF"

// Public header block sizes by minor version.
const (
	headerSize12 = 227 // LAS 1.0 - 1.2
	headerSize13 = 235 // LAS 1.3 adds the waveform data offset
	headerSize14 = 375 // LAS 1.4 adds EVLRs and 64-bit point counts
)

// Fixed offsets within the public header block.
const (
	offSourceID       = 4
	offGlobalEncoding = 6
	offProjectID      = 8
	offVersionMajor   = 24
	offVersionMinor   = 25
	offSystemID       = 26
	offSoftware       = 58
	offCreationDay    = 90
	offCreationYear   = 92
	offHeaderSize     = 94
	offPointOffset    = 96
	offVLRCount       = 100
	offPointFormat    = 104
	offRecordLength   = 105
	offLegacyCount    = 107
	offLegacyByReturn = 111
	offScale          = 131
	offOffset         = 155
	offBounds         = 179
	offWaveform       = 227
	offEVLROffset     = 235
	offEVLRCount      = 243
	offPointCount64   = 247
	offByReturn64     = 255
)

var (
	// ErrNotLAS reports a missing "LASF" signature.
	ErrNotLAS = errors.New("not a LAS file: bad signature")
	// ErrCompressed reports LAZ-compressed point data.
	ErrCompressed = errors.New("compressed point data (LAZ) is not supported")
	// ErrTruncated reports a file shorter than its header promises.
	ErrTruncated = errors.New("unexpected end of file")
)

// Header is the LAS public header block. String fields are NUL-trimmed
// on read and NUL-padded to their fixed width on write. PointCount and
// PointsByReturn are always the 64-bit values; on pre-1.4 files they
// are widened from the legacy 32-bit fields.
type Header struct {
	FileSourceID   uint16
	GlobalEncoding uint16
	ProjectID      [16]byte
	VersionMajor   uint8
	VersionMinor   uint8
	SystemID       string // 32 bytes on disk
	Software       string // 32 bytes on disk
	CreationDay    uint16
	CreationYear   uint16

	HeaderSize      uint16
	PointDataOffset uint32
	VLRCount        uint32

	PointFormatID  uint8
	RecordLength   uint16
	PointCount     uint64
	PointsByReturn [15]uint64

	Scale  [3]float64 // X, Y, Z scale factors
	Offset [3]float64 // X, Y, Z offsets
	Min    [3]float64 // actual (scaled) minimum X, Y, Z
	Max    [3]float64 // actual (scaled) maximum X, Y, Z

	WaveformOffset uint64 // 1.3+
	EVLROffset     uint64 // 1.4
	EVLRCount      uint32 // 1.4
}

// headerSizeFor returns the public header block size a version writes.
func headerSizeFor(minor uint8) (int, error) {
	switch {
	case minor <= 2:
		return headerSize12, nil
	case minor == 3:
		return headerSize13, nil
	case minor == 4:
		return headerSize14, nil
	}
	return 0, fmt.Errorf("unsupported LAS version 1.%d", minor)
}

// Format returns the compiled point format for the header's format id
// and record length. A record length above the catalog size becomes a
// trailing extra-bytes column; below it is an error.
func (h *Header) Format() (*las.PointFormat, error) {
	pf, err := las.Format(h.PointFormatID)
	if err != nil {
		return nil, err
	}
	extra := int(h.RecordLength) - pf.RecordSize()
	if extra < 0 {
		return nil, fmt.Errorf("record length %d is below the %d-byte minimum for point format %d",
			h.RecordLength, pf.RecordSize(), h.PointFormatID)
	}
	return las.FormatWithExtra(h.PointFormatID, extra)
}

// parseHeader decodes a full public header block. buf holds exactly
// HeaderSize bytes and the signature has already been checked.
func parseHeader(buf []byte) (Header, error) {
	var h Header
	h.FileSourceID = binary.LittleEndian.Uint16(buf[offSourceID:])
	h.GlobalEncoding = binary.LittleEndian.Uint16(buf[offGlobalEncoding:])
	copy(h.ProjectID[:], buf[offProjectID:offProjectID+16])
	h.VersionMajor = buf[offVersionMajor]
	h.VersionMinor = buf[offVersionMinor]
	if h.VersionMajor != 1 || h.VersionMinor > 4 {
		return h, fmt.Errorf("unsupported LAS version %d.%d", h.VersionMajor, h.VersionMinor)
	}
	h.SystemID = fixedString(buf[offSystemID : offSystemID+32])
	h.Software = fixedString(buf[offSoftware : offSoftware+32])
	h.CreationDay = binary.LittleEndian.Uint16(buf[offCreationDay:])
	h.CreationYear = binary.LittleEndian.Uint16(buf[offCreationYear:])
	h.HeaderSize = binary.LittleEndian.Uint16(buf[offHeaderSize:])
	h.PointDataOffset = binary.LittleEndian.Uint32(buf[offPointOffset:])
	h.VLRCount = binary.LittleEndian.Uint32(buf[offVLRCount:])

	rawFormat := buf[offPointFormat]
	if rawFormat&0xC0 != 0 {
		return h, ErrCompressed
	}
	h.PointFormatID = rawFormat
	h.RecordLength = binary.LittleEndian.Uint16(buf[offRecordLength:])

	legacyCount := binary.LittleEndian.Uint32(buf[offLegacyCount:])
	for i := 0; i < 3; i++ {
		h.Scale[i] = f64(buf[offScale+8*i:])
		h.Offset[i] = f64(buf[offOffset+8*i:])
		h.Max[i] = f64(buf[offBounds+16*i:])
		h.Min[i] = f64(buf[offBounds+16*i+8:])
	}
	if h.VersionMinor >= 3 {
		h.WaveformOffset = binary.LittleEndian.Uint64(buf[offWaveform:])
	}

	count64 := uint64(0)
	if h.VersionMinor >= 4 {
		h.EVLROffset = binary.LittleEndian.Uint64(buf[offEVLROffset:])
		h.EVLRCount = binary.LittleEndian.Uint32(buf[offEVLRCount:])
		count64 = binary.LittleEndian.Uint64(buf[offPointCount64:])
	}
	if count64 != 0 || (h.VersionMinor >= 4 && legacyCount == 0) {
		h.PointCount = count64
		for i := 0; i < 15; i++ {
			h.PointsByReturn[i] = binary.LittleEndian.Uint64(buf[offByReturn64+8*i:])
		}
	} else {
		// Pre-1.4 files, and 1.4 files written with legacy counts only.
		h.PointCount = uint64(legacyCount)
		for i := 0; i < 5; i++ {
			h.PointsByReturn[i] = uint64(binary.LittleEndian.Uint32(buf[offLegacyByReturn+4*i:]))
		}
	}
	return h, nil
}

// encodeHeader emits the public header block for h. The caller has
// already normalized the structural fields.
func encodeHeader(h *Header) ([]byte, error) {
	size, err := headerSizeFor(h.VersionMinor)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	copy(buf, fileSignature)
	binary.LittleEndian.PutUint16(buf[offSourceID:], h.FileSourceID)
	binary.LittleEndian.PutUint16(buf[offGlobalEncoding:], h.GlobalEncoding)
	copy(buf[offProjectID:], h.ProjectID[:])
	buf[offVersionMajor] = 1
	buf[offVersionMinor] = h.VersionMinor
	if err := putFixedString(buf[offSystemID:offSystemID+32], h.SystemID); err != nil {
		return nil, fmt.Errorf("system identifier: %w", err)
	}
	if err := putFixedString(buf[offSoftware:offSoftware+32], h.Software); err != nil {
		return nil, fmt.Errorf("generating software: %w", err)
	}
	binary.LittleEndian.PutUint16(buf[offCreationDay:], h.CreationDay)
	binary.LittleEndian.PutUint16(buf[offCreationYear:], h.CreationYear)
	binary.LittleEndian.PutUint16(buf[offHeaderSize:], h.HeaderSize)
	binary.LittleEndian.PutUint32(buf[offPointOffset:], h.PointDataOffset)
	binary.LittleEndian.PutUint32(buf[offVLRCount:], h.VLRCount)
	buf[offPointFormat] = h.PointFormatID
	binary.LittleEndian.PutUint16(buf[offRecordLength:], h.RecordLength)

	// Legacy 32-bit counts are written when they fit, zero otherwise.
	if h.PointCount <= math.MaxUint32 {
		binary.LittleEndian.PutUint32(buf[offLegacyCount:], uint32(h.PointCount))
		for i := 0; i < 5; i++ {
			if h.PointsByReturn[i] <= math.MaxUint32 {
				binary.LittleEndian.PutUint32(buf[offLegacyByReturn+4*i:], uint32(h.PointsByReturn[i]))
			}
		}
	}
	for i := 0; i < 3; i++ {
		putF64(buf[offScale+8*i:], h.Scale[i])
		putF64(buf[offOffset+8*i:], h.Offset[i])
		putF64(buf[offBounds+16*i:], h.Max[i])
		putF64(buf[offBounds+16*i+8:], h.Min[i])
	}
	if h.VersionMinor >= 3 {
		binary.LittleEndian.PutUint64(buf[offWaveform:], h.WaveformOffset)
	}
	if h.VersionMinor >= 4 {
		binary.LittleEndian.PutUint64(buf[offEVLROffset:], h.EVLROffset)
		binary.LittleEndian.PutUint32(buf[offEVLRCount:], h.EVLRCount)
		binary.LittleEndian.PutUint64(buf[offPointCount64:], h.PointCount)
		for i := 0; i < 15; i++ {
			binary.LittleEndian.PutUint64(buf[offByReturn64+8*i:], h.PointsByReturn[i])
		}
	}
	return buf, nil
}

func f64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func putF64(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}

// fixedString trims a NUL-padded fixed-width field.
func fixedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// putFixedString NUL-pads s into a fixed-width field.
func putFixedString(dst []byte, s string) error {
	if len(s) > len(dst) {
		return fmt.Errorf("%q longer than %d bytes", s, len(dst))
	}
	copy(dst, s)
	return nil
}
