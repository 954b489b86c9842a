package lasio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// vlrHeaderSize is the fixed on-disk size of a VLR header.
const vlrHeaderSize = 54

// VLR is a variable length record. The payload is carried verbatim;
// this package does not interpret coordinate reference systems or any
// other registered record type.
type VLR struct {
	Reserved    uint16
	UserID      string // 16 bytes on disk
	RecordID    uint16
	Description string // 32 bytes on disk
	Payload     []byte
}

// readVLR reads one VLR header and payload.
func readVLR(r io.Reader) (VLR, error) {
	var hdr [vlrHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return VLR{}, fmt.Errorf("failed to read VLR header: %w", eofToTruncated(err))
	}
	v := VLR{
		Reserved:    binary.LittleEndian.Uint16(hdr[0:]),
		UserID:      fixedString(hdr[2:18]),
		RecordID:    binary.LittleEndian.Uint16(hdr[18:]),
		Description: fixedString(hdr[22:54]),
	}
	n := binary.LittleEndian.Uint16(hdr[20:])
	if n > 0 {
		v.Payload = make([]byte, n)
		if _, err := io.ReadFull(r, v.Payload); err != nil {
			return VLR{}, fmt.Errorf("failed to read VLR payload: %w", eofToTruncated(err))
		}
	}
	return v, nil
}

// writeVLR writes one VLR header and payload.
func writeVLR(w io.Writer, v VLR) error {
	if len(v.Payload) > math.MaxUint16 {
		return fmt.Errorf("VLR payload %d bytes exceeds the %d-byte limit", len(v.Payload), math.MaxUint16)
	}
	var hdr [vlrHeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[0:], v.Reserved)
	if err := putFixedString(hdr[2:18], v.UserID); err != nil {
		return fmt.Errorf("VLR user id: %w", err)
	}
	binary.LittleEndian.PutUint16(hdr[18:], v.RecordID)
	binary.LittleEndian.PutUint16(hdr[20:], uint16(len(v.Payload)))
	if err := putFixedString(hdr[22:54], v.Description); err != nil {
		return fmt.Errorf("VLR description: %w", err)
	}
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("failed to write VLR header: %w", err)
	}
	if len(v.Payload) > 0 {
		if _, err := w.Write(v.Payload); err != nil {
			return fmt.Errorf("failed to write VLR payload: %w", err)
		}
	}
	return nil
}

// size returns the on-disk size of the record.
func (v VLR) size() int {
	return vlrHeaderSize + len(v.Payload)
}
