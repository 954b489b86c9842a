package lasio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/pointpack/internal/las"
)

// maxPointCount caps how many records ReadAll will buffer. A corrupt
// count field should fail cleanly instead of attempting a huge
// allocation.
const maxPointCount = 1 << 31

// File is a fully loaded LAS file: header, variable length records,
// and the point records as a physical-schema batch.
type File struct {
	Header Header
	VLRs   []VLR
	Points *las.Batch
}

// Format returns the compiled point format of the file.
func (f *File) Format() (*las.PointFormat, error) {
	return f.Header.Format()
}

// Reader parses a LAS stream. NewReader consumes the header and VLRs;
// ReadAll consumes the point data block.
type Reader struct {
	header Header
	vlrs   []VLR
	format *las.PointFormat
	src    *bufio.Reader
	read   bool
}

// NewReader reads the public header block and all VLRs from r, leaving
// the stream positioned at the point data block.
func NewReader(r io.Reader) (*Reader, error) {
	src := bufio.NewReader(r)

	// The signature through the header size field spans the first 96
	// bytes; the header size tells us how much more to read.
	prefix := make([]byte, offPointOffset)
	if _, err := io.ReadFull(src, prefix); err != nil {
		return nil, fmt.Errorf("failed to read LAS header: %w", eofToTruncated(err))
	}
	if string(prefix[:4]) != fileSignature {
		return nil, ErrNotLAS
	}
	minSize, err := headerSizeFor(prefix[offVersionMinor])
	if prefix[offVersionMajor] != 1 || err != nil {
		return nil, fmt.Errorf("unsupported LAS version %d.%d", prefix[offVersionMajor], prefix[offVersionMinor])
	}
	headerSize := int(binary.LittleEndian.Uint16(prefix[offHeaderSize:]))
	if headerSize < minSize {
		return nil, fmt.Errorf("header size %d is below the %d-byte minimum for LAS 1.%d",
			headerSize, minSize, prefix[offVersionMinor])
	}

	buf := make([]byte, headerSize)
	copy(buf, prefix)
	if _, err := io.ReadFull(src, buf[len(prefix):]); err != nil {
		return nil, fmt.Errorf("failed to read LAS header: %w", eofToTruncated(err))
	}
	header, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}

	consumed := int64(headerSize)
	vlrs := make([]VLR, 0, header.VLRCount)
	for i := uint32(0); i < header.VLRCount; i++ {
		v, err := readVLR(src)
		if err != nil {
			return nil, fmt.Errorf("VLR %d: %w", i, err)
		}
		consumed += int64(v.size())
		vlrs = append(vlrs, v)
	}

	// Writers may pad between the VLRs and the point data block.
	pad := int64(header.PointDataOffset) - consumed
	if pad < 0 {
		return nil, fmt.Errorf("point data offset %d lies inside the headers (%d bytes)",
			header.PointDataOffset, consumed)
	}
	if _, err := io.CopyN(io.Discard, src, pad); err != nil {
		return nil, fmt.Errorf("failed to skip to point data: %w", eofToTruncated(err))
	}

	format, err := header.Format()
	if err != nil {
		return nil, err
	}
	return &Reader{header: header, vlrs: vlrs, format: format, src: src}, nil
}

// Header returns the parsed public header block.
func (r *Reader) Header() Header { return r.header }

// VLRs returns the variable length records in file order.
func (r *Reader) VLRs() []VLR { return r.vlrs }

// Format returns the compiled point format of the stream.
func (r *Reader) Format() *las.PointFormat { return r.format }

// ReadAll reads every point record and deinterleaves them into one
// column per field of the physical schema. It may be called once.
func (r *Reader) ReadAll() (*las.Batch, error) {
	if r.read {
		return nil, errors.New("point data already read")
	}
	r.read = true

	n := r.header.PointCount
	if n > maxPointCount {
		return nil, fmt.Errorf("point count %d exceeds the reader limit", n)
	}
	recLen := int(r.header.RecordLength)
	buf := make([]byte, int(n)*recLen)
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return nil, fmt.Errorf("failed to read %d point records: %w", n, eofToTruncated(err))
	}

	batch := las.NewBatch(r.format.Fields(), int(n))
	off := 0
	for i, field := range r.format.Fields() {
		col := batch.ColumnAt(i)
		w := field.Type.Width
		for j := 0; j < int(n); j++ {
			copy(col.Data[j*w:(j+1)*w], buf[j*recLen+off:])
		}
		off += w
	}
	return batch, nil
}

// ReadFile loads a whole LAS file.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open LAS file: %w", err)
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	points, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Header: r.Header(), VLRs: r.VLRs(), Points: points}, nil
}

func eofToTruncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
