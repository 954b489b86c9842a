package lasio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/banshee-data/pointpack/internal/las"
	"github.com/banshee-data/pointpack/internal/las/packing"
)

// Write emits f as an uncompressed LAS file. The point batch must be
// in the physical schema of the header's point format; expanded
// batches are refused. Identity fields (version, format id, scale,
// offset, GUID, software) come from f.Header, while the structural
// fields (header size, offsets, counts, record length, bounds,
// per-return counts) are recomputed from the data. Waveform payloads
// and EVLRs are not carried.
func Write(w io.Writer, f *File) error {
	h := f.Header
	h.VersionMajor = 1
	size, err := headerSizeFor(h.VersionMinor)
	if err != nil {
		return err
	}

	pf, err := las.Format(h.PointFormatID)
	if err != nil {
		return err
	}
	if extra, ok := f.Points.Column("extra_bytes"); ok {
		pf, err = las.FormatWithExtra(h.PointFormatID, extra.Type.Width)
		if err != nil {
			return err
		}
	}
	cols, err := recordColumns(pf, f.Points)
	if err != nil {
		return err
	}
	recLen := pf.RecordSize()
	if recLen > math.MaxUint16 {
		return fmt.Errorf("record length %d exceeds the LAS limit", recLen)
	}

	n := f.Points.Len()
	if h.VersionMinor < 4 && uint64(n) > math.MaxUint32 {
		return fmt.Errorf("%d points do not fit the legacy count field, write LAS 1.4", n)
	}

	h.HeaderSize = uint16(size)
	h.VLRCount = uint32(len(f.VLRs))
	offset := int64(size)
	for _, v := range f.VLRs {
		offset += int64(v.size())
	}
	if offset > math.MaxUint32 {
		return fmt.Errorf("point data offset %d exceeds the LAS limit", offset)
	}
	h.PointDataOffset = uint32(offset)
	h.RecordLength = uint16(recLen)
	h.PointCount = uint64(n)
	if h.PointsByReturn, err = countByReturn(pf, f.Points); err != nil {
		return err
	}
	h.Min, h.Max = computeBounds(f.Points, h.Scale, h.Offset)
	h.WaveformOffset = 0
	h.EVLROffset, h.EVLRCount = 0, 0

	buf, err := encodeHeader(&h)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(buf); err != nil {
		return fmt.Errorf("failed to write LAS header: %w", err)
	}
	for _, v := range f.VLRs {
		if err := writeVLR(bw, v); err != nil {
			return err
		}
	}

	rec := make([]byte, recLen)
	for j := 0; j < n; j++ {
		o := 0
		for _, c := range cols {
			cw := c.Type.Width
			copy(rec[o:o+cw], c.Data[j*cw:])
			o += cw
		}
		if _, err := bw.Write(rec); err != nil {
			return fmt.Errorf("failed to write point records: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile writes f to path.
func WriteFile(path string, f *File) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create LAS file: %w", err)
	}
	if err := Write(out, f); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close LAS file: %w", err)
	}
	return nil
}

// recordColumns resolves the batch columns backing each field of the
// physical schema, in record order.
func recordColumns(pf *las.PointFormat, b *las.Batch) ([]*las.Column, error) {
	cols := make([]*las.Column, len(pf.Fields()))
	for i, field := range pf.Fields() {
		c, ok := b.Column(field.Name)
		if !ok {
			if _, composed := pf.Composed(field.Name); composed {
				return nil, fmt.Errorf("batch has no %q column: repack expanded batches before writing", field.Name)
			}
			return nil, &las.SchemaError{Field: field.Name}
		}
		if c.Type != field.Type {
			return nil, &las.SchemaError{
				Field:  field.Name,
				Reason: fmt.Sprintf("have %s, want %s", c.Type, field.Type),
			}
		}
		cols[i] = c
	}
	return cols, nil
}

// countByReturn tallies points by return number for the header. Return
// numbers outside 1..15 are not counted.
func countByReturn(pf *las.PointFormat, b *las.Batch) ([15]uint64, error) {
	var counts [15]uint64
	cf, ok := pf.Composed("bit_fields")
	if !ok {
		return counts, nil
	}
	var mask uint64
	for _, sf := range cf.SubFields {
		if sf.Name == "return_number" {
			mask = sf.Mask
			break
		}
	}
	col, ok := b.Column("bit_fields")
	if mask == 0 || !ok {
		return counts, nil
	}
	rn, err := packing.Unpack(col, mask, las.U8)
	if err != nil {
		return counts, fmt.Errorf("failed to count returns: %w", err)
	}
	for _, v := range rn.Data {
		if v >= 1 && v <= 15 {
			counts[v-1]++
		}
	}
	return counts, nil
}

// computeBounds derives the scaled coordinate extents for the header.
// An empty batch leaves the bounds at zero.
func computeBounds(b *las.Batch, scale, offset [3]float64) (min, max [3]float64) {
	axes := [3]string{"X", "Y", "Z"}
	for i, name := range axes {
		col, ok := b.Column(name)
		if !ok || col.Len() == 0 {
			continue
		}
		lo := col.Int(0)
		hi := lo
		for j := 1; j < col.Len(); j++ {
			v := col.Int(j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		min[i] = float64(lo)*scale[i] + offset[i]
		max[i] = float64(hi)*scale[i] + offset[i]
	}
	return min, max
}
