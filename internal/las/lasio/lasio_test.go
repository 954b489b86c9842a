package lasio

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pointpack/internal/las"
	"github.com/banshee-data/pointpack/internal/las/packing"
)

// testFile builds a small format-1 file with known coordinates and
// return numbers.
func testFile(t *testing.T) *File {
	t.Helper()
	pf, err := las.Format(1)
	require.NoError(t, err)

	batch := las.NewBatch(pf.Fields(), 4)
	set := func(name string, values ...uint64) {
		c, ok := batch.Column(name)
		require.True(t, ok, "no column %q", name)
		for i, v := range values {
			c.SetUint(i, v)
		}
	}
	set("X", uint64(uint32(100)), 0xFFFFFF9C, uint64(uint32(2000)), 0) // 100, -100, 2000, 0
	set("Y", 1, 2, 3, 4)
	set("Z", 50, 40, 30, 20)
	set("intensity", 10, 20, 30, 40)
	set("bit_fields", 0b001, 0b010, 0b010, 0b011) // returns 1, 2, 2, 3
	set("raw_classification", 2, 2, 5, 31)
	set("point_source_id", 7, 7, 7, 7)
	gps, _ := batch.Column("gps_time")
	for i, ts := range []float64{1.5, 2.5, 3.5, 4.5} {
		binary.LittleEndian.PutUint64(gps.Data[i*8:], math.Float64bits(ts))
	}

	return &File{
		Header: Header{
			FileSourceID:  17,
			VersionMinor:  2,
			SystemID:      "pointpack test",
			Software:      "pointpack",
			CreationDay:   234,
			CreationYear:  2026,
			PointFormatID: 1,
			Scale:         [3]float64{0.01, 0.01, 0.01},
			Offset:        [3]float64{10, 20, 30},
		},
		VLRs: []VLR{{
			UserID:      "pointpack",
			RecordID:    42,
			Description: "test record",
			Payload:     []byte{1, 2, 3, 4, 5},
		}},
		Points: batch,
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	src := testFile(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src))

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	h := r.Header()

	assert.Equal(t, uint8(1), h.VersionMajor)
	assert.Equal(t, uint8(2), h.VersionMinor)
	assert.Equal(t, uint16(17), h.FileSourceID)
	assert.Equal(t, "pointpack test", h.SystemID)
	assert.Equal(t, uint8(1), h.PointFormatID)
	assert.Equal(t, uint16(28), h.RecordLength)
	assert.Equal(t, uint64(4), h.PointCount)
	assert.Equal(t, [3]float64{0.01, 0.01, 0.01}, h.Scale)

	// One first return, two seconds, one third.
	assert.Equal(t, uint64(1), h.PointsByReturn[0])
	assert.Equal(t, uint64(2), h.PointsByReturn[1])
	assert.Equal(t, uint64(1), h.PointsByReturn[2])

	assert.Equal(t, float64(-100)*0.01+10, h.Min[0])
	assert.Equal(t, float64(2000)*0.01+10, h.Max[0])

	require.Len(t, r.VLRs(), 1)
	assert.Equal(t, src.VLRs[0], r.VLRs()[0])

	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.True(t, src.Points.Equal(got), "points not byte-identical after round trip")

	_, err = r.ReadAll()
	require.Error(t, err, "second ReadAll should fail")
}

// Writing, reading, and writing again must produce identical bytes:
// every structural header field is a pure function of the data.
func TestRewriteIsByteStable(t *testing.T) {
	src := testFile(t)

	var first bytes.Buffer
	require.NoError(t, Write(&first, src))

	r, err := NewReader(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)
	points, err := r.ReadAll()
	require.NoError(t, err)

	var second bytes.Buffer
	hdr := r.Header()
	require.NoError(t, Write(&second, &File{Header: hdr, VLRs: r.VLRs(), Points: points}))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestFileRoundTripOnDisk(t *testing.T) {
	src := testFile(t)
	path := filepath.Join(t.TempDir(), "points.las")

	require.NoError(t, WriteFile(path, src))
	got, err := ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, src.Header.SystemID, got.Header.SystemID)
	assert.True(t, src.Points.Equal(got.Points))
}

func TestLAS14RoundTrip(t *testing.T) {
	pf, err := las.Format(6)
	require.NoError(t, err)

	batch := las.NewBatch(pf.Fields(), 3)
	bf, _ := batch.Column("bit_fields")
	bf.Data[0] = 0x21 // return 1 of 2
	bf.Data[1] = 0x22
	bf.Data[2] = 0x11

	src := &File{
		Header: Header{
			VersionMinor:  4,
			PointFormatID: 6,
			Scale:         [3]float64{0.001, 0.001, 0.001},
		},
		Points: batch,
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src))

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint16(headerSize14), r.Header().HeaderSize)
	assert.Equal(t, uint64(3), r.Header().PointCount)
	assert.Equal(t, uint64(2), r.Header().PointsByReturn[0])
	assert.Equal(t, uint64(1), r.Header().PointsByReturn[1])

	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.True(t, batch.Equal(got))
}

func TestExtraBytesRoundTrip(t *testing.T) {
	pf, err := las.FormatWithExtra(0, 3)
	require.NoError(t, err)

	batch := las.NewBatch(pf.Fields(), 2)
	extra, _ := batch.Column("extra_bytes")
	copy(extra.Data, []byte{1, 2, 3, 4, 5, 6})

	src := &File{
		Header: Header{VersionMinor: 2, PointFormatID: 0, Scale: [3]float64{1, 1, 1}},
		Points: batch,
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src))

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint16(23), r.Header().RecordLength)

	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.True(t, batch.Equal(got))
}

func TestRejectsBadSignature(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testFile(t)))
	raw := buf.Bytes()
	copy(raw, "LAZF")

	_, err := NewReader(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrNotLAS)
}

func TestRejectsCompressed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testFile(t)))
	raw := buf.Bytes()
	raw[offPointFormat] |= 0x80 // the LAZ convention

	_, err := NewReader(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrCompressed)
}

func TestRejectsTruncatedPoints(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testFile(t)))
	raw := buf.Bytes()[:buf.Len()-5]

	r, err := NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	_, err = r.ReadAll()
	require.ErrorIs(t, err, ErrTruncated)
}

func TestRejectsShortRecordLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testFile(t)))
	raw := buf.Bytes()
	binary.LittleEndian.PutUint16(raw[offRecordLength:], 10) // format 1 needs 28

	_, err := NewReader(bytes.NewReader(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below the 28-byte minimum")
}

func TestReaderSkipsPadBytes(t *testing.T) {
	var buf bytes.Buffer
	src := testFile(t)
	require.NoError(t, Write(&buf, src))
	raw := buf.Bytes()

	offset := binary.LittleEndian.Uint32(raw[offPointOffset:])
	padded := make([]byte, 0, len(raw)+7)
	padded = append(padded, raw[:offset]...)
	padded = append(padded, make([]byte, 7)...)
	padded = append(padded, raw[offset:]...)
	binary.LittleEndian.PutUint32(padded[offPointOffset:], offset+7)

	r, err := NewReader(bytes.NewReader(padded))
	require.NoError(t, err)
	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.True(t, src.Points.Equal(got))
}

func TestWriterRefusesExpandedBatch(t *testing.T) {
	src := testFile(t)
	pf, err := src.Format()
	require.NoError(t, err)
	expanded, err := packing.UnpackRecords(src.Points, pf)
	require.NoError(t, err)

	err = Write(&bytes.Buffer{}, &File{Header: src.Header, Points: expanded})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repack")
}

func TestWriterRejectsUnknownVersion(t *testing.T) {
	src := testFile(t)
	src.Header.VersionMinor = 9

	err := Write(&bytes.Buffer{}, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LAS version")
}
