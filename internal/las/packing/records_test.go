package packing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pointpack/internal/las"
)

// fillBatch gives every column a deterministic byte pattern so round
// trips exercise more than zeroes.
func fillBatch(b *las.Batch, seed byte) {
	for i := 0; i < b.NumColumns(); i++ {
		c := b.ColumnAt(i)
		for j := range c.Data {
			c.Data[j] = seed + byte(i*13) + byte(j*7)
		}
	}
}

func mustColumn(t *testing.T, b *las.Batch, name string) *las.Column {
	t.Helper()
	c, ok := b.Column(name)
	require.True(t, ok, "batch has no column %q", name)
	return c
}

func TestUnpackRecordsFormat0(t *testing.T) {
	pf, err := las.Format(0)
	require.NoError(t, err)

	src := las.NewBatch(pf.Fields(), 3)
	x := mustColumn(t, src, "X")
	x.SetUint(0, uint64(uint32(100)))
	x.SetUint(1, 0xFFFFFF9C) // -100 as int32 bits
	x.SetUint(2, 0)
	angle := mustColumn(t, src, "scan_angle_rank")
	angle.Data[0] = 0xF6 // -10

	bf := mustColumn(t, src, "bit_fields")
	bf.Data[0] = 0b0_1_001_010 // edge=0 scan_dir=1 returns=1 return_number=2
	bf.Data[1] = 0b1_0_111_111
	bf.Data[2] = 0
	rc := mustColumn(t, src, "raw_classification")
	rc.Data[0] = 0b0010_0101 // synthetic, class 5
	rc.Data[1] = 0b1001_1111 // withheld, class 31
	rc.Data[2] = 0

	before := src.Clone()
	got, err := UnpackRecords(src, pf)
	require.NoError(t, err)

	assert.Equal(t, []byte{2, 7, 0}, mustColumn(t, got, "return_number").Data)
	assert.Equal(t, []byte{1, 7, 0}, mustColumn(t, got, "number_of_returns").Data)
	assert.Equal(t, []byte{1, 0, 0}, mustColumn(t, got, "scan_direction_flag").Data)
	assert.Equal(t, []byte{0, 1, 0}, mustColumn(t, got, "edge_of_flight_line").Data)
	assert.Equal(t, []byte{5, 31, 0}, mustColumn(t, got, "classification").Data)
	assert.Equal(t, []byte{1, 0, 0}, mustColumn(t, got, "synthetic").Data)
	assert.Equal(t, []byte{0, 0, 0}, mustColumn(t, got, "key_point").Data)
	assert.Equal(t, []byte{0, 1, 0}, mustColumn(t, got, "withheld").Data)

	// Plain fields ride through byte for byte.
	assert.Equal(t, int64(-100), mustColumn(t, got, "X").Int(1))
	assert.Equal(t, int64(-10), mustColumn(t, got, "scan_angle_rank").Int(0))
	assert.True(t, x.Equal(mustColumn(t, got, "X")))

	assert.True(t, src.Equal(before), "unpack modified its source batch")
}

func TestRoundTrip(t *testing.T) {
	for _, id := range []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10} {
		pf, err := las.Format(id)
		require.NoError(t, err)

		src := las.NewBatch(pf.Fields(), 16)
		fillBatch(src, byte(id))

		expanded, err := UnpackRecords(src, pf)
		require.NoError(t, err, "format %d", id)
		packed, err := RepackRecords(expanded, pf)
		require.NoError(t, err, "format %d", id)

		assert.True(t, src.Equal(packed), "format %d: round trip not byte-identical", id)
	}
}

func TestRoundTripWithExtraBytes(t *testing.T) {
	pf, err := las.FormatWithExtra(0, 4)
	require.NoError(t, err)

	src := las.NewBatch(pf.Fields(), 5)
	fillBatch(src, 0x42)

	expanded, err := UnpackRecords(src, pf)
	require.NoError(t, err)
	extra := mustColumn(t, expanded, "extra_bytes")
	assert.Equal(t, mustColumn(t, src, "extra_bytes").Data, extra.Data)

	packed, err := RepackRecords(expanded, pf)
	require.NoError(t, err)
	assert.True(t, src.Equal(packed))
}

func TestRepackColumnOrderIndependent(t *testing.T) {
	pf, err := las.Format(6)
	require.NoError(t, err)

	src := las.NewBatch(pf.Fields(), 8)
	fillBatch(src, 9)
	expanded, err := UnpackRecords(src, pf)
	require.NoError(t, err)

	cols := make([]*las.Column, expanded.NumColumns())
	for i := range cols {
		cols[i] = expanded.ColumnAt(expanded.NumColumns() - 1 - i)
	}
	reversed, err := las.NewBatchFromColumns(cols)
	require.NoError(t, err)

	a, err := RepackRecords(expanded, pf)
	require.NoError(t, err)
	b, err := RepackRecords(reversed, pf)
	require.NoError(t, err)
	assert.True(t, a.Equal(b), "column order changed the repacked bytes")
}

func TestRepackRangeErrorNamesSubField(t *testing.T) {
	pf, err := las.Format(0)
	require.NoError(t, err)

	expanded := las.NewBatch(pf.ExpandedFields(), 2)
	mustColumn(t, expanded, "return_number").Data[1] = 9 // mask holds 0..7

	_, err = RepackRecords(expanded, pf)
	var rangeErr *las.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "return_number", rangeErr.SubField)
	assert.Equal(t, "bit_fields", rangeErr.Field)
	assert.Equal(t, uint64(9), rangeErr.Value)
	assert.Equal(t, uint64(7), rangeErr.Max)
	assert.Equal(t,
		"repacking return_number into bit_fields: value (9) is greater than allowed (max: 7)",
		err.Error())
}

func TestUnpackRecordsSchemaErrors(t *testing.T) {
	pf, err := las.Format(0)
	require.NoError(t, err)

	fields := pf.Fields()
	missing := make([]*las.Column, 0, len(fields)-1)
	for _, f := range fields {
		if f.Name == "bit_fields" {
			continue
		}
		missing = append(missing, las.NewColumn(f.Name, f.Type, 2))
	}
	b, err := las.NewBatchFromColumns(missing)
	require.NoError(t, err)

	_, err = UnpackRecords(b, pf)
	var schemaErr *las.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "bit_fields", schemaErr.Field)

	wrongType := make([]*las.Column, 0, len(fields))
	for _, f := range fields {
		typ := f.Type
		if f.Name == "intensity" {
			typ = las.U32
		}
		wrongType = append(wrongType, las.NewColumn(f.Name, typ, 2))
	}
	b, err = las.NewBatchFromColumns(wrongType)
	require.NoError(t, err)

	_, err = UnpackRecords(b, pf)
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "intensity", schemaErr.Field)
	assert.Contains(t, schemaErr.Error(), "want u16")
}

func TestRepackRecordsSchemaError(t *testing.T) {
	pf, err := las.Format(0)
	require.NoError(t, err)

	fields := pf.ExpandedFields()
	cols := make([]*las.Column, 0, len(fields)-1)
	for _, f := range fields {
		if f.Name == "withheld" {
			continue
		}
		cols = append(cols, las.NewColumn(f.Name, f.Type, 2))
	}
	b, err := las.NewBatchFromColumns(cols)
	require.NoError(t, err)

	_, err = RepackRecords(b, pf)
	var schemaErr *las.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "withheld", schemaErr.Field)
}

func TestRepackIgnoresUnknownColumns(t *testing.T) {
	pf, err := las.Format(0)
	require.NoError(t, err)

	src := las.NewBatch(pf.Fields(), 4)
	fillBatch(src, 3)
	expanded, err := UnpackRecords(src, pf)
	require.NoError(t, err)

	cols := make([]*las.Column, 0, expanded.NumColumns()+1)
	for i := 0; i < expanded.NumColumns(); i++ {
		cols = append(cols, expanded.ColumnAt(i))
	}
	cols = append(cols, las.NewColumn("temperature", las.F32, 4))
	withExtra, err := las.NewBatchFromColumns(cols)
	require.NoError(t, err)

	packed, err := RepackRecords(withExtra, pf)
	require.NoError(t, err)
	assert.True(t, src.Equal(packed))
}
