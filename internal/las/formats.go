package las

import "fmt"

// Standard LAS point data record formats.
//
// Formats 0–5 pack four return flags into the bit_fields byte and four
// classification flags into the raw_classification byte. Formats 6–10
// widen the return counters to four bits each and move every flag,
// plus the two-bit scanner channel, into a dedicated
// classification_flags byte. Masks and dimension names follow the LAS
// 1.1–1.4 specifications.
var composedFields0 = []ComposedField{
	{Name: "bit_fields", SubFields: []SubField{
		{Name: "return_number", Mask: 0b0000_0111},
		{Name: "number_of_returns", Mask: 0b0011_1000},
		{Name: "scan_direction_flag", Mask: 0b0100_0000},
		{Name: "edge_of_flight_line", Mask: 0b1000_0000},
	}},
	{Name: "raw_classification", SubFields: []SubField{
		{Name: "classification", Mask: 0b0001_1111},
		{Name: "synthetic", Mask: 0b0010_0000},
		{Name: "key_point", Mask: 0b0100_0000},
		{Name: "withheld", Mask: 0b1000_0000},
	}},
}

var composedFields6 = []ComposedField{
	{Name: "bit_fields", SubFields: []SubField{
		{Name: "return_number", Mask: 0b0000_1111},
		{Name: "number_of_returns", Mask: 0b1111_0000},
	}},
	{Name: "classification_flags", SubFields: []SubField{
		{Name: "synthetic", Mask: 0b0000_0001},
		{Name: "key_point", Mask: 0b0000_0010},
		{Name: "withheld", Mask: 0b0000_0100},
		{Name: "overlap", Mask: 0b0000_1000},
		{Name: "scanner_channel", Mask: 0b0011_0000},
		{Name: "scan_direction_flag", Mask: 0b0100_0000},
		{Name: "edge_of_flight_line", Mask: 0b1000_0000},
	}},
}

var baseFields0 = []Field{
	{Name: "X", Type: I32},
	{Name: "Y", Type: I32},
	{Name: "Z", Type: I32},
	{Name: "intensity", Type: U16},
	{Name: "bit_fields", Type: U8},
	{Name: "raw_classification", Type: U8},
	{Name: "scan_angle_rank", Type: I8},
	{Name: "user_data", Type: U8},
	{Name: "point_source_id", Type: U16},
}

var baseFields6 = []Field{
	{Name: "X", Type: I32},
	{Name: "Y", Type: I32},
	{Name: "Z", Type: I32},
	{Name: "intensity", Type: U16},
	{Name: "bit_fields", Type: U8},
	{Name: "classification_flags", Type: U8},
	{Name: "classification", Type: U8},
	{Name: "user_data", Type: U8},
	{Name: "scan_angle", Type: I16},
	{Name: "point_source_id", Type: U16},
	{Name: "gps_time", Type: F64},
}

var gpsTime = []Field{
	{Name: "gps_time", Type: F64},
}

var rgb = []Field{
	{Name: "red", Type: U16},
	{Name: "green", Type: U16},
	{Name: "blue", Type: U16},
}

var nir = []Field{
	{Name: "nir", Type: U16},
}

// Wave packet block appended by the waveform formats (4, 5, 9, 10).
var wavePacket = []Field{
	{Name: "wavepacket_index", Type: U8},
	{Name: "wavepacket_offset", Type: U64},
	{Name: "wavepacket_size", Type: U32},
	{Name: "return_point_wave_location", Type: F32},
	{Name: "x_t", Type: F32},
	{Name: "y_t", Type: F32},
	{Name: "z_t", Type: F32},
}

// MaxFormatID is the highest standard point format this catalog knows.
const MaxFormatID = 10

var standardFormats = buildStandardFormats()

func buildStandardFormats() [MaxFormatID + 1]*PointFormat {
	cat := func(groups ...[]Field) []Field {
		var out []Field
		for _, g := range groups {
			out = append(out, g...)
		}
		return out
	}
	var formats [MaxFormatID + 1]*PointFormat
	formats[0] = mustFormat(0, baseFields0, composedFields0)
	formats[1] = mustFormat(1, cat(baseFields0, gpsTime), composedFields0)
	formats[2] = mustFormat(2, cat(baseFields0, rgb), composedFields0)
	formats[3] = mustFormat(3, cat(baseFields0, gpsTime, rgb), composedFields0)
	formats[4] = mustFormat(4, cat(baseFields0, gpsTime, wavePacket), composedFields0)
	formats[5] = mustFormat(5, cat(baseFields0, gpsTime, rgb, wavePacket), composedFields0)
	formats[6] = mustFormat(6, baseFields6, composedFields6)
	formats[7] = mustFormat(7, cat(baseFields6, rgb), composedFields6)
	formats[8] = mustFormat(8, cat(baseFields6, rgb, nir), composedFields6)
	formats[9] = mustFormat(9, cat(baseFields6, wavePacket), composedFields6)
	formats[10] = mustFormat(10, cat(baseFields6, rgb, nir, wavePacket), composedFields6)
	return formats
}

func mustFormat(id uint8, fields []Field, composed []ComposedField) *PointFormat {
	f, err := NewPointFormat(id, fields, composed)
	if err != nil {
		panic(err)
	}
	return f
}

// Format returns the compiled catalog entry for a standard LAS point
// data record format. The returned format is shared and immutable.
func Format(id uint8) (*PointFormat, error) {
	if int(id) >= len(standardFormats) {
		return nil, fmt.Errorf("unknown point format %d", id)
	}
	return standardFormats[id], nil
}

// FormatWithExtra returns format id with extra opaque bytes appended
// to every record, as producers that add extra bytes to standard
// records do. The extra bytes ride through unpack and repack verbatim
// in a single raw column.
func FormatWithExtra(id uint8, extra int) (*PointFormat, error) {
	base, err := Format(id)
	if err != nil {
		return nil, err
	}
	if extra <= 0 {
		return base, nil
	}
	fields := make([]Field, 0, len(base.fields)+1)
	fields = append(fields, base.fields...)
	fields = append(fields, Field{Name: "extra_bytes", Type: RawType(extra)})

	composed := make([]ComposedField, 0, len(base.composed))
	for _, fp := range base.plan {
		if fp.Subs != nil {
			composed = append(composed, base.composed[fp.Field.Name])
		}
	}
	return NewPointFormat(id, fields, composed)
}
