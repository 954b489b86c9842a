package packing

import (
	"errors"
	"fmt"

	"github.com/banshee-data/pointpack/internal/las"
)

// UnpackRecords expands a batch of packed point records into one
// column per sub-field. Plain fields are copied through verbatim;
// composed fields are split into their sub-field columns. The source
// batch must carry every field the format declares, with the declared
// element types, and is never modified.
func UnpackRecords(src *las.Batch, pf *las.PointFormat) (*las.Batch, error) {
	out := las.NewBatch(pf.ExpandedFields(), src.Len())
	for _, fp := range pf.Plan() {
		col, ok := src.Column(fp.Field.Name)
		if !ok {
			return nil, &las.SchemaError{Field: fp.Field.Name}
		}
		if col.Type != fp.Field.Type {
			return nil, &las.SchemaError{
				Field:  fp.Field.Name,
				Reason: fmt.Sprintf("have %s, want %s", col.Type, fp.Field.Type),
			}
		}
		if fp.Subs == nil {
			copy(out.ColumnAt(fp.ExpandedIdx).Data, col.Data)
			continue
		}
		for _, sub := range fp.Subs {
			if err := UnpackInto(out.ColumnAt(sub.ExpandedIdx), col, sub.Mask); err != nil {
				return nil, fmt.Errorf("unpacking %s from %s: %w", sub.Name, fp.Field.Name, err)
			}
		}
	}
	return out, nil
}

// RepackRecords packs an expanded batch back into the format's
// physical record layout. Sub-field columns are packed into their
// container in declared order, each value checked against its mask
// before anything is written, so a failure on any sub-field reports a
// RangeError naming the sub-field and its container and produces no
// partial batch. Columns the format does not declare are ignored.
func RepackRecords(src *las.Batch, pf *las.PointFormat) (*las.Batch, error) {
	out := las.NewBatch(pf.Fields(), src.Len())
	for i, fp := range pf.Plan() {
		if fp.Subs == nil {
			col, ok := src.Column(fp.Field.Name)
			if !ok {
				return nil, &las.SchemaError{Field: fp.Field.Name}
			}
			if col.Type != fp.Field.Type {
				return nil, &las.SchemaError{
					Field:  fp.Field.Name,
					Reason: fmt.Sprintf("have %s, want %s", col.Type, fp.Field.Type),
				}
			}
			copy(out.ColumnAt(i).Data, col.Data)
			continue
		}
		dst := out.ColumnAt(i)
		for _, sub := range fp.Subs {
			values, ok := src.Column(sub.Name)
			if !ok {
				return nil, &las.SchemaError{Field: sub.Name}
			}
			if err := PackInPlace(dst, values, sub.Mask); err != nil {
				var rangeErr *las.RangeError
				if errors.As(err, &rangeErr) {
					rangeErr.SubField = sub.Name
					rangeErr.Field = fp.Field.Name
					return nil, rangeErr
				}
				return nil, fmt.Errorf("repacking %s into %s: %w", sub.Name, fp.Field.Name, err)
			}
		}
	}
	return out, nil
}
