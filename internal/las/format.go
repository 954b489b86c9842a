package las

import (
	"fmt"
	"math/bits"
)

// Field is one named, typed attribute of a physical or expanded record
// schema.
type Field struct {
	Name string
	Type ElemType
}

// SubField describes one logical attribute packed into a composed
// field: the bits of the container selected by Mask belong to it.
type SubField struct {
	Name string
	Mask uint64
}

// ComposedField names a physical container field and the sub-fields
// that share its bits, in declared (repack) order.
type ComposedField struct {
	Name      string
	SubFields []SubField
}

// CompiledSub is a sub-field with everything the codec hot path needs
// resolved at compile time: shift, value ceiling, target element type,
// and the sub-field's column position in the expanded schema. Name
// lookups and shift derivation never happen per batch.
type CompiledSub struct {
	Name        string
	Mask        uint64
	Shift       uint
	Max         uint64 // largest value the mask can hold (Mask >> Shift)
	Type        ElemType
	ExpandedIdx int
}

// FieldPlan pairs one physical field with its compiled sub-fields.
// Subs is nil for plain fields, which copy through verbatim;
// ExpandedIdx is the field's own column position in the expanded
// schema and is meaningful only for plain fields.
type FieldPlan struct {
	Field       Field
	ExpandedIdx int
	Subs        []CompiledSub
}

// PointFormat is a compiled, immutable record schema: the ordered
// physical fields as they sit in a record, the derived expanded schema
// in which every sub-field is its own column, and the per-field plan
// driving the codec. Build one with NewPointFormat or take a standard
// one from Format; never mutate the returned slices.
type PointFormat struct {
	id       uint8
	fields   []Field
	expanded []Field
	plan     []FieldPlan
	composed map[string]ComposedField
	size     int
}

// NewPointFormat compiles a point format from its physical fields and
// composed-field descriptors.
//
// Malformed descriptors are rejected here, once, rather than surfacing
// mid-batch later: duplicate names, zero masks (ErrInvalidMask), masks
// wider than their container, containers that are not integer fields,
// and sub-field masks that overlap within one composed field. Overlap
// would make repack order decide which sub-field survives, silently
// corrupting the other; it is a descriptor bug, never valid data.
func NewPointFormat(id uint8, fields []Field, composed []ComposedField) (*PointFormat, error) {
	byName := make(map[string]ComposedField, len(composed))
	for _, cf := range composed {
		if _, dup := byName[cf.Name]; dup {
			return nil, fmt.Errorf("point format %d: duplicate composed field %q", id, cf.Name)
		}
		byName[cf.Name] = cf
	}

	f := &PointFormat{
		id:       id,
		fields:   fields,
		plan:     make([]FieldPlan, 0, len(fields)),
		composed: byName,
	}

	seen := make(map[string]bool, len(fields))
	claimed := make(map[string]bool, len(composed))
	for _, field := range fields {
		if !field.Type.Valid() {
			return nil, fmt.Errorf("point format %d: field %q has invalid element type %s", id, field.Name, field.Type)
		}
		if seen[field.Name] {
			return nil, fmt.Errorf("point format %d: duplicate field %q", id, field.Name)
		}
		seen[field.Name] = true
		f.size += field.Type.Width

		cf, ok := byName[field.Name]
		if !ok {
			f.plan = append(f.plan, FieldPlan{Field: field, ExpandedIdx: len(f.expanded)})
			f.expanded = append(f.expanded, field)
			continue
		}
		claimed[field.Name] = true

		if !field.Type.Integer() {
			return nil, fmt.Errorf("point format %d: composed field %q has non-integer type %s", id, field.Name, field.Type)
		}
		if len(cf.SubFields) == 0 {
			return nil, fmt.Errorf("point format %d: composed field %q has no sub-fields", id, field.Name)
		}

		subs := make([]CompiledSub, 0, len(cf.SubFields))
		var used uint64
		for _, sf := range cf.SubFields {
			if sf.Mask == 0 {
				return nil, fmt.Errorf("point format %d: sub-field %s.%s: %w", id, field.Name, sf.Name, ErrInvalidMask)
			}
			if sf.Mask>>(uint(field.Type.Width)*8) != 0 {
				return nil, fmt.Errorf("point format %d: sub-field %s.%s: mask %#x does not fit %s container",
					id, field.Name, sf.Name, sf.Mask, field.Type)
			}
			if used&sf.Mask != 0 {
				return nil, fmt.Errorf("point format %d: sub-field %s.%s: mask %#x overlaps another sub-field",
					id, field.Name, sf.Name, sf.Mask)
			}
			used |= sf.Mask
			if seen[sf.Name] {
				return nil, fmt.Errorf("point format %d: duplicate field %q", id, sf.Name)
			}
			seen[sf.Name] = true

			shift := uint(bits.TrailingZeros64(sf.Mask))
			max := sf.Mask >> shift
			typ := subFieldType(max)
			subs = append(subs, CompiledSub{
				Name:        sf.Name,
				Mask:        sf.Mask,
				Shift:       shift,
				Max:         max,
				Type:        typ,
				ExpandedIdx: len(f.expanded),
			})
			f.expanded = append(f.expanded, Field{Name: sf.Name, Type: typ})
		}
		f.plan = append(f.plan, FieldPlan{Field: field, Subs: subs})
	}

	for name := range byName {
		if !claimed[name] {
			return nil, fmt.Errorf("point format %d: composed field %q is not in the physical schema", id, name)
		}
	}
	return f, nil
}

// subFieldType picks the narrowest unsigned type that holds every
// value an aligned mask can produce. Standard formats only compose
// single bytes, so this is U8 for the whole catalog.
func subFieldType(max uint64) ElemType {
	switch {
	case max <= 0xFF:
		return U8
	case max <= 0xFFFF:
		return U16
	case max <= 0xFFFFFFFF:
		return U32
	default:
		return U64
	}
}

// ID returns the point data record format number.
func (f *PointFormat) ID() uint8 { return f.id }

// RecordSize returns the size of one physical record in bytes.
func (f *PointFormat) RecordSize() int { return f.size }

// Fields returns the physical schema: the fields as they sit in a
// record on disk, composed containers included.
func (f *PointFormat) Fields() []Field { return f.fields }

// ExpandedFields returns the expanded schema: composed containers
// replaced, in place and in order, by their sub-fields.
func (f *PointFormat) ExpandedFields() []Field { return f.expanded }

// Plan returns the compiled per-field codec plan, index-aligned with
// Fields.
func (f *PointFormat) Plan() []FieldPlan { return f.plan }

// Composed returns the composed-field descriptor for the named
// physical field, if it has one.
func (f *PointFormat) Composed(name string) (ComposedField, bool) {
	cf, ok := f.composed[name]
	return cf, ok
}

func (f *PointFormat) String() string {
	return fmt.Sprintf("point format %d (%d bytes, %d fields, %d expanded)",
		f.id, f.size, len(f.fields), len(f.expanded))
}
