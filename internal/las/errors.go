package las

import (
	"errors"
	"fmt"
)

// ErrInvalidMask reports a zero sub-field mask. A mask with no bits set
// selects nothing and has no defined shift; it indicates a malformed
// descriptor rather than bad point data.
var ErrInvalidMask = errors.New("invalid mask: no bits set")

// RangeError reports that one or more values in a sub-field column
// exceed what the sub-field's mask can represent. It is raised before
// any destination bytes are written, so the destination column is
// always bit-identical to its pre-call state when a RangeError comes
// back.
type RangeError struct {
	Value uint64 // largest offending value in the column
	Max   uint64 // largest value the mask can hold

	// SubField and Field identify the sub-field and its owning
	// composed field when the error is raised while repacking a full
	// record batch. Both are empty when a single column was packed
	// directly.
	SubField string
	Field    string
}

func (e *RangeError) Error() string {
	if e.SubField != "" {
		return fmt.Sprintf("repacking %s into %s: value (%d) is greater than allowed (max: %d)",
			e.SubField, e.Field, e.Value, e.Max)
	}
	return fmt.Sprintf("value (%d) is greater than allowed (max: %d)", e.Value, e.Max)
}

// SchemaError reports that a point-format descriptor references a
// field the batch being processed does not carry, or carries with the
// wrong element type.
type SchemaError struct {
	Field  string
	Reason string // empty means the column is missing entirely
}

func (e *SchemaError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schema mismatch: field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("schema mismatch: batch has no column %q", e.Field)
}
