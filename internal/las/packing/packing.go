// Package packing moves sub-field values in and out of the packed
// container bytes of LAS point records.
//
// The primitives in this package are deliberately permissive: they
// trust the mask they are handed and only reject masks with no bits
// set and values too large for their mask. Container/mask fit is
// enforced once, when a point format is compiled, so the per-batch
// paths never re-check it. Values narrower than a destination column
// are the caller's concern; stores truncate to the column width.
package packing

import (
	"fmt"
	"math/bits"

	"github.com/banshee-data/pointpack/internal/las"
)

// LowestSetBit returns the position of the lowest set bit of mask,
// which is the shift that aligns the masked bits with bit zero.
func LowestSetBit(mask uint64) (uint, error) {
	if mask == 0 {
		return 0, las.ErrInvalidMask
	}
	return uint(bits.TrailingZeros64(mask)), nil
}

// Unpack extracts the bits selected by mask from every element of src
// and returns them, shifted down to bit zero, as a fresh column of
// type typ. src is never modified.
func Unpack(src *las.Column, mask uint64, typ las.ElemType) (*las.Column, error) {
	if !typ.Integer() {
		return nil, fmt.Errorf("unpack %s: target type %s is not an integer type", src.Name, typ)
	}
	dst := las.NewColumn(src.Name, typ, src.Len())
	if err := UnpackInto(dst, src, mask); err != nil {
		return nil, err
	}
	return dst, nil
}

// UnpackInto extracts the bits selected by mask from every element of
// src into dst, which must be an integer column of the same length.
// Values wider than dst's element type are truncated on store.
func UnpackInto(dst, src *las.Column, mask uint64) error {
	shift, err := LowestSetBit(mask)
	if err != nil {
		return err
	}
	if !src.Type.Integer() {
		return fmt.Errorf("unpack %s: source type %s is not an integer type", src.Name, src.Type)
	}
	if !dst.Type.Integer() {
		return fmt.Errorf("unpack %s: target type %s is not an integer type", src.Name, dst.Type)
	}
	if dst.Len() != src.Len() {
		return fmt.Errorf("unpack %s: length mismatch: source %d, target %d", src.Name, src.Len(), dst.Len())
	}
	if src.Type.Width == 1 && dst.Type.Width == 1 {
		m := uint8(mask)
		for i, b := range src.Data {
			dst.Data[i] = (b & m) >> shift
		}
		return nil
	}
	n := src.Len()
	for i := 0; i < n; i++ {
		dst.SetUint(i, (src.Uint(i)&mask)>>shift)
	}
	return nil
}

// Pack writes values into the bits selected by mask in a copy of dst
// and returns the copy. dst itself is never modified, so a range
// failure leaves the caller's data untouched.
func Pack(dst, values *las.Column, mask uint64) (*las.Column, error) {
	out := dst.Clone()
	if err := PackInPlace(out, values, mask); err != nil {
		return nil, err
	}
	return out, nil
}

// PackInPlace writes values into the bits selected by mask in dst,
// leaving all other bits alone. Every value is checked against the
// mask's capacity before any element is written: on a RangeError dst
// is bit-for-bit unchanged. The reported value is the largest one in
// values, mirroring a whole-batch reduction rather than a per-element
// scan.
func PackInPlace(dst, values *las.Column, mask uint64) error {
	shift, err := LowestSetBit(mask)
	if err != nil {
		return err
	}
	if !dst.Type.Integer() {
		return fmt.Errorf("pack %s: container type %s is not an integer type", dst.Name, dst.Type)
	}
	if !values.Type.Integer() {
		return fmt.Errorf("pack %s: value type %s is not an integer type", dst.Name, values.Type)
	}
	if dst.Len() != values.Len() {
		return fmt.Errorf("pack %s: length mismatch: container %d, values %d", dst.Name, dst.Len(), values.Len())
	}
	maxAllowed := mask >> shift

	if dst.Type.Width == 1 && values.Type.Width == 1 {
		var maxSeen uint8
		for _, v := range values.Data {
			if v > maxSeen {
				maxSeen = v
			}
		}
		if uint64(maxSeen) > maxAllowed {
			return &las.RangeError{Value: uint64(maxSeen), Max: maxAllowed}
		}
		m := uint8(mask)
		s := shift
		for i, b := range dst.Data {
			dst.Data[i] = b&^m | (values.Data[i]<<s)&m
		}
		return nil
	}

	n := values.Len()
	var maxSeen uint64
	for i := 0; i < n; i++ {
		if v := values.Uint(i); v > maxSeen {
			maxSeen = v
		}
	}
	if maxSeen > maxAllowed {
		return &las.RangeError{Value: maxSeen, Max: maxAllowed}
	}
	for i := 0; i < n; i++ {
		dst.SetUint(i, dst.Uint(i)&^mask|(values.Uint(i)<<shift)&mask)
	}
	return nil
}
