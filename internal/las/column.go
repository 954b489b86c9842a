package las

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Column is one named attribute of a record batch: a fixed number of
// fixed-width elements in a contiguous little-endian buffer, exactly
// as they would sit on disk. Keeping the raw byte layout means plain
// fields copy through the codec byte-identically and integer fields
// can be masked without any decode step.
type Column struct {
	Name string
	Type ElemType
	Data []byte // len == Len() * Type.Width
}

// NewColumn allocates a zero-filled column of n elements.
func NewColumn(name string, typ ElemType, n int) *Column {
	return &Column{
		Name: name,
		Type: typ,
		Data: make([]byte, n*typ.Width),
	}
}

// Len returns the number of elements in the column.
func (c *Column) Len() int {
	return len(c.Data) / c.Type.Width
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Type: c.Type, Data: make([]byte, len(c.Data))}
	copy(out.Data, c.Data)
	return out
}

// Equal reports whether the two columns have the same name, type, and
// element bytes.
func (c *Column) Equal(other *Column) bool {
	return c.Name == other.Name && c.Type == other.Type && bytes.Equal(c.Data, other.Data)
}

// Uint returns element i as a raw bit pattern, zero-extended to 64
// bits. No sign extension is applied: mask arithmetic operates on
// container bits, not on interpreted values. Only integer element
// types support Uint; calling it on a float or raw column panics.
func (c *Column) Uint(i int) uint64 {
	if !c.Type.Integer() {
		panic(fmt.Sprintf("las: Uint on %s column %q", c.Type, c.Name))
	}
	off := i * c.Type.Width
	switch c.Type.Width {
	case 1:
		return uint64(c.Data[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(c.Data[off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(c.Data[off:]))
	default:
		return binary.LittleEndian.Uint64(c.Data[off:])
	}
}

// SetUint stores the low Type.Width bytes of v into element i, the
// same truncation a cast to the element type performs.
func (c *Column) SetUint(i int, v uint64) {
	if !c.Type.Integer() {
		panic(fmt.Sprintf("las: SetUint on %s column %q", c.Type, c.Name))
	}
	off := i * c.Type.Width
	switch c.Type.Width {
	case 1:
		c.Data[off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(c.Data[off:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(c.Data[off:], uint32(v))
	default:
		binary.LittleEndian.PutUint64(c.Data[off:], v)
	}
}

// Int returns element i as a signed value: two's-complement columns
// sign-extend, unsigned columns zero-extend.
func (c *Column) Int(i int) int64 {
	u := c.Uint(i)
	if c.Type.Kind == KindUint {
		return int64(u)
	}
	switch c.Type.Width {
	case 1:
		return int64(int8(u))
	case 2:
		return int64(int16(u))
	case 4:
		return int64(int32(u))
	default:
		return int64(u)
	}
}

// Float returns element i as a float64 under the column's kind:
// float columns decode their IEEE bits, signed columns sign-extend,
// unsigned columns zero-extend. Raw columns panic.
func (c *Column) Float(i int) float64 {
	switch c.Type.Kind {
	case KindFloat:
		off := i * c.Type.Width
		if c.Type.Width == 4 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(c.Data[off:])))
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(c.Data[off:]))
	case KindInt:
		return float64(c.Int(i))
	case KindUint:
		return float64(c.Uint(i))
	}
	panic(fmt.Sprintf("las: Float on %s column %q", c.Type, c.Name))
}
