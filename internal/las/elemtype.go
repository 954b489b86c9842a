package las

import "fmt"

// Kind classifies the interpretation of a column's element bytes.
type Kind uint8

const (
	KindUint  Kind = iota // unsigned integer
	KindInt               // two's-complement signed integer
	KindFloat             // IEEE 754 binary32/binary64
	KindRaw               // opaque bytes, carried verbatim
)

// ElemType describes the fixed-width, little-endian element type of a
// column. Element layout in memory matches the on-disk record layout
// byte for byte.
type ElemType struct {
	Kind  Kind
	Width int // bytes per element
}

// The element types used by the standard point formats.
var (
	U8  = ElemType{KindUint, 1}
	U16 = ElemType{KindUint, 2}
	U32 = ElemType{KindUint, 4}
	U64 = ElemType{KindUint, 8}
	I8  = ElemType{KindInt, 1}
	I16 = ElemType{KindInt, 2}
	I32 = ElemType{KindInt, 4}
	I64 = ElemType{KindInt, 8}
	F32 = ElemType{KindFloat, 4}
	F64 = ElemType{KindFloat, 8}
)

// RawType returns the element type of an opaque per-record byte run of
// the given width, such as the extra bytes some producers append to
// standard records. Raw columns pass through unpack/repack untouched
// but never participate in mask arithmetic.
func RawType(width int) ElemType {
	return ElemType{KindRaw, width}
}

// Integer reports whether elements of this type can be masked and
// shifted as raw bit patterns.
func (t ElemType) Integer() bool {
	return t.Kind == KindUint || t.Kind == KindInt
}

// Valid reports whether the kind/width combination is one the codec
// and I/O layers can handle.
func (t ElemType) Valid() bool {
	switch t.Kind {
	case KindUint, KindInt:
		return t.Width == 1 || t.Width == 2 || t.Width == 4 || t.Width == 8
	case KindFloat:
		return t.Width == 4 || t.Width == 8
	case KindRaw:
		return t.Width >= 1
	}
	return false
}

func (t ElemType) String() string {
	switch t.Kind {
	case KindUint:
		return fmt.Sprintf("u%d", t.Width*8)
	case KindInt:
		return fmt.Sprintf("i%d", t.Width*8)
	case KindFloat:
		return fmt.Sprintf("f%d", t.Width*8)
	case KindRaw:
		return fmt.Sprintf("raw%d", t.Width)
	}
	return fmt.Sprintf("elemtype(%d,%d)", t.Kind, t.Width)
}
