package las

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestColumnUintRoundTrip(t *testing.T) {
	tests := []struct {
		typ    ElemType
		values []uint64
	}{
		{U8, []uint64{0, 1, 0x7F, 0xFF}},
		{U16, []uint64{0, 0x1234, 0xFFFF}},
		{U32, []uint64{0, 0xDEADBEEF, 0xFFFFFFFF}},
		{U64, []uint64{0, 0x0123456789ABCDEF, math.MaxUint64}},
		{I8, []uint64{0xFF, 0x80, 0x7F}},
		{I32, []uint64{0xFFFFFFFF, 0x80000000}},
	}
	for _, tt := range tests {
		c := NewColumn("v", tt.typ, len(tt.values))
		for i, v := range tt.values {
			c.SetUint(i, v)
		}
		for i, want := range tt.values {
			if got := c.Uint(i); got != want {
				t.Errorf("%s element %d: got %#x, want %#x", tt.typ, i, got, want)
			}
		}
	}
}

func TestColumnSetUintTruncates(t *testing.T) {
	c := NewColumn("v", U8, 1)
	c.SetUint(0, 0x1FF)
	if got := c.Uint(0); got != 0xFF {
		t.Errorf("got %#x, want 0xff", got)
	}
}

func TestColumnIntSignExtends(t *testing.T) {
	c := NewColumn("v", I8, 3)
	c.Data[0] = 0xFF // -1
	c.Data[1] = 0x80 // -128
	c.Data[2] = 0x7F // 127
	want := []int64{-1, -128, 127}
	for i, w := range want {
		if got := c.Int(i); got != w {
			t.Errorf("element %d: got %d, want %d", i, got, w)
		}
	}
}

func TestColumnIntUnsignedZeroExtends(t *testing.T) {
	c := NewColumn("v", U8, 1)
	c.Data[0] = 0xF6
	if got := c.Int(0); got != 246 {
		t.Errorf("got %d, want 246", got)
	}
}

func TestColumnFloat(t *testing.T) {
	f := NewColumn("t", F64, 1)
	binary.LittleEndian.PutUint64(f.Data, math.Float64bits(123.456))
	if got := f.Float(0); got != 123.456 {
		t.Errorf("f64: got %v, want 123.456", got)
	}

	s := NewColumn("a", I16, 1)
	s.SetUint(0, 0xFFF6) // -10
	if got := s.Float(0); got != -10 {
		t.Errorf("i16: got %v, want -10", got)
	}

	u := NewColumn("n", U16, 1)
	u.SetUint(0, 40000)
	if got := u.Float(0); got != 40000 {
		t.Errorf("u16: got %v, want 40000", got)
	}
}

func TestColumnUintPanicsOnFloat(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewColumn("t", F64, 1).Uint(0)
}

func TestColumnCloneIsDeep(t *testing.T) {
	c := NewColumn("v", U16, 2)
	c.SetUint(0, 7)
	d := c.Clone()
	d.SetUint(0, 9)
	if got := c.Uint(0); got != 7 {
		t.Errorf("clone write leaked into original: got %d, want 7", got)
	}
	if !c.Equal(c.Clone()) {
		t.Error("column not equal to its own clone")
	}
	if c.Equal(d) {
		t.Error("columns with different bytes compare equal")
	}
}
