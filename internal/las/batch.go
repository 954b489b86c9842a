package las

import "fmt"

// Batch is a fixed-length columnar buffer of point records: one column
// per schema field, every column holding the same number of elements.
// Record order is positional (element i of every column belongs to
// record i) and is preserved by every transform in this module.
type Batch struct {
	n       int
	columns []*Column
	index   map[string]int
}

// NewBatch allocates a zero-filled batch of n records with one column
// per schema field, in schema order.
func NewBatch(schema []Field, n int) *Batch {
	b := &Batch{
		n:       n,
		columns: make([]*Column, len(schema)),
		index:   make(map[string]int, len(schema)),
	}
	for i, f := range schema {
		b.columns[i] = NewColumn(f.Name, f.Type, n)
		b.index[f.Name] = i
	}
	return b
}

// NewBatchFromColumns builds a batch over the given columns. All
// columns must have the same length and distinct names.
func NewBatchFromColumns(columns []*Column) (*Batch, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("batch needs at least one column")
	}
	b := &Batch{
		n:       columns[0].Len(),
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c.Len() != b.n {
			return nil, fmt.Errorf("column %q holds %d elements, want %d", c.Name, c.Len(), b.n)
		}
		if _, dup := b.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		b.index[c.Name] = i
	}
	return b, nil
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int { return b.n }

// NumColumns returns the number of columns.
func (b *Batch) NumColumns() int { return len(b.columns) }

// Column returns the named column, or false when the batch has no such
// column.
func (b *Batch) Column(name string) (*Column, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	return b.columns[i], true
}

// ColumnAt returns the column at schema position i.
func (b *Batch) ColumnAt(i int) *Column { return b.columns[i] }

// Schema returns the batch's fields in column order.
func (b *Batch) Schema() []Field {
	out := make([]Field, len(b.columns))
	for i, c := range b.columns {
		out[i] = Field{Name: c.Name, Type: c.Type}
	}
	return out
}

// Clone returns a deep copy of the batch.
func (b *Batch) Clone() *Batch {
	out := &Batch{
		n:       b.n,
		columns: make([]*Column, len(b.columns)),
		index:   make(map[string]int, len(b.index)),
	}
	for i, c := range b.columns {
		out.columns[i] = c.Clone()
		out.index[c.Name] = i
	}
	return out
}

// Equal reports whether the two batches have identical schemas and
// bit-identical column contents.
func (b *Batch) Equal(other *Batch) bool {
	if b.n != other.n || len(b.columns) != len(other.columns) {
		return false
	}
	for i, c := range b.columns {
		if !c.Equal(other.columns[i]) {
			return false
		}
	}
	return true
}
