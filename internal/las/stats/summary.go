// Package stats computes per-field summaries of record batches for
// inspection, reporting, and the ingest inventory.
package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pointpack/internal/las"
)

// FieldSummary describes the value distribution of one column.
// Integer and float columns are summarized through float64; Distinct
// is only tracked for single-byte unsigned columns, where it is the
// number of codes in use (classification, return counters, flags).
type FieldSummary struct {
	Name     string
	Min      float64
	Max      float64
	Mean     float64
	StdDev   float64
	Distinct int
}

// Summarize summarizes every numeric column of the batch, in column
// order. Raw columns are skipped.
func Summarize(b *las.Batch) []FieldSummary {
	out := make([]FieldSummary, 0, b.NumColumns())
	for i := 0; i < b.NumColumns(); i++ {
		c := b.ColumnAt(i)
		if c.Type.Kind == las.KindRaw {
			continue
		}
		s, err := SummarizeColumn(c)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SummarizeColumn summarizes one numeric column.
func SummarizeColumn(c *las.Column) (FieldSummary, error) {
	if c.Type.Kind == las.KindRaw {
		return FieldSummary{}, fmt.Errorf("cannot summarize raw column %q", c.Name)
	}
	s := FieldSummary{Name: c.Name}
	n := c.Len()
	if n == 0 {
		return s, nil
	}

	values := columnFloats(c)
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Mean = stat.Mean(values, nil)
	if n > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	if c.Type == las.U8 {
		var seen [256]bool
		for _, b := range c.Data {
			seen[b] = true
		}
		for _, ok := range seen {
			if ok {
				s.Distinct++
			}
		}
	}
	return s, nil
}

// Quantiles returns the empirical quantiles of a numeric column at the
// given probabilities in [0, 1].
func Quantiles(c *las.Column, probs []float64) ([]float64, error) {
	if c.Type.Kind == las.KindRaw {
		return nil, fmt.Errorf("cannot summarize raw column %q", c.Name)
	}
	if c.Len() == 0 {
		return nil, fmt.Errorf("column %q is empty", c.Name)
	}
	values := columnFloats(c)
	sort.Float64s(values)
	out := make([]float64, len(probs))
	for i, p := range probs {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("quantile %v outside [0, 1]", p)
		}
		out[i] = stat.Quantile(p, stat.Empirical, values, nil)
	}
	return out, nil
}

// ValueCounts tallies the values of a single-byte column, for
// histograms over classification codes and return counters.
func ValueCounts(c *las.Column) ([256]uint64, error) {
	var counts [256]uint64
	if c.Type.Width != 1 || !c.Type.Integer() {
		return counts, fmt.Errorf("value counts need a single-byte integer column, %q is %s", c.Name, c.Type)
	}
	for _, b := range c.Data {
		counts[b]++
	}
	return counts, nil
}

// Scaled converts a raw integer coordinate column to real units with
// the header's scale and offset.
func Scaled(c *las.Column, scale, offset float64) []float64 {
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = float64(c.Int(i))*scale + offset
	}
	return out
}

func columnFloats(c *las.Column) []float64 {
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.Float(i)
	}
	return out
}
