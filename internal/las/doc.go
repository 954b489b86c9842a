// Package las defines the point-record data model shared by the codec,
// I/O, and storage layers: fixed-width element types, named columnar
// batches, and compiled point-format descriptors with their
// composed-field bit masks.
//
// A point format describes one record layout: an ordered list of typed
// fields, some of which are "composed", meaning a single container byte
// (or wider integer) whose bits are shared by several independent
// sub-fields, each addressed by a mask. Formats are compiled once (mask
// shifts, value ceilings, and expanded column indexes resolved up
// front) and are immutable afterwards, so the per-batch hot paths in
// internal/las/packing never resolve names or shifts.
package las
