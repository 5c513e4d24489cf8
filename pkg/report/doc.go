// Package report holds the document type collectors render into.
//
// A Document is a single mutable JSON object handed down a collector tree
// during one render pass. Every node writes its fields into the same
// instance; there is no per-node document and no merge step. Field values
// may be nil, bool, string, any integer width, finite floats, a nested
// *Document, []any, or one of []string, []int, []int64, []uint64 and
// []float64.
package report
