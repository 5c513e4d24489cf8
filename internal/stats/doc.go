// Package stats holds the concrete alignment collectors: read/flag
// counters, histograms, per-reference counts and depth coverage.
//
// Every collector writes under its own key and registers a factory under a
// kind name so trees can be assembled from configuration (see Build).
package stats
