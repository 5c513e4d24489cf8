// Package pipeline streams decoded alignment records through a collector
// tree and emits reports.
//
// A reader goroutine decodes records ahead of a single observer goroutine,
// so the tree itself is only ever touched from one goroutine. The only
// contract to implement for input is bamio.Source.
package pipeline
