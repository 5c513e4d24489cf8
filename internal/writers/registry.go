// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"sort"

	"bamstats/pkg/api"
)

// StartFunc spins up a writer goroutine for reports in one format. The
// caller closes the returned channel and then waits on the error channel.
type StartFunc func(out io.Writer, bufSize int) (chan<- api.ReportV1, <-chan error)

// Report writers (format → starter). Registered from init() blocks.
var ReportWriters = map[string]StartFunc{}

// Register adds a format (idempotent last-wins).
func Register(format string, fn StartFunc) { ReportWriters[format] = fn }

// Formats lists the registered formats, sorted.
func Formats() []string {
	out := make([]string, 0, len(ReportWriters))
	for f := range ReportWriters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Start dispatches to the writer registered for format. For an unknown
// format the input is drained and the error delivered on the error channel.
func Start(format string, out io.Writer, bufSize int) (chan<- api.ReportV1, <-chan error) {
	fn, ok := ReportWriters[format]
	if ok {
		return fn(out, bufSize)
	}
	in := make(chan api.ReportV1, 1)
	done := make(chan error, 1)
	go func() {
		for range in {
		}
		done <- fmt.Errorf("unknown report format %q (no writer registered)", format)
	}()
	return in, done
}
