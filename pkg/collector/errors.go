// pkg/collector/errors.go
package collector

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is the sentinel collectors wrap when a record lacks
// what they need (a reference, a CIGAR, sorted order, ...).
var ErrMalformedRecord = errors.New("malformed record")

// RecordError reports a collector that could not process a record.
type RecordError struct {
	Node string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("collector %q: observe: %v", e.Node, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// RenderError reports a collector that could not write its report fields.
// The document may be partially populated.
type RenderError struct {
	Node string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("collector %q: render: %v", e.Node, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Malformed returns an error wrapping ErrMalformedRecord.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}

// ErrorPolicy decides what a node does when its own collector or a child
// subtree fails.
type ErrorPolicy int

const (
	// FailFast stops the traversal at the first failure.
	FailFast ErrorPolicy = iota
	// ContinueOnError keeps visiting the remaining nodes and returns all
	// failures joined.
	ContinueOnError
)

func (p ErrorPolicy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case ContinueOnError:
		return "continue"
	default:
		return fmt.Sprintf("ErrorPolicy(%d)", int(p))
	}
}

// ParseErrorPolicy accepts "fail-fast"/"fail" and "continue".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "", "fail", "fail-fast":
		return FailFast, nil
	case "continue":
		return ContinueOnError, nil
	}
	return FailFast, fmt.Errorf("unknown error policy %q", s)
}
