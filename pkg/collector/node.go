// pkg/collector/node.go
package collector

import (
	"errors"

	"github.com/biogo/hts/sam"

	"bamstats/pkg/report"
)

// Node is one element of a collector tree.
type Node struct {
	name     string
	self     Collector
	policy   ErrorPolicy
	children []*Node
}

// Option configures a Node.
type Option func(*Node)

// WithName sets the name used in errors and logs.
func WithName(name string) Option { return func(n *Node) { n.name = name } }

// WithErrorPolicy sets how the node reacts to failures in itself and in
// its child subtrees. The default is FailFast.
func WithErrorPolicy(p ErrorPolicy) Option { return func(n *Node) { n.policy = p } }

// New returns a node running c. A nil c yields a pure grouping node.
func New(c Collector, opts ...Option) *Node {
	n := &Node{self: c}
	for _, o := range opts {
		o(n)
	}
	return n
}

// NewGroup returns a node without metric logic of its own.
func NewGroup(name string, opts ...Option) *Node {
	return New(nil, append([]Option{WithName(name)}, opts...)...)
}

// Name returns the name used in errors and logs.
func (n *Node) Name() string { return n.name }

// Collector returns the node's own collector, nil for groups.
func (n *Node) Collector() Collector { return n.self }

// Policy returns the node's error policy.
func (n *Node) Policy() ErrorPolicy { return n.policy }

// Len reports the number of direct children.
func (n *Node) Len() int { return len(n.children) }

// Children returns a copy of the child list in insertion order.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// AddChild appends child. Duplicates are allowed; nil is ignored.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.children = append(n.children, child)
}

// RemoveChild drops the first occurrence of child (pointer identity) and
// reports whether anything was removed.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAll drops every occurrence of child and returns how many were
// removed.
func (n *Node) RemoveAll(child *Node) int {
	kept := n.children[:0:0]
	for _, c := range n.children {
		if c != child {
			kept = append(kept, c)
		}
	}
	removed := len(n.children) - len(kept)
	if removed > 0 {
		n.children = kept
	}
	return removed
}

// Observe feeds rec to this node's collector and then to every child
// subtree, in insertion order.
func (n *Node) Observe(rec *sam.Record, refs []*sam.Reference) error {
	var errs []error
	if n.self != nil {
		if err := n.self.Observe(rec, refs); err != nil {
			err = n.recordError(err)
			if n.policy == FailFast {
				return err
			}
			errs = append(errs, err)
		}
	}
	// Iterate over the live slice so a child added before we get here is
	// visited in this pass.
	for i := 0; i < len(n.children); i++ {
		if err := n.children[i].Observe(rec, refs); err != nil {
			if n.policy == FailFast {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Render writes this subtree into doc and returns it. A nil doc is
// replaced by a fresh one. On error the returned document may be
// partially populated.
func (n *Node) Render(doc *report.Document) (*report.Document, error) {
	if doc == nil {
		doc = report.New()
	}
	return doc, n.render(doc)
}

func (n *Node) render(doc *report.Document) error {
	var errs []error
	if n.self != nil {
		if err := n.self.Append(doc); err != nil {
			err = n.renderError(err)
			if n.policy == FailFast {
				return err
			}
			errs = append(errs, err)
		}
	}
	for i := 0; i < len(n.children); i++ {
		if err := n.children[i].render(doc); err != nil {
			if n.policy == FailFast {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Walk visits the subtree in pre-order. depth is 0 for n. Returning an
// error stops the walk.
func (n *Node) Walk(fn func(depth int, node *Node) error) error {
	return n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node) error) error {
	if err := fn(depth, n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.walk(depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) recordError(err error) error {
	var re *RecordError
	if errors.As(err, &re) {
		return err
	}
	return &RecordError{Node: n.name, Err: err}
}

func (n *Node) renderError(err error) error {
	var re *RenderError
	if errors.As(err, &re) {
		return err
	}
	return &RenderError{Node: n.name, Err: err}
}
