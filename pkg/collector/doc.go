// Package collector implements the composite collector tree.
//
// A tree is built from Nodes. Each Node wraps an optional Collector (the
// node's own metric logic) and an ordered list of child nodes. Calling
// Observe or Render on the root walks the whole tree depth-first in
// pre-order: the node does its own work first, then visits its children in
// the order they were added.
//
// Nodes hold plain pointers to their children. They never construct or
// release children; whoever assembles the tree owns them. A node must not
// appear as its own descendant. This is not checked.
//
// Render passes one *report.Document down the whole tree. Collectors are
// expected to write under a key unique to their metric kind; when two
// collectors use the same key the one visited last wins.
//
// The tree is not safe for concurrent use. Wrap individual collectors with
// Synchronized when they are fed from several goroutines.
package collector
