// internal/tree/tree.go
package tree

import (
	"fmt"

	"bamstats/internal/config"
	"bamstats/internal/stats"
	"bamstats/pkg/collector"
)

// RootName names the implicit group every configured tree hangs from.
const RootName = "root"

// Build assembles a collector tree from specs under a root group using
// rootPolicy. An empty spec list yields the default tree.
func Build(specs []config.CollectorSpec, rootPolicy collector.ErrorPolicy) (*collector.Node, error) {
	root := collector.NewGroup(RootName, collector.WithErrorPolicy(rootPolicy))
	if len(specs) == 0 {
		for _, kind := range stats.DefaultKinds {
			c, err := stats.Build(kind, nil)
			if err != nil {
				return nil, err
			}
			root.AddChild(collector.New(c, collector.WithName(kind)))
		}
		return root, nil
	}
	for i, s := range specs {
		n, err := buildNode(s, fmt.Sprintf("collectors[%d]", i))
		if err != nil {
			return nil, err
		}
		root.AddChild(n)
	}
	return root, nil
}

func buildNode(s config.CollectorSpec, path string) (*collector.Node, error) {
	policy, err := collector.ParseErrorPolicy(s.Policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	name := s.Name
	if name == "" {
		name = s.Kind
	}
	var c collector.Collector
	if s.Kind != config.GroupKind {
		c, err = stats.Build(s.Kind, stats.Options(s.Options))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	n := collector.New(c, collector.WithName(name), collector.WithErrorPolicy(policy))
	for i, cs := range s.Children {
		child, err := buildNode(cs, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

// Describe lists the tree as indented "name (kind)" lines, for logs.
func Describe(root *collector.Node) []string {
	var out []string
	_ = root.Walk(func(depth int, n *collector.Node) error {
		kind := "group"
		if n.Collector() != nil {
			kind = fmt.Sprintf("%T", n.Collector())
		}
		out = append(out, fmt.Sprintf("%*s%s (%s)", depth*2, "", n.Name(), kind))
		return nil
	})
	return out
}

// Size counts the nodes in the tree.
func Size(root *collector.Node) int {
	n := 0
	_ = root.Walk(func(int, *collector.Node) error { n++; return nil })
	return n
}
