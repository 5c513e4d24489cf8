// internal/stats/registry.go
package stats

import (
	"fmt"
	"sort"

	"bamstats/pkg/collector"
)

// Factory builds a collector from its configuration options.
type Factory func(opts Options) (collector.Collector, error)

// Kind → factory. Filled from init() blocks next to each collector.
var factories = map[string]Factory{}

// Register adds (or replaces) the factory for kind.
func Register(kind string, f Factory) { factories[kind] = f }

// Build constructs a collector of the given kind.
func Build(kind string, opts Options) (collector.Collector, error) {
	f, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown collector kind %q (known: %v)", kind, Kinds())
	}
	c, err := f(opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return c, nil
}

// Kinds lists the registered kinds, sorted.
func Kinds() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultKinds is the tree used when no configuration is given.
var DefaultKinds = []string{
	KindReads, KindRefCounts, KindMapQ, KindLength, KindFragment, KindBaseQuality, KindCoverage,
}
