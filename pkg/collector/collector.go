// pkg/collector/collector.go
package collector

import (
	"sync"

	"github.com/biogo/hts/sam"

	"bamstats/pkg/report"
)

// Collector is the metric logic carried by a single node.
//
// Observe folds one record into the collector's private state. It must
// depend only on that state, the record and refs.
//
// Append writes the current state into doc, under a key unique to the
// collector. It must not modify the collector's state.
type Collector interface {
	Observe(rec *sam.Record, refs []*sam.Reference) error
	Append(doc *report.Document) error
}

// Func adapts a pair of functions to a Collector. Either may be nil.
type Func struct {
	ObserveFunc func(rec *sam.Record, refs []*sam.Reference) error
	AppendFunc  func(doc *report.Document) error
}

// Observe calls ObserveFunc when set.
func (f Func) Observe(rec *sam.Record, refs []*sam.Reference) error {
	if f.ObserveFunc == nil {
		return nil
	}
	return f.ObserveFunc(rec, refs)
}

// Append calls AppendFunc when set.
func (f Func) Append(doc *report.Document) error {
	if f.AppendFunc == nil {
		return nil
	}
	return f.AppendFunc(doc)
}

// Synchronized serializes Observe and Append on c behind one mutex.
func Synchronized(c Collector) Collector {
	if _, ok := c.(*syncCollector); ok {
		return c
	}
	return &syncCollector{c: c}
}

type syncCollector struct {
	mu sync.Mutex
	c  Collector
}

func (s *syncCollector) Observe(rec *sam.Record, refs []*sam.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Observe(rec, refs)
}

func (s *syncCollector) Append(doc *report.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Append(doc)
}
