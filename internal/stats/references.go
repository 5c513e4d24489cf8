// internal/stats/references.go
package stats

import (
	"github.com/biogo/hts/sam"

	"bamstats/pkg/collector"
	"bamstats/pkg/report"
)

const KindRefCounts = "ref_counts"

// ReferenceCounts counts mapped reads per reference sequence. References are
// reported in the order of the reference context, including those with no
// reads.
type ReferenceCounts struct {
	key    string
	names  []string
	counts []uint64
}

// NewReferenceCounts returns a ReferenceCounts written under key.
func NewReferenceCounts(key string) *ReferenceCounts { return &ReferenceCounts{key: key} }

func (c *ReferenceCounts) Observe(rec *sam.Record, refs []*sam.Reference) error {
	c.learn(refs)
	if rec.Flags&sam.Unmapped != 0 {
		return nil
	}
	if rec.Ref == nil {
		return collector.Malformed("mapped read %q has no reference", rec.Name)
	}
	id := rec.Ref.ID()
	if id < 0 || id >= len(c.counts) || c.names[id] != rec.Ref.Name() {
		return collector.Malformed("read %q: reference %q (id %d) not in header", rec.Name, rec.Ref.Name(), id)
	}
	c.counts[id]++
	return nil
}

// learn extends the known reference list; the context is shared by a run so
// this only grows once.
func (c *ReferenceCounts) learn(refs []*sam.Reference) {
	for i := len(c.names); i < len(refs); i++ {
		c.names = append(c.names, refs[i].Name())
		c.counts = append(c.counts, 0)
	}
}

func (c *ReferenceCounts) Append(doc *report.Document) error {
	d := report.New()
	for i, name := range c.names {
		if err := d.Set(name, c.counts[i]); err != nil {
			return err
		}
	}
	return doc.Set(c.key, d)
}

func init() {
	Register(KindRefCounts, func(o Options) (collector.Collector, error) {
		key, err := o.String("key", KindRefCounts)
		if err != nil {
			return nil, err
		}
		return NewReferenceCounts(key), nil
	})
}
