// internal/stats/coverage.go
package stats

import (
	"github.com/biogo/hts/sam"

	"bamstats/pkg/collector"
	"bamstats/pkg/report"
)

const KindCoverage = "coverage"

// Coverage builds a per-base depth histogram from coordinate-sorted reads.
// Only aligned bases (M, = and X CIGAR operations) count; unmapped,
// secondary, QC-failed and duplicate reads are ignored. Positions with zero
// depth are not counted.
//
// Depths are kept in a sliding window starting at the last read's start;
// positions left of it are final and folded into the histogram.
type Coverage struct {
	key string

	ref     int // current reference id, -1 before the first read
	lastPos int
	base    int      // reference position of window[0]
	window  []uint32 // pending depths
	hist    counts
}

// NewCoverage returns a Coverage written under key.
func NewCoverage(key string) *Coverage {
	return &Coverage{key: key, ref: -1, hist: counts{}}
}

const coverageSkip = sam.Unmapped | sam.Secondary | sam.QCFail | sam.Duplicate

func (c *Coverage) Observe(rec *sam.Record, _ []*sam.Reference) error {
	if rec.Flags&coverageSkip != 0 {
		return nil
	}
	if rec.Ref == nil {
		return collector.Malformed("mapped read %q has no reference", rec.Name)
	}
	if len(rec.Cigar) == 0 {
		return collector.Malformed("mapped read %q has no CIGAR", rec.Name)
	}
	id := rec.Ref.ID()
	switch {
	case id < c.ref:
		return collector.Malformed("input not coordinate sorted: %q on %s after reference id %d",
			rec.Name, rec.Ref.Name(), c.ref)
	case id != c.ref:
		c.flush(len(c.window))
		c.ref, c.base, c.lastPos = id, rec.Pos, rec.Pos
	case rec.Pos < c.lastPos:
		return collector.Malformed("input not coordinate sorted: %q at %s:%d after %d",
			rec.Name, rec.Ref.Name(), rec.Pos, c.lastPos)
	default:
		c.flush(rec.Pos - c.base)
		c.base, c.lastPos = rec.Pos, rec.Pos
	}

	pos := rec.Pos
	for _, op := range rec.Cigar {
		con := op.Type().Consumes()
		if con.Reference == 0 {
			continue
		}
		n := op.Len()
		if con.Query != 0 {
			c.cover(pos-c.base, n)
		}
		pos += n
	}
	return nil
}

// flush finalizes the first k window positions.
func (c *Coverage) flush(k int) {
	if k > len(c.window) {
		k = len(c.window)
	}
	for _, d := range c.window[:k] {
		if d > 0 {
			c.hist[int(d)]++
		}
	}
	c.window = append(c.window[:0], c.window[k:]...)
}

func (c *Coverage) cover(off, n int) {
	if need := off + n; need > len(c.window) {
		c.window = append(c.window, make([]uint32, need-len(c.window))...)
	}
	for i := off; i < off+n; i++ {
		c.window[i]++
	}
}

// snapshot returns the histogram including pending window depths, leaving
// c untouched.
func (c *Coverage) snapshot() counts {
	h := make(counts, len(c.hist))
	for k, v := range c.hist {
		h[k] = v
	}
	for _, d := range c.window {
		if d > 0 {
			h[int(d)]++
		}
	}
	return h
}

func (c *Coverage) Append(doc *report.Document) error {
	h := c.snapshot()
	var covered, sum uint64
	for depth, n := range h {
		covered += n
		sum += uint64(depth) * n
	}
	mean := 0.0
	if covered > 0 {
		mean = float64(sum) / float64(covered)
	}
	d := report.New()
	if err := d.Set("covered_bases", covered); err != nil {
		return err
	}
	if err := d.Set("mean_depth", mean); err != nil {
		return err
	}
	hd, err := h.document()
	if err != nil {
		return err
	}
	if err := d.Set("hist", hd); err != nil {
		return err
	}
	return doc.Set(c.key, d)
}

func init() {
	Register(KindCoverage, func(o Options) (collector.Collector, error) {
		key, err := o.String("key", KindCoverage)
		if err != nil {
			return nil, err
		}
		return NewCoverage(key), nil
	})
}
