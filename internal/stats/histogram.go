// internal/stats/histogram.go
package stats

import (
	"sort"
	"strconv"

	"github.com/biogo/hts/sam"

	"bamstats/pkg/collector"
	"bamstats/pkg/report"
)

const (
	KindMapQ        = "mapq_hist"
	KindLength      = "length_hist"
	KindFragment    = "frag_hist"
	KindBaseQuality = "baseq_hist"
)

// counts is an integer-keyed histogram.
type counts map[int]uint64

// document renders h with numerically sorted keys.
func (h counts) document() (*report.Document, error) {
	keys := make([]int, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	d := report.New()
	for _, k := range keys {
		if err := d.Set(strconv.Itoa(k), h[k]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Histogram counts integer values extracted from each record.
type Histogram struct {
	key     string
	extract func(rec *sam.Record, add func(int))
	h       counts
}

// NewHistogram returns a histogram written under key. extract calls add
// once per value it pulls out of a record (zero or more times).
func NewHistogram(key string, extract func(rec *sam.Record, add func(int))) *Histogram {
	return &Histogram{key: key, extract: extract, h: counts{}}
}

func (x *Histogram) Observe(rec *sam.Record, _ []*sam.Reference) error {
	x.extract(rec, x.add)
	return nil
}

func (x *Histogram) add(v int) { x.h[v]++ }

func (x *Histogram) Append(doc *report.Document) error {
	d, err := x.h.document()
	if err != nil {
		return err
	}
	return doc.Set(x.key, d)
}

// MappingQuality histograms MAPQ of mapped reads; 255 (unavailable) is skipped.
func MappingQuality(key string) *Histogram {
	return NewHistogram(key, func(rec *sam.Record, add func(int)) {
		if rec.Flags&sam.Unmapped != 0 || rec.MapQ == 255 {
			return
		}
		add(int(rec.MapQ))
	})
}

// ReadLength histograms the length of the read sequence.
func ReadLength(key string) *Histogram {
	return NewHistogram(key, func(rec *sam.Record, add func(int)) {
		if rec.Seq.Length > 0 {
			add(rec.Seq.Length)
		}
	})
}

// FragmentLength histograms |TLEN| once per properly paired template
// (first mate only). Lengths above max are dropped when maxLen > 0.
func FragmentLength(key string, maxLen int) *Histogram {
	return NewHistogram(key, func(rec *sam.Record, add func(int)) {
		const want = sam.Paired | sam.ProperPair | sam.Read1
		if rec.Flags&want != want || rec.Flags&(sam.Unmapped|sam.MateUnmapped) != 0 {
			return
		}
		l := rec.TempLen
		if l < 0 {
			l = -l
		}
		if l == 0 || (maxLen > 0 && l > maxLen) {
			return
		}
		add(l)
	})
}

// BaseQuality histograms every known base quality of every read.
func BaseQuality(key string) *Histogram {
	return NewHistogram(key, func(rec *sam.Record, add func(int)) {
		for _, q := range rec.Qual {
			if q != 0xff {
				add(int(q))
			}
		}
	})
}

func init() {
	Register(KindMapQ, func(o Options) (collector.Collector, error) {
		key, err := o.String("key", KindMapQ)
		if err != nil {
			return nil, err
		}
		return MappingQuality(key), nil
	})
	Register(KindLength, func(o Options) (collector.Collector, error) {
		key, err := o.String("key", KindLength)
		if err != nil {
			return nil, err
		}
		return ReadLength(key), nil
	})
	Register(KindFragment, func(o Options) (collector.Collector, error) {
		key, err := o.String("key", KindFragment)
		if err != nil {
			return nil, err
		}
		maxLen, err := o.Int("max", 0)
		if err != nil {
			return nil, err
		}
		return FragmentLength(key, maxLen), nil
	})
	Register(KindBaseQuality, func(o Options) (collector.Collector, error) {
		key, err := o.String("key", KindBaseQuality)
		if err != nil {
			return nil, err
		}
		return BaseQuality(key), nil
	})
}
