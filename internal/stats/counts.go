// internal/stats/counts.go
package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/biogo/hts/sam"

	"bamstats/pkg/collector"
	"bamstats/pkg/report"
)

const (
	KindReads     = "reads"
	KindFlagCount = "flag_count"
)

// ReadCounts tallies reads by SAM flag category, flagstat style.
type ReadCounts struct {
	key string

	total, mapped, unmapped  uint64
	forward, reverse         uint64
	paired, properPairs      uint64
	bothMapped, singletons   uint64
	firstMates, secondMates  uint64
	duplicates, failedQC     uint64
	secondary, supplementary uint64
}

// NewReadCounts returns a ReadCounts written under key.
func NewReadCounts(key string) *ReadCounts { return &ReadCounts{key: key} }

func (c *ReadCounts) Observe(rec *sam.Record, _ []*sam.Reference) error {
	f := rec.Flags
	c.total++
	if f&sam.Secondary != 0 {
		c.secondary++
	}
	if f&sam.Supplementary != 0 {
		c.supplementary++
	}
	if f&sam.QCFail != 0 {
		c.failedQC++
	}
	if f&sam.Duplicate != 0 {
		c.duplicates++
	}
	mapped := f&sam.Unmapped == 0
	if mapped {
		c.mapped++
		if f&sam.Reverse != 0 {
			c.reverse++
		} else {
			c.forward++
		}
	} else {
		c.unmapped++
	}
	if f&sam.Paired == 0 {
		return nil
	}
	c.paired++
	if f&sam.Read1 != 0 {
		c.firstMates++
	}
	if f&sam.Read2 != 0 {
		c.secondMates++
	}
	if f&sam.ProperPair != 0 {
		c.properPairs++
	}
	if mapped {
		if f&sam.MateUnmapped != 0 {
			c.singletons++
		} else {
			c.bothMapped++
		}
	}
	return nil
}

func (c *ReadCounts) Append(doc *report.Document) error {
	d := report.New()
	for _, kv := range []struct {
		k string
		v uint64
	}{
		{"total", c.total},
		{"mapped", c.mapped},
		{"unmapped", c.unmapped},
		{"forward", c.forward},
		{"reverse", c.reverse},
		{"paired", c.paired},
		{"proper_pairs", c.properPairs},
		{"both_mates_mapped", c.bothMapped},
		{"singletons", c.singletons},
		{"first_mates", c.firstMates},
		{"second_mates", c.secondMates},
		{"duplicates", c.duplicates},
		{"failed_qc", c.failedQC},
		{"secondary", c.secondary},
		{"supplementary", c.supplementary},
	} {
		if err := d.Set(kv.k, kv.v); err != nil {
			return err
		}
	}
	return doc.Set(c.key, d)
}

// FlagCounter counts records that carry every Require bit and none of the
// Exclude bits.
type FlagCounter struct {
	key              string
	Require, Exclude sam.Flags
	n                uint64
}

// NewFlagCounter returns a FlagCounter written under key.
func NewFlagCounter(key string, require, exclude sam.Flags) *FlagCounter {
	return &FlagCounter{key: key, Require: require, Exclude: exclude}
}

func (c *FlagCounter) Observe(rec *sam.Record, _ []*sam.Reference) error {
	if rec.Flags&c.Require == c.Require && rec.Flags&c.Exclude == 0 {
		c.n++
	}
	return nil
}

func (c *FlagCounter) Append(doc *report.Document) error {
	return doc.Object(c.key).Set("count", c.n)
}

// Count returns the number of matching records seen so far.
func (c *FlagCounter) Count() uint64 { return c.n }

var flagNames = map[string]sam.Flags{
	"paired":        sam.Paired,
	"proper_pair":   sam.ProperPair,
	"unmapped":      sam.Unmapped,
	"mate_unmapped": sam.MateUnmapped,
	"reverse":       sam.Reverse,
	"mate_reverse":  sam.MateReverse,
	"read1":         sam.Read1,
	"read2":         sam.Read2,
	"secondary":     sam.Secondary,
	"qc_fail":       sam.QCFail,
	"duplicate":     sam.Duplicate,
	"supplementary": sam.Supplementary,
}

// ParseFlags ORs together named flags (e.g. "paired", "duplicate").
func ParseFlags(names []string) (sam.Flags, error) {
	var f sam.Flags
	for _, n := range names {
		v, ok := flagNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			known := make([]string, 0, len(flagNames))
			for k := range flagNames {
				known = append(known, k)
			}
			sort.Strings(known)
			return 0, fmt.Errorf("unknown flag %q (known: %s)", n, strings.Join(known, ", "))
		}
		f |= v
	}
	return f, nil
}

func init() {
	Register(KindReads, func(o Options) (collector.Collector, error) {
		key, err := o.String("key", KindReads)
		if err != nil {
			return nil, err
		}
		return NewReadCounts(key), nil
	})
	Register(KindFlagCount, func(o Options) (collector.Collector, error) {
		key, err := o.String("key", "")
		if err != nil {
			return nil, err
		}
		if key == "" {
			return nil, fmt.Errorf("option %q is required", "key")
		}
		req, err := o.Strings("require")
		if err != nil {
			return nil, err
		}
		exc, err := o.Strings("exclude")
		if err != nil {
			return nil, err
		}
		rf, err := ParseFlags(req)
		if err != nil {
			return nil, err
		}
		ef, err := ParseFlags(exc)
		if err != nil {
			return nil, err
		}
		return NewFlagCounter(key, rf, ef), nil
	})
}
