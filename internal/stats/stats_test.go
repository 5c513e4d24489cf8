package stats

import (
	"errors"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bamstats/pkg/collector"
	"bamstats/pkg/report"
)

func testRefs(t *testing.T, names ...string) []*sam.Reference {
	t.Helper()
	var rs []*sam.Reference
	for _, n := range names {
		r, err := sam.NewReference(n, "", "", 100000, nil, nil)
		require.NoError(t, err)
		rs = append(rs, r)
	}
	h, err := sam.NewHeader(nil, rs)
	require.NoError(t, err)
	return h.Refs()
}

func mapped(name string, ref *sam.Reference, pos int, cigar sam.Cigar, flags sam.Flags) *sam.Record {
	return &sam.Record{
		Name: name, Ref: ref, Pos: pos, MapQ: 60, Cigar: cigar, Flags: flags,
		MatePos: -1, Seq: sam.NewSeq([]byte("ACGTACGTAC")),
		Qual: []byte{30, 30, 30, 20, 20, 20, 20, 10, 10, 0xff},
	}
}

func match(n int) sam.Cigar { return sam.Cigar{sam.NewCigarOp(sam.CigarMatch, n)} }

func render(t *testing.T, c collector.Collector) map[string]any {
	t.Helper()
	doc := report.New()
	require.NoError(t, c.Append(doc))
	return doc.Map()
}

func TestReadCounts(t *testing.T) {
	refs := testRefs(t, "chr1")
	c := NewReadCounts(KindReads)
	recs := []*sam.Record{
		mapped("a", refs[0], 1, match(10), sam.Paired|sam.ProperPair|sam.Read1),
		mapped("a", refs[0], 50, match(10), sam.Paired|sam.ProperPair|sam.Read2|sam.Reverse),
		mapped("b", refs[0], 80, match(10), sam.Paired|sam.Read1|sam.MateUnmapped|sam.Duplicate),
		{Name: "b", Pos: -1, MatePos: -1, Flags: sam.Paired | sam.Read2 | sam.Unmapped},
		mapped("c", refs[0], 90, match(10), sam.Secondary|sam.QCFail),
	}
	for _, r := range recs {
		require.NoError(t, c.Observe(r, refs))
	}
	got := render(t, c)[KindReads].(map[string]any)
	want := map[string]uint64{
		"total": 5, "mapped": 4, "unmapped": 1, "forward": 3, "reverse": 1,
		"paired": 4, "proper_pairs": 2, "both_mates_mapped": 2, "singletons": 1,
		"first_mates": 2, "second_mates": 2, "duplicates": 1, "failed_qc": 1,
		"secondary": 1, "supplementary": 0,
	}
	for k, v := range want {
		assert.Equal(t, v, got[k], k)
	}
}

func TestFlagCounter(t *testing.T) {
	c := NewFlagCounter("dups", sam.Duplicate, sam.Secondary)
	for _, f := range []sam.Flags{sam.Duplicate, 0, sam.Duplicate | sam.Secondary, sam.Duplicate | sam.Paired} {
		require.NoError(t, c.Observe(&sam.Record{Flags: f}, nil))
	}
	assert.Equal(t, uint64(2), c.Count())
	assert.Equal(t, map[string]any{"dups": map[string]any{"count": uint64(2)}}, render(t, c))
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"paired", " Duplicate "})
	require.NoError(t, err)
	assert.Equal(t, sam.Paired|sam.Duplicate, f)
	_, err = ParseFlags([]string{"bogus"})
	assert.ErrorContains(t, err, "bogus")
}

func TestHistograms(t *testing.T) {
	refs := testRefs(t, "chr1")
	mq := MappingQuality(KindMapQ)
	ln := ReadLength(KindLength)
	bq := BaseQuality(KindBaseQuality)
	fr := FragmentLength(KindFragment, 500)

	r1 := mapped("a", refs[0], 1, match(10), sam.Paired|sam.ProperPair|sam.Read1)
	r1.TempLen = 300
	r2 := mapped("a", refs[0], 291, match(10), sam.Paired|sam.ProperPair|sam.Read2|sam.Reverse)
	r2.TempLen = -300
	r3 := mapped("b", refs[0], 5, match(10), sam.Paired|sam.ProperPair|sam.Read1)
	r3.TempLen = -900 // over max
	r3.MapQ = 255
	un := &sam.Record{Name: "u", Pos: -1, MatePos: -1, Flags: sam.Unmapped, MapQ: 0}

	for _, r := range []*sam.Record{r1, r2, r3, un} {
		for _, c := range []collector.Collector{mq, ln, bq, fr} {
			require.NoError(t, c.Observe(r, refs))
		}
	}

	assert.Equal(t, map[string]any{"60": uint64(2)}, render(t, mq)[KindMapQ])
	assert.Equal(t, map[string]any{"10": uint64(3)}, render(t, ln)[KindLength])
	assert.Equal(t, map[string]any{"300": uint64(1)}, render(t, fr)[KindFragment])
	assert.Equal(t, map[string]any{
		"10": uint64(6), "20": uint64(12), "30": uint64(9),
	}, render(t, bq)[KindBaseQuality])
}

func TestHistogramKeysSortedNumerically(t *testing.T) {
	h := counts{100: 1, 9: 2, 20: 3}
	d, err := h.document()
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "20", "100"}, d.Keys())
}

func TestReferenceCounts(t *testing.T) {
	refs := testRefs(t, "chr1", "chr2", "chrM")
	c := NewReferenceCounts(KindRefCounts)
	require.NoError(t, c.Observe(mapped("a", refs[1], 1, match(5), 0), refs))
	require.NoError(t, c.Observe(mapped("b", refs[1], 2, match(5), 0), refs))
	require.NoError(t, c.Observe(mapped("c", refs[0], 2, match(5), 0), refs))
	require.NoError(t, c.Observe(&sam.Record{Name: "u", Pos: -1, MatePos: -1, Flags: sam.Unmapped}, refs))

	doc := report.New()
	require.NoError(t, c.Append(doc))
	sub := doc.Object(KindRefCounts)
	assert.Equal(t, []string{"chr1", "chr2", "chrM"}, sub.Keys())
	assert.Equal(t, map[string]any{"chr1": uint64(1), "chr2": uint64(2), "chrM": uint64(0)}, sub.Map())
}

func TestReferenceCountsRejectsUnknownReference(t *testing.T) {
	refs := testRefs(t, "chr1")
	other := testRefs(t, "x", "y")
	c := NewReferenceCounts(KindRefCounts)

	err := c.Observe(mapped("a", other[1], 1, match(5), 0), refs)
	assert.True(t, errors.Is(err, collector.ErrMalformedRecord))

	err = c.Observe(&sam.Record{Name: "noref", Pos: 3, MatePos: -1}, refs)
	assert.ErrorIs(t, err, collector.ErrMalformedRecord)
}

func TestCoverage(t *testing.T) {
	refs := testRefs(t, "chr1", "chr2")
	c := NewCoverage(KindCoverage)
	// chr1: [0,10) and [5,15) -> 5 bases depth 1, 5 depth 2, 5 depth 1
	require.NoError(t, c.Observe(mapped("a", refs[0], 0, match(10), 0), refs))
	require.NoError(t, c.Observe(mapped("b", refs[0], 5, match(10), 0), refs))
	// deletion is not covered, soft clip consumes no reference
	cig := sam.Cigar{
		sam.NewCigarOp(sam.CigarSoftClipped, 3),
		sam.NewCigarOp(sam.CigarMatch, 2),
		sam.NewCigarOp(sam.CigarDeletion, 4),
		sam.NewCigarOp(sam.CigarMatch, 2),
	}
	require.NoError(t, c.Observe(mapped("c", refs[1], 100, cig, 0), refs))
	// ignored
	require.NoError(t, c.Observe(mapped("d", refs[1], 100, match(50), sam.Duplicate), refs))

	before := render(t, c)
	assert.Equal(t, before, render(t, c), "render must not change state")

	cov := before[KindCoverage].(map[string]any)
	assert.Equal(t, map[string]any{"1": uint64(14), "2": uint64(5)}, cov["hist"])
	assert.Equal(t, uint64(19), cov["covered_bases"])
	assert.InDelta(t, 24.0/19.0, cov["mean_depth"], 1e-9)
}

func TestCoverageRejectsUnsorted(t *testing.T) {
	refs := testRefs(t, "chr1")
	c := NewCoverage(KindCoverage)
	require.NoError(t, c.Observe(mapped("a", refs[0], 50, match(10), 0), refs))
	err := c.Observe(mapped("b", refs[0], 10, match(10), 0), refs)
	require.ErrorIs(t, err, collector.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "sorted")

	err = c.Observe(mapped("c", refs[0], 60, nil, 0), refs)
	assert.ErrorIs(t, err, collector.ErrMalformedRecord)
}

func TestCoverageRejectsReturnToEarlierReference(t *testing.T) {
	refs := testRefs(t, "chr1", "chr2")
	c := NewCoverage(KindCoverage)
	require.NoError(t, c.Observe(mapped("a", refs[0], 100, match(4), 0), refs))
	require.NoError(t, c.Observe(mapped("b", refs[1], 5, match(4), 0), refs))

	err := c.Observe(mapped("c", refs[0], 0, match(4), 0), refs)
	require.ErrorIs(t, err, collector.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "sorted")

	cov := render(t, c)["coverage"].(map[string]any)
	assert.Equal(t, uint64(8), cov["covered_bases"])
}

func TestRegistry(t *testing.T) {
	for _, k := range DefaultKinds {
		c, err := Build(k, nil)
		require.NoError(t, err, k)
		require.NotNil(t, c, k)
	}
	_, err := Build("nope", nil)
	assert.ErrorContains(t, err, "unknown collector kind")

	_, err = Build(KindFlagCount, Options{})
	assert.ErrorContains(t, err, "key")

	c, err := Build(KindFlagCount, Options{"key": "dups", "require": []any{"duplicate"}})
	require.NoError(t, err)
	fc := c.(*FlagCounter)
	assert.Equal(t, sam.Duplicate, fc.Require)

	c, err = Build(KindMapQ, Options{"key": "mq"})
	require.NoError(t, err)
	doc := report.New()
	require.NoError(t, c.Append(doc))
	assert.Equal(t, []string{"mq"}, doc.Keys())

	_, err = Build(KindFragment, Options{"max": "lots"})
	assert.Error(t, err)
	assert.Contains(t, Kinds(), KindCoverage)
}

func TestOptions(t *testing.T) {
	o := Options{"n": 3.0, "f": 2.5, "s": "x", "l": []any{"a", "b"}, "bad": []any{1}}
	n, err := o.Int("n", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = o.Int("f", 0)
	assert.Error(t, err)
	d, err := o.Int("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, d)
	l, err := o.Strings("l")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, l)
	one, err := o.Strings("s")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, one)
	_, err = o.Strings("bad")
	assert.Error(t, err)
	_, err = o.String("n", "")
	assert.Error(t, err)
}
