package writers

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bamstats/pkg/api"
	"bamstats/pkg/report"
)

func sample(t *testing.T, records uint64, final bool) api.ReportV1 {
	t.Helper()
	doc := report.New()
	require.NoError(t, doc.Object("reads").Set("total", records))
	return api.ReportV1{Schema: api.SchemaV1, RunID: "r", Records: records, Final: final, Stats: doc}
}

func TestJSONLWriter(t *testing.T) {
	var b bytes.Buffer
	in, done := Start("jsonl", &b, 4)
	in <- sample(t, 1, false)
	in <- sample(t, 2, true)
	close(in)
	require.NoError(t, <-done)

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		`{"schema":"bamstats/report/v1","run_id":"r","records":2,"final":true,"stats":{"reads":{"total":2}}}`,
		lines[1])
}

func TestJSONWriterIndents(t *testing.T) {
	var b bytes.Buffer
	in, done := Start("json", &b, 1)
	in <- sample(t, 3, true)
	close(in)
	require.NoError(t, <-done)

	assert.Contains(t, b.String(), "\n  \"stats\": {\n")
	var got map[string]any
	require.NoError(t, json.Unmarshal(b.Bytes(), &got))
	assert.Equal(t, true, got["final"])
}

func TestUnknownFormatError(t *testing.T) {
	var b bytes.Buffer
	in, done := Start("nope-format", &b, 1)
	in <- sample(t, 1, false)
	close(in)
	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
	assert.Zero(t, b.Len())
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "jsonl", "tsv"}, Formats())
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, syscall.EPIPE }

func TestBrokenPipeIsSilent(t *testing.T) {
	in, done := Start("jsonl", brokenWriter{}, 1)
	in <- sample(t, 1, true)
	close(in)
	assert.NoError(t, <-done)

	assert.True(t, IsBrokenPipe(io.ErrClosedPipe))
	assert.False(t, IsBrokenPipe(nil))
}

func TestTSVWriter(t *testing.T) {
	r := sample(t, 7, true)
	hist := r.Stats.Object("mapq_hist")
	require.NoError(t, hist.Set("60", uint64(5)))
	require.NoError(t, r.Stats.Set("note", "a\tb"))

	var b bytes.Buffer
	in, done := Start("tsv", &b, 1)
	in <- r
	in <- sample(t, 8, true)
	close(in)
	require.NoError(t, <-done)

	want := TSVHeader + "\n" +
		"r\t7\ttrue\treads.total\t7\n" +
		"r\t7\ttrue\tmapq_hist.60\t5\n" +
		"r\t7\ttrue\tnote\ta b\n" +
		"r\t8\ttrue\treads.total\t8\n"
	assert.Equal(t, want, b.String())
}
