package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultUpdateRate, cfg.UpdateRate)
	assert.Equal(t, OnErrorFail, cfg.OnError)
	assert.Equal(t, FormatJSONL, cfg.Format)
	assert.Equal(t, InputAuto, cfg.InputFormat)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	assert.Equal(t, cfg, Default())
}

func TestDefaultAppliesUpdateRate(t *testing.T) {
	assert.Equal(t, DefaultUpdateRate, Default().UpdateRate)
	require.NoError(t, Default().Validate())
}

func TestParseZeroUpdateRateKept(t *testing.T) {
	cfg, err := Parse([]byte("update_rate: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.UpdateRate)
}

func TestParseTree(t *testing.T) {
	t.Setenv("BAMSTATS_FRAG_MAX", "800")
	raw := `
update_rate: 500
on_error: skip
collectors:
  - kind: reads
  - kind: group
    name: pairs
    policy: continue
    children:
      - kind: frag_hist
        options:
          max: ${BAMSTATS_FRAG_MAX}
      - kind: flag_count
        options:
          key: dups
          require: [duplicate]
`
	cfg, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.UpdateRate)
	assert.Equal(t, OnErrorSkip, cfg.OnError)
	require.Len(t, cfg.Collectors, 2)
	g := cfg.Collectors[1]
	assert.Equal(t, GroupKind, g.Kind)
	assert.Equal(t, "continue", g.Policy)
	require.Len(t, g.Children, 2)
	assert.Equal(t, 800, g.Children[0].Options["max"])
	assert.Equal(t, []any{"duplicate"}, g.Children[1].Options["require"])
}

func TestValidateErrors(t *testing.T) {
	cases := []struct{ raw, want string }{
		{"on_error: maybe\n", "on_error"},
		{"format: xml\n", "format"},
		{"input_format: cram\n", "input_format"},
		{"log: {level: loud}\n", "log.level"},
		{"log: {format: xml}\n", "log.format"},
		{"max_records: -2\n", "max_records"},
		{"collectors: [{name: x}]\n", "collectors[0]: kind is required"},
		{"collectors: [{kind: group, children: [{kind: reads, policy: sometimes}]}]\n", "collectors[0].children[0]"},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.raw))
		require.Error(t, err, tc.raw)
		assert.Contains(t, err.Error(), tc.want, tc.raw)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "bamstats.yaml")
	require.NoError(t, os.WriteFile(p, []byte("format: json\n"), 0o644))
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Format)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "not found")

	require.NoError(t, os.WriteFile(p, []byte("update_rate: [1\n"), 0o644))
	_, err = Load(p)
	assert.ErrorContains(t, err, "unmarshal")
}

func TestLoadEnvFeedsExpansion(t *testing.T) {
	const key = "BAMSTATS_TEST_ENV_FORMAT"
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))

	p := filepath.Join(t.TempDir(), "run.env")
	require.NoError(t, os.WriteFile(p, []byte(key+"=json\n"), 0o644))
	require.NoError(t, LoadEnv(p))

	cfg, err := Parse([]byte("format: ${" + key + "}\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Format)

	assert.NoError(t, LoadEnv())
	assert.Error(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}
