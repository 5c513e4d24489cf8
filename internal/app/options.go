// internal/app/options.go
package app

import (
	"github.com/alecthomas/kong"

	"bamstats/internal/config"
)

const description = `Streams SAM/BAM alignment records through a tree of statistics collectors and
emits a JSON report every --update-rate records plus a final one at end of input.`

// Options are the command-line flags. Unset values (-1 or empty) leave the
// configuration file, or its defaults, in charge.
type Options struct {
	Config      string           `short:"c" help:"YAML configuration file (collector tree and run settings)" type:"existingfile"`
	EnvFile     []string         `help:"KEY=VALUE files loaded before the configuration is expanded"`
	UpdateRate  int              `short:"u" help:"Records between interim reports; 0 = final report only (-1 = config value)" default:"-1"`
	Format      string           `short:"f" help:"Report format: json|jsonl|tsv"`
	Output      string           `short:"o" help:"Report destination ('-' = stdout)" default:"-"`
	InputFormat string           `help:"Input format: auto|sam|bam"`
	OnError     string           `help:"Malformed record policy: fail|skip"`
	MaxRecords  int              `short:"n" help:"Stop after this many records; 0 = whole input (-1 = config value)" default:"-1"`
	MetricsAddr string           `help:"Serve Prometheus metrics on this address (e.g. :9090)"`
	LogLevel    string           `help:"Log level: debug|info|warn|error"`
	LogFormat   string           `help:"Log format: text|json"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Input string `arg:"" help:"SAM or BAM input ('-' = stdin)"`
}

// apply overlays the flags that were set onto cfg and revalidates it.
func (o *Options) apply(cfg *config.Config) error {
	if o.UpdateRate >= 0 {
		cfg.UpdateRate = o.UpdateRate
	}
	if o.MaxRecords >= 0 {
		cfg.MaxRecords = o.MaxRecords
	}
	if o.Format != "" {
		cfg.Format = o.Format
	}
	if o.InputFormat != "" {
		cfg.InputFormat = o.InputFormat
	}
	if o.OnError != "" {
		cfg.OnError = o.OnError
	}
	if o.MetricsAddr != "" {
		cfg.Metrics.Addr = o.MetricsAddr
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
	return cfg.Validate()
}
