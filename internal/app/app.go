// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"bamstats/internal/appshell"
	"bamstats/internal/bamio"
	"bamstats/internal/config"
	"bamstats/internal/logfields"
	"bamstats/internal/metrics"
	"bamstats/internal/pipeline"
	"bamstats/internal/tree"
	"bamstats/internal/version"
	"bamstats/internal/writers"
	"bamstats/pkg/api"
	"bamstats/pkg/collector"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitUsage   = 2 // bad flags, configuration or input path
	ExitRuntime = 3 // decode, collector, render or output failure
)

// kong reports --help and --version through its Exit hook; the panic is
// recovered in parse so RunContext can return a code instead of exiting.
type exitRequest int

func parse(opts *Options, argv []string, stdout, stderr io.Writer) (code int, exited bool, err error) {
	parser, err := kong.New(opts,
		kong.Name("bamstats"),
		kong.Description(description),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitRequest(c)) }),
		kong.Vars{"version": "bamstats version " + version.Version},
	)
	if err != nil {
		return ExitUsage, true, err
	}
	defer func() {
		if r := recover(); r != nil {
			req, ok := r.(exitRequest)
			if !ok {
				panic(r)
			}
			code, exited, err = int(req), true, nil
		}
	}()
	if _, err := parser.Parse(argv); err != nil {
		return ExitUsage, true, err
	}
	return ExitOK, false, nil
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	var opts Options
	if code, exited, err := parse(&opts, argv, stdout, stderr); exited {
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "bamstats: error: %v (see --help)\n", err)
		}
		return code
	}

	if err := config.LoadEnv(opts.EnvFile...); err != nil {
		_, _ = fmt.Fprintf(stderr, "bamstats: %v\n", err)
		return ExitUsage
	}
	cfg := config.Default()
	if opts.Config != "" {
		c, err := config.Load(opts.Config)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "bamstats: %v\n", err)
			return ExitUsage
		}
		cfg = c
	}
	if err := opts.apply(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "bamstats: %v\n", err)
		return ExitUsage
	}

	logger := newLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	runID := uuid.NewString()
	logger = logger.With(logfields.RunID(runID))

	// Under the skip policy every collector still sees a record one of its
	// siblings rejected; the joined error then marks the record as skipped.
	rootPolicy := collector.FailFast
	if cfg.OnError == config.OnErrorSkip {
		rootPolicy = collector.ContinueOnError
	}
	root, err := tree.Build(cfg.Collectors, rootPolicy)
	if err != nil {
		logger.Error("invalid collector tree", logfields.Error(err))
		return ExitUsage
	}
	for _, line := range tree.Describe(root) {
		logger.Debug("collector", logfields.Node(line))
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Addr != "" {
		reg := prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		stopMetrics, err := serveMetrics(cfg.Metrics.Addr, metrics.HTTPHandler(reg))
		if err != nil {
			logger.Error("metrics listener", logfields.Error(err))
			return ExitUsage
		}
		defer stopMetrics()
		logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
	}
	rec.SetTreeSize(tree.Size(root))

	src, err := bamio.Open(opts.Input, cfg.InputFormat)
	if err != nil {
		logger.Error("open input", logfields.Input(opts.Input), logfields.Error(err))
		return ExitUsage
	}
	defer func() { _ = src.Close() }()

	out := stdout
	if opts.Output != "" && opts.Output != "-" {
		f, err := os.Create(opts.Output)
		if err != nil {
			logger.Error("create output", logfields.Error(err))
			return ExitUsage
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	in, done := writers.Start(cfg.Format, out, 4)
	emit := func(r api.ReportV1) error {
		select {
		case in <- r:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	logger.Info("run starting",
		logfields.Input(opts.Input), logfields.Format(cfg.Format),
		"update_rate", cfg.UpdateRate, "nodes", tree.Size(root))
	sum, runErr := pipeline.Run(ctx, pipeline.Config{
		UpdateRate: cfg.UpdateRate,
		MaxRecords: cfg.MaxRecords,
		SkipErrors: cfg.OnError == config.OnErrorSkip,
		RunID:      runID,
		Input:      opts.Input,
		Logger:     logger,
		Recorder:   rec,
	}, src, root, emit)
	close(in)
	writeErr := <-done

	switch {
	case runErr != nil && errors.Is(runErr, context.Canceled) && parent.Err() != nil:
		logger.Warn("run interrupted", logfields.Records(sum.Records))
		return appshell.ExitInterrupted
	case runErr != nil:
		logger.Error("run failed", logfields.Records(sum.Records), logfields.Error(runErr))
		return ExitRuntime
	case writeErr != nil:
		logger.Error("write reports", logfields.Error(writeErr))
		return ExitRuntime
	}
	return ExitOK
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// serveMetrics listens on addr and serves h until the returned stop func runs.
func serveMetrics(addr string, h http.Handler) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
