// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/biogo/hts/sam"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bamstats/internal/bamio"
	"bamstats/internal/logfields"
	"bamstats/internal/metrics"
	"bamstats/pkg/api"
	"bamstats/pkg/collector"
)

// Config controls one run.
type Config struct {
	UpdateRate int    // records between interim reports; 0 = final report only
	MaxRecords int    // stop after this many records; 0 = whole input
	SkipErrors bool   // log and skip records a collector rejects instead of aborting
	Buffer     int    // decoded records queued ahead of the observer (>=1)
	RunID      string // stamped on every report; generated when empty
	Input      string // input label for reports and logs

	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// Summary describes a finished run.
type Summary struct {
	RunID   string
	Records uint64 // records fed to the tree, skipped ones included
	Skipped uint64
	Reports int
}

// Run feeds every record of src to tree, calling emit with an interim
// report every cfg.UpdateRate records and a final report at end of input.
// It returns the first error encountered (including context cancellation);
// no final report is emitted on error.
func Run(
	ctx context.Context,
	cfg Config,
	src bamio.Source,
	tree *collector.Node,
	emit func(api.ReportV1) error,
) (Summary, error) {
	if cfg.Buffer < 1 {
		cfg.Buffer = 256
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}

	r := &run{cfg: cfg, tree: tree, emit: emit, sum: Summary{RunID: cfg.RunID}}
	g, gctx := errgroup.WithContext(ctx)
	recs := make(chan *sam.Record, cfg.Buffer)

	// Reader
	g.Go(func() error {
		defer close(recs)
		for n := 0; cfg.MaxRecords == 0 || n < cfg.MaxRecords; n++ {
			rec, err := src.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("decode record %d: %w", n+1, err)
			}
			select {
			case recs <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// Observer
	g.Go(func() error {
		refs := src.References()
		for rec := range recs {
			if err := r.observe(rec, refs); err != nil {
				return err
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return r.sum, err
	}
	if err := ctx.Err(); err != nil {
		return r.sum, err
	}
	if err := r.report(true); err != nil {
		return r.sum, err
	}
	cfg.Logger.Info("run complete",
		logfields.RunID(cfg.RunID), logfields.Input(cfg.Input),
		logfields.Records(r.sum.Records), logfields.Skipped(r.sum.Skipped))
	return r.sum, nil
}

type run struct {
	cfg  Config
	tree *collector.Node
	emit func(api.ReportV1) error
	sum  Summary
}

func (r *run) observe(rec *sam.Record, refs []*sam.Reference) error {
	r.sum.Records++
	if err := r.tree.Observe(rec, refs); err != nil {
		var re *collector.RecordError
		if r.cfg.SkipErrors && errors.As(err, &re) {
			r.sum.Skipped++
			r.cfg.Recorder.IncRecord(metrics.RecordSkipped)
			r.cfg.Logger.Warn("skipping record",
				logfields.ReadName(rec.Name), logfields.Node(re.Node),
				logfields.Records(r.sum.Records), logfields.Error(err))
		} else {
			r.cfg.Recorder.IncRecord(metrics.RecordFailed)
			return fmt.Errorf("record %d (%s): %w", r.sum.Records, rec.Name, err)
		}
	} else {
		r.cfg.Recorder.IncRecord(metrics.RecordObserved)
	}
	if r.cfg.UpdateRate > 0 && r.sum.Records%uint64(r.cfg.UpdateRate) == 0 {
		return r.report(false)
	}
	return nil
}

func (r *run) report(final bool) error {
	start := time.Now()
	doc, err := r.tree.Render(nil)
	took := time.Since(start)
	r.cfg.Recorder.ObserveRenderDuration(took)
	if err != nil {
		return fmt.Errorf("render after %d records: %w", r.sum.Records, err)
	}
	kind := metrics.ReportInterim
	if final {
		kind = metrics.ReportFinal
	}
	r.cfg.Logger.Debug("report rendered",
		logfields.Stage(string(kind)), logfields.Records(r.sum.Records),
		logfields.DurationMS(float64(took.Microseconds())/1000))
	if err := r.emit(api.ReportV1{
		Schema:  api.SchemaV1,
		RunID:   r.cfg.RunID,
		Input:   r.cfg.Input,
		Records: r.sum.Records,
		Skipped: r.sum.Skipped,
		Final:   final,
		Stats:   doc,
	}); err != nil {
		return err
	}
	r.sum.Reports++
	r.cfg.Recorder.IncReport(kind)
	return nil
}
