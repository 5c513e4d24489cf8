package metrics

import "time"

// RecordOutcome labels what happened to one input record.
type RecordOutcome string

const (
	RecordObserved RecordOutcome = "observed"
	RecordSkipped  RecordOutcome = "skipped"
	RecordFailed   RecordOutcome = "failed"
)

// ReportKind labels emitted reports.
type ReportKind string

const (
	ReportInterim ReportKind = "interim"
	ReportFinal   ReportKind = "final"
)

// Recorder receives run metrics. Implementations forward to Prometheus;
// NoopRecorder is the default.
type Recorder interface {
	IncRecord(outcome RecordOutcome)
	IncReport(kind ReportKind)
	ObserveRenderDuration(d time.Duration)
	SetTreeSize(nodes int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) IncRecord(RecordOutcome)             {}
func (NoopRecorder) IncReport(ReportKind)                {}
func (NoopRecorder) ObserveRenderDuration(time.Duration) {}
func (NoopRecorder) SetTreeSize(int)                     {}
