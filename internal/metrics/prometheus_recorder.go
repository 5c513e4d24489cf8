package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	records        *prom.CounterVec
	reports        *prom.CounterVec
	renderDuration prom.Histogram
	treeSize       prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		records: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bamstats",
			Name:      "records_total",
			Help:      "Alignment records by outcome",
		}, []string{"outcome"}),
		reports: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bamstats",
			Name:      "reports_total",
			Help:      "Reports emitted by kind",
		}, []string{"kind"}),
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "bamstats",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering the collector tree",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 8),
		}),
		treeSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: "bamstats",
			Name:      "collector_nodes",
			Help:      "Number of nodes in the collector tree",
		}),
	}
	reg.MustRegister(pr.records, pr.reports, pr.renderDuration, pr.treeSize)
	return pr
}

func (p *PrometheusRecorder) IncRecord(outcome RecordOutcome) {
	if p == nil {
		return
	}
	p.records.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncReport(kind ReportKind) {
	if p == nil {
		return
	}
	p.reports.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetTreeSize(nodes int) {
	if p == nil {
		return
	}
	p.treeSize.Set(float64(nodes))
}

// HTTPHandler serves the metrics registered on reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
