package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qaprep"

// Recorder exports stage timings and row throughput as Prometheus
// metrics on an injected registry. It implements timing.Observer.
type Recorder struct {
	registry      *prometheus.Registry
	StageDuration *prometheus.HistogramVec
	StageTotal    *prometheus.CounterVec
	RowsProcessed *prometheus.CounterVec
}

// NewRecorder registers the pipeline metrics on reg. A nil reg creates a
// private registry.
func NewRecorder(reg *prometheus.Registry) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Recorder{
		registry: reg,
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"stage"},
		),
		StageTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_total",
				Help:      "Total number of pipeline stage executions",
			},
			[]string{"stage", "status"},
		),
		RowsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_processed_total",
				Help:      "Rows passed through each pipeline stage",
			},
			[]string{"stage"},
		),
	}

	for _, c := range []prometheus.Collector{r.StageDuration, r.StageTotal, r.RowsProcessed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe implements timing.Observer.
func (r *Recorder) Observe(stage string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	r.StageTotal.WithLabelValues(stage, status).Inc()
}

// AddRows counts rows handled by a stage.
func (r *Recorder) AddRows(stage string, n int) {
	if n > 0 {
		r.RowsProcessed.WithLabelValues(stage).Add(float64(n))
	}
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile dumps all metrics in the text exposition format, for
// node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
