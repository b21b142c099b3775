package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the processor's Prometheus collectors behind a private
// registry so tests can create instances without collisions.
type Metrics struct {
	ObjectsProcessed     *prometheus.CounterVec
	ObservationsAppended prometheus.Counter
	ObservationsSkipped  *prometheus.CounterVec
	MergeRuns            *prometheus.CounterVec
	RowsMerged           *prometheus.CounterVec

	RawRows        prometheus.Gauge
	ProductionRows prometheus.Gauge

	MergeDuration  prometheus.Histogram
	IngestDuration prometheus.Histogram

	registry *prometheus.Registry
	enabled  bool
}

func New(enabled bool) *Metrics {
	m := &Metrics{
		enabled:  enabled,
		registry: prometheus.NewRegistry(),
	}

	if !enabled {
		return m
	}

	m.ObjectsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airquality",
			Name:      "objects_processed_total",
			Help:      "Payload objects handled by the ingest path, by outcome",
		},
		[]string{"status"},
	)

	m.ObservationsAppended = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "airquality",
			Name:      "observations_appended_total",
			Help:      "Rows appended to the raw observation store",
		},
	)

	m.ObservationsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airquality",
			Name:      "observations_skipped_total",
			Help:      "Station feeds dropped during parsing, by reason",
		},
		[]string{"reason"},
	)

	m.MergeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airquality",
			Name:      "merge_runs_total",
			Help:      "Merge runs by terminal status and trigger",
		},
		[]string{"status", "trigger"},
	)

	m.RowsMerged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airquality",
			Name:      "rows_merged_total",
			Help:      "Production rows written by merge runs, by kind",
		},
		[]string{"kind"},
	)

	m.RawRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "airquality",
			Name:      "raw_rows",
			Help:      "Row count of the raw observation store after the last merge",
		},
	)

	m.ProductionRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "airquality",
			Name:      "production_rows",
			Help:      "Row count of the production store after the last merge",
		},
	)

	m.MergeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "airquality",
			Name:      "merge_duration_seconds",
			Help:      "Wall time of a full merge run",
			Buckets:   []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 300.0},
		},
	)

	m.IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "airquality",
			Name:      "ingest_duration_seconds",
			Help:      "Time to download, parse and append one payload object",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)

	m.registry.MustRegister(
		m.ObjectsProcessed,
		m.ObservationsAppended,
		m.ObservationsSkipped,
		m.MergeRuns,
		m.RowsMerged,
		m.RawRows,
		m.ProductionRows,
		m.MergeDuration,
		m.IngestDuration,
	)

	m.registry.MustRegister(prometheus.NewGoCollector())
	m.registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return m
}

// Handler exposes the private registry for mounting under the ops API.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IsEnabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) RecordObjectProcessed(status string) {
	if m != nil && m.enabled && m.ObjectsProcessed != nil {
		m.ObjectsProcessed.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) RecordObservationsAppended(count int) {
	if m != nil && m.enabled && m.ObservationsAppended != nil {
		m.ObservationsAppended.Add(float64(count))
	}
}

func (m *Metrics) RecordObservationsSkipped(reason string, count int) {
	if m != nil && m.enabled && m.ObservationsSkipped != nil {
		m.ObservationsSkipped.WithLabelValues(reason).Add(float64(count))
	}
}

func (m *Metrics) RecordMergeRun(status, trigger string) {
	if m != nil && m.enabled && m.MergeRuns != nil {
		m.MergeRuns.WithLabelValues(status, trigger).Inc()
	}
}

func (m *Metrics) RecordRowsMerged(inserted, updated int64) {
	if m != nil && m.enabled && m.RowsMerged != nil {
		m.RowsMerged.WithLabelValues("inserted").Add(float64(inserted))
		m.RowsMerged.WithLabelValues("updated").Add(float64(updated))
	}
}

func (m *Metrics) SetTableCounts(raw, production int64) {
	if m == nil || !m.enabled {
		return
	}
	if m.RawRows != nil {
		m.RawRows.Set(float64(raw))
	}
	if m.ProductionRows != nil {
		m.ProductionRows.Set(float64(production))
	}
}

func (m *Metrics) ObserveMergeDuration(d time.Duration) {
	if m != nil && m.enabled && m.MergeDuration != nil {
		m.MergeDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveIngestDuration(d time.Duration) {
	if m != nil && m.enabled && m.IngestDuration != nil {
		m.IngestDuration.Observe(d.Seconds())
	}
}
