// Package rotmetrics exposes rotating sink metrics to Prometheus.
//
// Register an Exporter with a registry and hand each sink a reporter:
//
//	exporter := rotmetrics.NewExporter()
//	registry.MustRegister(exporter)
//
//	sink, err := rotating.New(cfg, rotating.WithMetricsReporter(exporter.Reporter("app")))
package rotmetrics

import (
	"net/http"
	"sort"
	"sync"

	"github.com/hyp3rd/ewrap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyp3rd/hyperrotate/pkg/rotating"
)

const (
	namespace     = "hyperrotate"
	identifierKey = "identifier"
)

type counterDesc struct {
	desc  *prometheus.Desc
	value func(rotating.Metrics) uint64
}

// Exporter is a prometheus.Collector reporting the latest metrics snapshot of every
// observed sink, labelled by sink identifier.
type Exporter struct {
	mu        sync.RWMutex
	snapshots map[string]rotating.Metrics

	counters   []counterDesc
	queueDepth *prometheus.Desc
}

var _ prometheus.Collector = (*Exporter)(nil)

// NewExporter creates an Exporter with no observed sinks.
func NewExporter() *Exporter {
	counter := func(name, help string, value func(rotating.Metrics) uint64) counterDesc {
		return counterDesc{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, []string{identifierKey}, nil),
			value: value,
		}
	}

	return &Exporter{
		snapshots: make(map[string]rotating.Metrics),
		counters: []counterDesc{
			counter("writes_total", "Total writes accepted by the sink",
				func(m rotating.Metrics) uint64 { return m.Writes }),
			counter("written_bytes_total", "Total bytes written to the current log file",
				func(m rotating.Metrics) uint64 { return m.BytesWritten }),
			counter("write_failures_total", "Total writes that failed",
				func(m rotating.Metrics) uint64 { return m.WriteFailures }),
			counter("rotations_total", "Total successful rotations",
				func(m rotating.Metrics) uint64 { return m.Rotations }),
			counter("rotation_failures_total", "Total failed rotations",
				func(m rotating.Metrics) uint64 { return m.RotationFailures }),
			counter("archives_deleted_total", "Total archived files deleted by retention",
				func(m rotating.Metrics) uint64 { return m.ArchivesDeleted }),
			counter("archive_delete_failures_total", "Total archived files retention failed to delete",
				func(m rotating.Metrics) uint64 { return m.DeleteFailures }),
			counter("queue_dropped_total", "Total writes dropped because the queue was full",
				func(m rotating.Metrics) uint64 { return m.QueueDropped }),
		},
		queueDepth: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "queue_depth"),
			"Current number of tasks waiting in the sink queue",
			[]string{identifierKey}, nil,
		),
	}
}

// Observe records the latest snapshot of the sink named identifier.
func (e *Exporter) Observe(identifier string, metrics rotating.Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshots[identifier] = metrics
}

// Forget stops reporting the sink named identifier.
func (e *Exporter) Forget(identifier string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.snapshots, identifier)
}

// Reporter returns a function suitable for rotating.WithMetricsReporter.
func (e *Exporter) Reporter(identifier string) func(rotating.Metrics) {
	return func(metrics rotating.Metrics) {
		e.Observe(identifier, metrics)
	}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, counter := range e.counters {
		ch <- counter.desc
	}

	ch <- e.queueDepth
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	identifiers := make([]string, 0, len(e.snapshots))
	for identifier := range e.snapshots {
		identifiers = append(identifiers, identifier)
	}

	sort.Strings(identifiers)

	for _, identifier := range identifiers {
		snapshot := e.snapshots[identifier]

		for _, counter := range e.counters {
			ch <- prometheus.MustNewConstMetric(
				counter.desc, prometheus.CounterValue, float64(counter.value(snapshot)), identifier,
			)
		}

		ch <- prometheus.MustNewConstMetric(
			e.queueDepth, prometheus.GaugeValue, float64(snapshot.QueueDepth), identifier,
		)
	}
}

// Register adds the exporter to registerer, or to prometheus.DefaultRegisterer when nil.
func (e *Exporter) Register(registerer prometheus.Registerer) error {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	err := registerer.Register(e)
	if err != nil {
		return ewrap.Wrap(err, "registering rotation metrics")
	}

	return nil
}

// Handler serves the metrics gathered by gatherer in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
