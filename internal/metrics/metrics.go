// Package metrics exports tree update measurements to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements tree.Recorder. A nil *Metrics records nothing.
type Metrics struct {
	updates       *prometheus.CounterVec
	updateLatency prometheus.Histogram
	updateNodes   prometheus.Histogram
	treeSize      prometheus.Gauge
	destroyed     prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which tests use to read values directly.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axtree",
			Subsystem: "unserialize",
			Name:      "updates_total",
			Help:      "Tree updates by result (ok or the failure kind)",
		}, []string{"result"}),
		updateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "axtree",
			Subsystem: "unserialize",
			Name:      "duration_seconds",
			Help:      "Time spent applying a successful update",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		updateNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "axtree",
			Subsystem: "unserialize",
			Name:      "update_nodes",
			Help:      "Node records per successful update",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		treeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "axtree",
			Name:      "tree_nodes",
			Help:      "Live nodes after the last successful update",
		}),
		destroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "axtree",
			Name:      "trees_destroyed_total",
			Help:      "Trees torn down",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.updates, m.updateLatency, m.updateNodes, m.treeSize, m.destroyed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) UnserializeSucceeded(d time.Duration, updateNodes, treeNodes int) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues("ok").Inc()
	m.updateLatency.Observe(d.Seconds())
	m.updateNodes.Observe(float64(updateNodes))
	m.treeSize.Set(float64(treeNodes))
}

func (m *Metrics) UnserializeFailed(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}

func (m *Metrics) TreeDestroyed(time.Duration) {
	if m == nil {
		return
	}
	m.destroyed.Inc()
	m.treeSize.Set(0)
}
