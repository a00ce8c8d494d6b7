package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the interpreter hooks.
type Metrics struct {
	runs       *prometheus.CounterVec
	nodeVisits *prometheus.CounterVec
	runTime    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_runs_total",
				Help: "Total number of completed runs by final status",
			},
			[]string{"status"},
		),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_node_visits_total",
				Help: "Total number of node visits by action type and outcome",
			},
			[]string{"type", "status"},
		),
		runTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbor_run_duration_seconds",
				Help:    "Duration of runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"root_id"},
		),
	}
	for _, c := range []prometheus.Collector{m.runs, m.nodeVisits, m.runTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.NodeType, string(e.Status)).Inc()
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			m.runs.WithLabelValues(string(e.Status)).Inc()
			m.runTime.WithLabelValues(strconv.FormatInt(int64(e.RootID), 10)).Observe(e.Duration.Seconds())
		},
	}
}
