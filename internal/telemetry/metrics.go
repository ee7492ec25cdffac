// Package telemetry provides the Prometheus metrics recorded by sweeps.
package telemetry

import (
	"context"
	"errors"
	"sync"

	"voice-sweeper/internal/sweep"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements sweep.Recorder.
type Metrics struct {
	Sweeps        *prometheus.CounterVec // result=ok|failed|cancelled
	Disconnects   *prometheus.CounterVec // result=ok|failed
	AuditFailures prometheus.Counter
	Skipped       prometheus.Counter
	Duration      prometheus.Observer
	LastMembers   prometheus.Gauge
}

var (
	once    sync.Once
	Default *Metrics
)

// Init registers the default metrics with the global registry (idempotent).
func Init() *Metrics {
	once.Do(func() {
		Default = New(prometheus.DefaultRegisterer)
	})
	return Default
}

// New registers a fresh set of metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sweeps:        f.NewCounterVec(prometheus.CounterOpts{Name: "voice_sweeps_total", Help: "Number of sweeps run, by result"}, []string{"result"}),
		Disconnects:   f.NewCounterVec(prometheus.CounterOpts{Name: "voice_sweep_disconnects_total", Help: "Number of member disconnect attempts, by result"}, []string{"result"}),
		AuditFailures: f.NewCounter(prometheus.CounterOpts{Name: "voice_sweep_audit_failures_total", Help: "Number of audit messages that could not be posted"}),
		Skipped:       f.NewCounter(prometheus.CounterOpts{Name: "voice_sweeps_skipped_total", Help: "Number of triggers skipped because a sweep was still running"}),
		Duration:      f.NewHistogram(prometheus.HistogramOpts{Name: "voice_sweep_duration_seconds", Help: "Sweep duration seconds", Buckets: prometheus.DefBuckets}),
		LastMembers:   f.NewGauge(prometheus.GaugeOpts{Name: "voice_sweep_last_members", Help: "Members found by the most recent sweep"}),
	}
}

func (m *Metrics) SweepFinished(r *sweep.Report, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = "cancelled"
	default:
		result = "failed"
	}
	m.Sweeps.WithLabelValues(result).Inc()
	if r != nil {
		m.Duration.Observe(r.Duration().Seconds())
		m.LastMembers.Set(float64(r.Members))
	}
}

func (m *Metrics) MemberDisconnected(ok bool) {
	if ok {
		m.Disconnects.WithLabelValues("ok").Inc()
		return
	}
	m.Disconnects.WithLabelValues("failed").Inc()
}

func (m *Metrics) AuditFailed() { m.AuditFailures.Inc() }

func (m *Metrics) SweepSkipped() { m.Skipped.Inc() }

var _ sweep.Recorder = (*Metrics)(nil)
