package monitoring

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/mimobft/coordinator"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/sim"
)

// Metrics counts training activity as Prometheus metrics. It is a hook on the
// coordinator.
type Metrics struct {
	SectorSweeps      prometheus.Counter
	AttemptsStarted   prometheus.Counter
	AttemptsCompleted prometheus.Counter
	AttemptsAborted   *prometheus.CounterVec
	SisoSamples       prometheus.Counter
	MimoMeasurements  prometheus.Counter
	SelectedSNR       prometheus.Histogram
}

// NewMetrics registers the training metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		SectorSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mimobft_sector_sweeps_total",
			Help: "Sector sweep completions received.",
		}),
		AttemptsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mimobft_attempts_started_total",
			Help: "SU-MIMO training attempts started.",
		}),
		AttemptsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mimobft_attempts_completed_total",
			Help: "SU-MIMO training attempts that selected a configuration.",
		}),
		AttemptsAborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mimobft_attempts_aborted_total",
			Help: "SU-MIMO training attempts aborted, labeled by phase.",
		}, []string{"phase"}),
		SisoSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mimobft_siso_samples_total",
			Help: "SISO feedback samples aggregated.",
		}),
		MimoMeasurements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mimobft_mimo_measurements_total",
			Help: "Joint MIMO configurations evaluated.",
		}),
		SelectedSNR: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mimobft_selected_min_stream_snr_db",
			Help:    "Minimum stream SNR of the selected configurations in dB.",
			Buckets: prometheus.LinearBuckets(0, 5, 8),
		}),
	}

	collectors := map[string]prometheus.Collector{
		"mimobft_sector_sweeps_total":        m.SectorSweeps,
		"mimobft_attempts_started_total":     m.AttemptsStarted,
		"mimobft_attempts_completed_total":   m.AttemptsCompleted,
		"mimobft_attempts_aborted_total":     m.AttemptsAborted,
		"mimobft_siso_samples_total":         m.SisoSamples,
		"mimobft_mimo_measurements_total":    m.MimoMeasurements,
		"mimobft_selected_min_stream_snr_db": m.SelectedSNR,
	}

	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}

	return m, nil
}

// Func updates the metrics when the coordinator invokes a hook.
func (m *Metrics) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case coordinator.HookPosSectorSweep:
		m.SectorSweeps.Inc()
	case coordinator.HookPosAttemptStarted:
		m.AttemptsStarted.Inc()
	case coordinator.HookPosSisoSample:
		m.SisoSamples.Inc()
	case coordinator.HookPosMimoMeasured:
		m.MimoMeasurements.Inc()
	case coordinator.HookPosAttemptCompleted:
		m.AttemptsCompleted.Inc()

		r := ctx.Item.(coordinator.AttemptRecord)
		if r.Selection != nil {
			m.SelectedSNR.Observe(
				feedback.LinearToDB(r.Selection.Config.MinStreamSNR))
		}
	case coordinator.HookPosAttemptAborted:
		r := ctx.Item.(coordinator.AttemptRecord)
		m.AttemptsAborted.WithLabelValues(r.State.String()).Inc()
	}
}
