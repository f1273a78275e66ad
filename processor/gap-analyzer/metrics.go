package gapanalyzer

import (
	"errors"

	"github.com/c360studio/specgap/gap"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the analyzer's Prometheus collectors.
type metrics struct {
	analyzed   prometheus.Counter
	emitted    *prometheus.CounterVec
	evidence   *prometheus.CounterVec
	confidence prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		analyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "specgap_requirements_analyzed_total",
			Help: "Requirements analyzed.",
		}),
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specgap_gaps_emitted_total",
			Help: "Gaps emitted after suppression and threshold filtering, by status.",
		}, []string{"status"}),
		evidence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specgap_evidence_total",
			Help: "Evidence recorded, by kind.",
		}, []string{"kind"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "specgap_confidence",
			Help:    "Confidence of analyzed requirements.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.analyzed, err = register(reg, m.analyzed); err != nil {
		return nil, err
	}
	if m.emitted, err = register(reg, m.emitted); err != nil {
		return nil, err
	}
	if m.evidence, err = register(reg, m.evidence); err != nil {
		return nil, err
	}
	if m.confidence, err = register(reg, m.confidence); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing an identical collector that is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) observe(g gap.Gap) {
	m.analyzed.Inc()
	m.confidence.Observe(float64(g.Confidence))
	for _, e := range g.Evidence {
		m.evidence.WithLabelValues(string(e.Kind)).Inc()
	}
}

func (m *metrics) emit(g gap.Gap) {
	m.emitted.WithLabelValues(string(g.Status)).Inc()
}
