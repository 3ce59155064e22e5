package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the service's Prometheus collectors.
type Metrics struct {
	generations *prometheus.CounterVec
	scores      *prometheus.HistogramVec
	notFound    *prometheus.CounterVec
	sessions    prometheus.Gauge
}

// NewMetrics creates and registers the collectors on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redsettings",
			Name:      "generations_total",
			Help:      "Settings profiles generated, by game and style.",
		}, []string{"game", "style"}),
		scores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "redsettings",
			Name:      "validation_score",
			Help:      "Validation scores of generated and validated profiles.",
			Buckets:   []float64{50, 60, 70, 80, 90, 95, 100},
		}, []string{"game"}),
		notFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redsettings",
			Name:      "not_found_total",
			Help:      "Requests naming an unknown game or style.",
		}, []string{"kind"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "redsettings",
			Name:      "device_sessions",
			Help:      "Profiled devices held in memory.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.generations, m.scores, m.notFound, m.sessions)
	}
	return m
}
