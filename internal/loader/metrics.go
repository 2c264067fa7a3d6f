package loader

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records load outcomes in Prometheus.
type Metrics struct {
	loads    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	products *prometheus.GaugeVec
}

// NewMetrics creates the loader collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webstore",
			Subsystem: "listing",
			Name:      "loads_total",
			Help:      "Settled product loads by source and status.",
		}, []string{"source", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "webstore",
			Subsystem: "listing",
			Name:      "load_duration_seconds",
			Help:      "Time from fetch start to settled state.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		products: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "webstore",
			Subsystem: "listing",
			Name:      "products_loaded",
			Help:      "Number of products in the most recent successful load.",
		}, []string{"source"}),
	}

	for _, c := range []prometheus.Collector{m.loads, m.duration, m.products} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register listing metrics: %w", err)
		}
	}
	return m, nil
}

// Observe is an Observer.
func (m *Metrics) Observe(o Outcome) {
	m.loads.WithLabelValues(o.Source, o.Status.String()).Inc()
	m.duration.WithLabelValues(o.Source).Observe(o.Duration.Seconds())
	if o.Status == StatusSuccess {
		m.products.WithLabelValues(o.Source).Set(float64(o.Count))
	}
}
