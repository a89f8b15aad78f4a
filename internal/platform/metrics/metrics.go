package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa las métricas Prometheus del registro.
type Metrics struct {
	registry *prometheus.Registry

	Operations *prometheus.CounterVec
	Records    prometheus.Gauge
}

// New registra todo en un registry propio (evita colisiones entre tests).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pet_registry_operations_total",
			Help: "Registry operations by name and outcome",
		}, []string{"operation", "outcome"}),
		Records: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pet_registry_records",
			Help: "Pet records currently stored",
		}),
	}
}

func (m *Metrics) ObserveOperation(op, outcome string) {
	m.Operations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) SetRecords(n int) {
	m.Records.Set(float64(n))
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
