package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the monitor's operational counters to Prometheus.
type Recorder struct {
	cyclesTotal        prometheus.Counter
	syntheticFallbacks prometheus.Counter
	alertsFired        prometheus.Counter
	dispatchErrors     prometheus.Counter
	currentRate        prometheus.Gauge
}

// New registers and returns a metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "garuduaeye_cycles_total",
			Help: "Total number of evaluation cycles executed",
		}),
		syntheticFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "garuduaeye_synthetic_fallback_total",
			Help: "Total number of cycles served by the synthetic data source",
		}),
		alertsFired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "garuduaeye_alerts_fired_total",
			Help: "Total number of alert fire events emitted",
		}),
		dispatchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "garuduaeye_dispatch_errors_total",
			Help: "Total number of alert deliveries that failed",
		}),
		currentRate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "garuduaeye_current_rate",
			Help: "Most recently observed exchange rate",
		}),
	}
}

// RecordCycle counts a finished evaluation cycle.
func (r *Recorder) RecordCycle() {
	if r == nil {
		return
	}
	r.cyclesTotal.Inc()
}

// RecordSyntheticFallback counts a cycle that fell back to synthetic data.
func (r *Recorder) RecordSyntheticFallback() {
	if r == nil {
		return
	}
	r.syntheticFallbacks.Inc()
}

// RecordAlertFired counts an emitted fire event.
func (r *Recorder) RecordAlertFired() {
	if r == nil {
		return
	}
	r.alertsFired.Inc()
}

// RecordDispatchError counts a failed delivery.
func (r *Recorder) RecordDispatchError() {
	if r == nil {
		return
	}
	r.dispatchErrors.Inc()
}

// RecordCurrentRate publishes the latest observed rate.
func (r *Recorder) RecordCurrentRate(rate float64) {
	if r == nil {
		return
	}
	r.currentRate.Set(rate)
}
