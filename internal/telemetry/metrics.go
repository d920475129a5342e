package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports render and upload counters. A nil *Metrics is a valid no-op.
type Metrics struct {
	renderDuration *prometheus.HistogramVec
	renders        *prometheus.CounterVec
	rejections     *prometheus.CounterVec
}

var metrics *Metrics

// InitMetrics registers the collectors on reg (default registerer when nil)
// and makes them available through M.
func InitMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bild",
			Name:      "render_duration_seconds",
			Help:      "Time spent decoding, transforming and encoding one image.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8},
		}, []string{"variant"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bild",
			Name:      "renders_total",
			Help:      "Finished renders by variant and outcome.",
		}, []string{"variant", "result"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bild",
			Name:      "upload_rejections_total",
			Help:      "Uploads rejected before decoding, by reason.",
		}, []string{"reason"}),
	}

	collectors := []prometheus.Collector{m.renderDuration, m.renders, m.rejections}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				collectors[i] = are.ExistingCollector
				continue
			}
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	m.renderDuration = collectors[0].(*prometheus.HistogramVec)
	m.renders = collectors[1].(*prometheus.CounterVec)
	m.rejections = collectors[2].(*prometheus.CounterVec)

	metrics = m
	return m, nil
}

func M() *Metrics { return metrics }

func (m *Metrics) ObserveRender(variant string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(variant).Observe(d.Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.renders.WithLabelValues(variant, result).Inc()
}

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}
