package proxy

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	ReqDuration   *prometheus.HistogramVec
	BytesServed   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "kland_http_requests_total", Help: "Total HTTP requests"},
			[]string{"route", "method", "status"},
		),
		ReqDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kland_http_request_duration_seconds",
				Help:    "Request duration seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		BytesServed: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "kland_image_bytes_served_total", Help: "Image payload bytes served"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.ReqDuration, m.BytesServed)
	return m
}
