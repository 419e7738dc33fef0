package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/cpu"
)

const timeObserve = 1 * time.Second

// Metrics holds the collectors of the serving process. The access-log
// layer drives the per-request ones; the sampler drives the process
// gauges.
type Metrics struct {
	CPU              prometheus.Gauge
	AllocatedMemory  prometheus.Gauge
	RequestsNow      prometheus.Gauge
	Requests         prometheus.Counter
	NotFound         prometheus.Counter
	ResponseBodySize prometheus.Histogram

	registry *prometheus.Registry
}

// New creates the collectors on a fresh private registry.
func New() *Metrics {
	m := &Metrics{
		CPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "freshserv_cpu_usage",
			Help: "CPU usage",
		}),
		AllocatedMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "freshserv_allocated_memory",
		}),
		RequestsNow: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "freshserv_requests_are_being_processed",
			Help: "How many requests are being processed",
		}),
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freshserv_requests_were_processed",
			Help: "How many requests were served summary",
		}),
		NotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freshserv_requests_not_found",
			Help: "How many requests hit a missing file",
		}),
		ResponseBodySize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "freshserv_response_body_size",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.CPU,
		m.AllocatedMemory,
		m.RequestsNow,
		m.Requests,
		m.NotFound,
		m.ResponseBodySize,
	)
	return m
}

// UpdateCPU samples the host CPU usage into the gauge.
func (m *Metrics) UpdateCPU() {
	p, err := cpu.Percent(0, false)
	if err == nil && len(p) > 0 {
		m.CPU.Set(p[0])
	}
}

// UpdateMemory samples the allocated heap bytes into the gauge.
func (m *Metrics) UpdateMemory() {
	ms := runtime.MemStats{}
	runtime.ReadMemStats(&ms)
	m.AllocatedMemory.Set(float64(ms.Alloc))
}

// StartSampler updates the process gauges once per second until done is
// closed.
func (m *Metrics) StartSampler(done <-chan struct{}) {
	go func() {
		t := time.NewTicker(timeObserve)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				m.UpdateCPU()
				m.UpdateMemory()
			}
		}
	}()
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
