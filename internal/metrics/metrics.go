// Package metrics counts what the sampling loop does. Counters live in a
// private registry and can be written out as a Prometheus textfile on exit.
package metrics

import (
	"fmt"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
)

// Recorder holds the sampling loop's collectors. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	samples  prometheus.Counter
	retries  prometheus.Counter
	failures prometheus.Counter
	value    prometheus.Gauge
	latency  prometheus.Histogram

	rpc *grpc_prometheus.ClientMetrics
}

// New returns a Recorder whose collectors are labeled with the datapoint path.
func New(path string) *Recorder {
	labels := prometheus.Labels{"path": path}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "vssplot_samples_total",
			Help:        "Samples appended to the rolling buffer.",
			ConstLabels: labels,
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "vssplot_read_retries_total",
			Help:        "Reads retried after a communication error.",
			ConstLabels: labels,
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "vssplot_read_failures_total",
			Help:        "Ticks that failed after exhausting retries.",
			ConstLabels: labels,
		}),
		value: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "vssplot_last_value",
			Help:        "Most recent datapoint value.",
			ConstLabels: labels,
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "vssplot_read_duration_seconds",
			Help:        "Time spent reading one sample, retries included.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		rpc: grpc_prometheus.NewClientMetrics(),
	}

	r.registry.MustRegister(r.samples, r.retries, r.failures, r.value, r.latency, r.rpc)
	return r
}

// UnaryClientInterceptor counts every databroker RPC by method and status
// code. It returns nil for a nil Recorder.
func (r *Recorder) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	if r == nil {
		return nil
	}
	return r.rpc.UnaryClientInterceptor()
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveSample records a successful read.
func (r *Recorder) ObserveSample(v float64, took time.Duration) {
	if r == nil {
		return
	}
	r.samples.Inc()
	r.value.Set(v)
	r.latency.Observe(took.Seconds())
}

// IncRetry records one retried read.
func (r *Recorder) IncRetry() {
	if r == nil {
		return
	}
	r.retries.Inc()
}

// IncFailure records a tick that could not produce a sample.
func (r *Recorder) IncFailure() {
	if r == nil {
		return
	}
	r.failures.Inc()
}

// WriteTextfile writes all collectors to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: failed to write %s: %w", path, err)
	}
	return nil
}
