// Package kmetrics exports prometheus metrics about the
// statements executed by a kquery.DB.
//
// The Collector receives its samples through the kquery logger
// hook, so it only observes contexts it was injected into:
//
//	metrics := kmetrics.New("myapp")
//	prometheus.MustRegister(metrics)
//
//	ctx = kquery.InjectLogger(ctx, metrics.LoggerFn(kquery.ErrorLogger))
package kmetrics

import (
	"context"

	"github.com/astadb/kquery"
	"github.com/prometheus/client_golang/prometheus"
)

var _ prometheus.Collector = &Collector{}

// Collector keeps a histogram with the duration of the
// statements and a counter of the statements that failed,
// both labelled by driver and operation.
type Collector struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// New instantiates a Collector whose metrics are prefixed
// with the input namespace, an empty namespace is allowed.
func New(namespace string) *Collector {
	labels := []string{"driver", "operation"}
	return &Collector{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kquery",
			Name:      "query_duration_seconds",
			Help:      "Time spent by the database executing each statement.",
			Buckets:   []float64{.001, .003, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, labels),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kquery",
			Name:      "query_errors_total",
			Help:      "Number of statements that returned an error.",
		}, labels),
	}
}

// Describe implements the prometheus.Collector interface
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.duration.Describe(ch)
	c.errors.Describe(ch)
}

// Collect implements the prometheus.Collector interface
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.duration.Collect(ch)
	c.errors.Collect(ch)
}

// Observe records a single statement, its signature matches
// kquery.LoggerFn so it can be injected directly with:
//
//	ctx = kquery.InjectLogger(ctx, metrics.Observe)
func (c *Collector) Observe(_ context.Context, values kquery.LogValues) {
	operation := values.Operation()
	if operation == "" {
		operation = "UNKNOWN"
	}

	c.duration.WithLabelValues(values.Driver, operation).Observe(values.Duration.Seconds())
	if values.Err != nil {
		c.errors.WithLabelValues(values.Driver, operation).Inc()
	}
}

// LoggerFn returns a kquery.LoggerFn that records the statement
// and then forwards it to next, next may be nil.
func (c *Collector) LoggerFn(next kquery.LoggerFn) kquery.LoggerFn {
	return func(ctx context.Context, values kquery.LogValues) {
		c.Observe(ctx, values)
		if next != nil {
			next(ctx, values)
		}
	}
}
