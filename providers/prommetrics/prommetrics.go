// Package prommetrics exports hydration metrics to Prometheus. A Collector
// implements hydrx.MetricsCollector:
//
//	collector := prommetrics.New(prometheus.DefaultRegisterer)
//	engine, err := hydrx.New[Meal](hydrx.WithMetrics(collector))
package prommetrics

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hengadev/hydrx"
)

// DefaultBuckets suit per-call hydration latencies, in seconds.
var DefaultBuckets = []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1}

// Option configures a Collector.
type Option func(*Collector)

// WithNamespace prefixes every metric name.
func WithNamespace(ns string) Option {
	return func(c *Collector) { c.namespace = ns }
}

// WithBuckets sets the histogram buckets used for timings.
func WithBuckets(buckets ...float64) Option {
	return func(c *Collector) { c.buckets = buckets }
}

// Collector creates counter and histogram vectors on first use. The label
// names of a metric are fixed by its first sample; later samples fill
// missing labels with "" and drop unknown ones.
type Collector struct {
	registerer prometheus.Registerer
	namespace  string
	buckets    []float64

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	labels     map[string][]string
	errs       []error
}

var _ hydrx.MetricsCollector = (*Collector)(nil)

func New(reg prometheus.Registerer, opts ...Option) *Collector {
	c := &Collector{
		registerer: reg,
		buckets:    DefaultBuckets,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labels:     make(map[string][]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collector) IncrementCounter(name string, tags map[string]string) {
	c.IncrementCounterBy(name, 1, tags)
}

func (c *Collector) IncrementCounterBy(name string, value int64, tags map[string]string) {
	vec, labels := c.counter(name, tags)
	if vec == nil {
		return
	}
	vec.With(labels).Add(float64(value))
}

func (c *Collector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
	vec, labels := c.histogram(name, tags)
	if vec == nil {
		return
	}
	vec.With(labels).Observe(duration.Seconds())
}

// Flush reports registration failures met so far. Samples are pulled by
// Prometheus, so there is nothing to push.
func (c *Collector) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.errs...)
}

func (c *Collector) counter(name string, tags map[string]string) (*prometheus.CounterVec, prometheus.Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fqName := metricName(c.namespace, name, "_total")
	vec, ok := c.counters[fqName]
	if !ok {
		names := labelNames(tags)
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: fqName,
			Help: "hydrx counter " + name,
		}, names)
		if err := c.registerer.Register(vec); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				c.errs = append(c.errs, err)
				return nil, nil
			}
			existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				c.errs = append(c.errs, err)
				return nil, nil
			}
			vec = existing
		}
		c.counters[fqName] = vec
		c.labels[fqName] = names
	}
	return vec, labelValues(c.labels[fqName], tags)
}

func (c *Collector) histogram(name string, tags map[string]string) (*prometheus.HistogramVec, prometheus.Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fqName := metricName(c.namespace, name, "_seconds")
	vec, ok := c.histograms[fqName]
	if !ok {
		names := labelNames(tags)
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    fqName,
			Help:    "hydrx timing " + name,
			Buckets: c.buckets,
		}, names)
		if err := c.registerer.Register(vec); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				c.errs = append(c.errs, err)
				return nil, nil
			}
			existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				c.errs = append(c.errs, err)
				return nil, nil
			}
			vec = existing
		}
		c.histograms[fqName] = vec
		c.labels[fqName] = names
	}
	return vec, labelValues(c.labels[fqName], tags)
}

// metricName turns "hydrx.members.skipped" into "hydrx_members_skipped" plus suffix.
func metricName(namespace, name, suffix string) string {
	n := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		default:
			return '_'
		}
	}, name)
	if namespace != "" {
		n = namespace + "_" + n
	}
	if !strings.HasSuffix(n, suffix) {
		n += suffix
	}
	return n
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

func labelValues(names []string, tags map[string]string) prometheus.Labels {
	labels := make(prometheus.Labels, len(names))
	for _, n := range names {
		labels[n] = tags[n]
	}
	return labels
}
