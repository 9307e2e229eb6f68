// Package metrics keeps process counters and serves them in the Prometheus
// text exposition format.
package metrics

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// collector is anything the registry can write out.
type collector interface {
	name() string
	write(w io.Writer)
}

// Registry holds named metrics in registration order.
type Registry struct {
	namespace string

	mu         sync.RWMutex
	collectors []collector
	names      map[string]bool
}

// NewRegistry creates a registry. Every metric name gets namespace and an
// underscore as prefix.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace: namespace,
		names:     make(map[string]bool),
	}
}

func (r *Registry) register(c collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names[c.name()] {
		panic("metrics: duplicate metric " + c.name())
	}
	r.names[c.name()] = true
	r.collectors = append(r.collectors, c)
}

func (r *Registry) fullName(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + "_" + name
}

// Counter registers a counter.
func (r *Registry) Counter(name, help string) *Counter {
	c := &Counter{desc: desc{r.fullName(name), help}}
	r.register(c)
	return c
}

// CounterVec registers a counter partitioned by one label.
func (r *Registry) CounterVec(name, help, label string) *CounterVec {
	cv := &CounterVec{desc: desc{r.fullName(name), help}, label: label, values: make(map[string]*Counter)}
	r.register(cv)
	return cv
}

// GaugeFunc registers a gauge whose value is read from fn at scrape time.
func (r *Registry) GaugeFunc(name, help string, fn func() int) {
	r.register(&gaugeFunc{desc: desc{r.fullName(name), help}, fn: fn})
}

// Histogram registers a histogram with the given upper bounds.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	b := append([]float64(nil), buckets...)
	sort.Float64s(b)
	h := &Histogram{desc: desc{r.fullName(name), help}, bounds: b, counts: make([]uint64, len(b))}
	r.register(h)
	return h
}

// WriteTo writes every metric.
func (r *Registry) WriteTo(w io.Writer) {
	r.mu.RLock()
	collectors := append([]collector(nil), r.collectors...)
	r.mu.RUnlock()

	for _, c := range collectors {
		c.write(w)
	}
}

// Handler serves the registry.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WriteTo(w)
	})
}

type desc struct {
	n    string
	help string
}

func (d desc) name() string { return d.n }

func (d desc) header(w io.Writer, typ string) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", d.n, d.help, d.n, typ)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	desc
	value atomic.Int64
}

// Inc adds one.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds delta, which must not be negative.
func (c *Counter) Add(delta int64) {
	if delta < 0 {
		return
	}
	c.value.Add(delta)
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	return c.value.Load()
}

func (c *Counter) write(w io.Writer) {
	c.header(w, "counter")
	fmt.Fprintf(w, "%s %d\n", c.n, c.Value())
}

// CounterVec is a counter per label value.
type CounterVec struct {
	desc
	label string

	mu     sync.RWMutex
	values map[string]*Counter
}

// WithLabel returns the counter for value.
func (cv *CounterVec) WithLabel(value string) *Counter {
	cv.mu.RLock()
	c, ok := cv.values[value]
	cv.mu.RUnlock()
	if ok {
		return c
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if c, ok := cv.values[value]; ok {
		return c
	}
	c = &Counter{desc: cv.desc}
	cv.values[value] = c
	return c
}

// Inc adds one to the counter for value.
func (cv *CounterVec) Inc(value string) {
	cv.WithLabel(value).Inc()
}

// Values returns every count by label value.
func (cv *CounterVec) Values() map[string]int64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	out := make(map[string]int64, len(cv.values))
	for k, c := range cv.values {
		out[k] = c.Value()
	}
	return out
}

func (cv *CounterVec) write(w io.Writer) {
	values := cv.Values()
	labels := make([]string, 0, len(values))
	for k := range values {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	cv.header(w, "counter")
	for _, l := range labels {
		fmt.Fprintf(w, "%s{%s=%s} %d\n", cv.n, cv.label, strconv.Quote(l), values[l])
	}
}

type gaugeFunc struct {
	desc
	fn func() int
}

func (g *gaugeFunc) write(w io.Writer) {
	g.header(w, "gauge")
	fmt.Fprintf(w, "%s %d\n", g.n, g.fn())
}

// DefaultDurationBuckets suit outbound HTTP calls, in seconds.
var DefaultDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Histogram counts observations into cumulative buckets.
type Histogram struct {
	desc
	bounds []float64

	mu     sync.Mutex
	counts []uint64
	count  uint64
	sum    float64
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, b := range h.bounds {
		if v <= b {
			h.counts[i]++
		}
	}
	h.count++
	h.sum += v
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Since records the time elapsed since start.
func (h *Histogram) Since(start time.Time) {
	h.ObserveDuration(time.Since(start))
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *Histogram) write(w io.Writer) {
	h.mu.Lock()
	counts := append([]uint64(nil), h.counts...)
	count, sum := h.count, h.sum
	h.mu.Unlock()

	h.header(w, "histogram")
	for i, b := range h.bounds {
		fmt.Fprintf(w, "%s_bucket{le=%q} %d\n", h.n, formatFloat(b), counts[i])
	}
	fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", h.n, count)
	fmt.Fprintf(w, "%s_sum %s\n", h.n, formatFloat(sum))
	fmt.Fprintf(w, "%s_count %d\n", h.n, count)
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "+Inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, "e") {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}
