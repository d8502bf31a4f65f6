package metrics

import (
	"sync"
	"time"
)

// MetricType represents different types of metrics
type MetricType int

const (
	Counter MetricType = iota
	Gauge
	Histogram
)

// Metric represents a single metric
type Metric struct {
	Name        string
	Type        MetricType
	Description string
}

// MetricValue represents the value of a metric
type MetricValue struct {
	Value     float64
	Timestamp time.Time
	Labels    map[string]string
}

// Registry stores and manages metrics
type Registry struct {
	metrics map[string]Metric
	values  map[string][]MetricValue
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		metrics: make(map[string]Metric),
		values:  make(map[string][]MetricValue),
	}
}

func (r *Registry) Register(metric Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics[metric.Name] = metric
}

// RecordCounter appends an increment to a registered counter.
func (r *Registry) RecordCounter(name string, value float64, labels map[string]string) {
	r.record(name, Counter, value, labels, false)
}

// RecordGauge replaces the value of a registered gauge.
func (r *Registry) RecordGauge(name string, value float64, labels map[string]string) {
	r.record(name, Gauge, value, labels, true)
}

// RecordHistogram appends an observation to a registered histogram.
func (r *Registry) RecordHistogram(name string, value float64, labels map[string]string) {
	r.record(name, Histogram, value, labels, false)
}

func (r *Registry) record(name string, typ MetricType, value float64, labels map[string]string, replace bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	metric, ok := r.metrics[name]
	if !ok || metric.Type != typ {
		return
	}

	v := MetricValue{Value: value, Timestamp: time.Now(), Labels: labels}
	if replace {
		r.values[name] = []MetricValue{v}
		return
	}
	r.values[name] = append(r.values[name], v)
}

// Sum adds up every recorded value of name.
func (r *Registry) Sum(name string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total float64
	for _, v := range r.values[name] {
		total += v.Value
	}
	return total
}

func (r *Registry) GetMetrics() map[string][]MetricValue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string][]MetricValue)
	for name, values := range r.values {
		result[name] = append([]MetricValue{}, values...)
	}
	return result
}
