package metrics

import (
	"sync"
	"time"
)

// TimerMetric captures timing information for one operation
type TimerMetric struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MinTimeMs     int64   `json:"min_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

// ErrorRateMetric captures error rates for one operation
type ErrorRateMetric struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

type timerState struct {
	count       int64
	totalTimeMs int64
	minTimeMs   int64
	maxTimeMs   int64
}

type errorRateState struct {
	total  int64
	errors int64
}

// Metrics is an in-process metrics collector for service operations
type Metrics struct {
	mu         sync.Mutex
	counters   map[string]int64
	gauges     map[string]int64
	timers     map[string]*timerState
	errorRates map[string]*errorRateState
	startTime  time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters:   make(map[string]int64),
		gauges:     make(map[string]int64),
		timers:     make(map[string]*timerState),
		errorRates: make(map[string]*errorRateState),
		startTime:  time.Now(),
	}
}

// IncrementCounter increments a counter by 1
func (m *Metrics) IncrementCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

// SetGauge sets a gauge to a specific value
func (m *Metrics) SetGauge(name string, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

// RecordTimer records a timing measurement
func (m *Metrics) RecordTimer(name string, durationMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.timers[name]
	if !ok {
		t = &timerState{minTimeMs: durationMs, maxTimeMs: durationMs}
		m.timers[name] = t
	}

	t.count++
	t.totalTimeMs += durationMs
	if durationMs < t.minTimeMs {
		t.minTimeMs = durationMs
	}
	if durationMs > t.maxTimeMs {
		t.maxTimeMs = durationMs
	}
}

// RecordSuccess records a successful operation for error rate tracking
func (m *Metrics) RecordSuccess(name string) {
	m.recordErrorRate(name, false)
}

// RecordError records an error for error rate tracking
func (m *Metrics) RecordError(name string) {
	m.recordErrorRate(name, true)
}

func (m *Metrics) recordErrorRate(name string, isError bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	er, ok := m.errorRates[name]
	if !ok {
		er = &errorRateState{}
		m.errorRates[name] = er
	}

	er.total++
	if isError {
		er.errors++
	}
}

// GetCounters returns a copy of all counters
func (m *Metrics) GetCounters() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]int64, len(m.counters))
	for name, value := range m.counters {
		counters[name] = value
	}
	return counters
}

// GetGauges returns a copy of all gauges
func (m *Metrics) GetGauges() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	gauges := make(map[string]int64, len(m.gauges))
	for name, value := range m.gauges {
		gauges[name] = value
	}
	return gauges
}

// GetTimers returns all timers
func (m *Metrics) GetTimers() map[string]TimerMetric {
	m.mu.Lock()
	defer m.mu.Unlock()

	timers := make(map[string]TimerMetric, len(m.timers))
	for name, t := range m.timers {
		var average float64
		if t.count > 0 {
			average = float64(t.totalTimeMs) / float64(t.count)
		}
		timers[name] = TimerMetric{
			Count:         t.count,
			TotalTimeMs:   t.totalTimeMs,
			AverageTimeMs: average,
			MinTimeMs:     t.minTimeMs,
			MaxTimeMs:     t.maxTimeMs,
		}
	}
	return timers
}

// GetErrorRates returns all error rates
func (m *Metrics) GetErrorRates() map[string]ErrorRateMetric {
	m.mu.Lock()
	defer m.mu.Unlock()

	errorRates := make(map[string]ErrorRateMetric, len(m.errorRates))
	for name, er := range m.errorRates {
		var rate float64
		if er.total > 0 {
			rate = float64(er.errors) / float64(er.total) * 100.0
		}
		errorRates[name] = ErrorRateMetric{
			Total:     er.total,
			Errors:    er.errors,
			ErrorRate: rate,
		}
	}
	return errorRates
}

// GetUptimeSeconds returns the process uptime in seconds
func (m *Metrics) GetUptimeSeconds() int64 {
	return int64(time.Since(m.startTime).Seconds())
}

// GetAllMetrics returns all metrics in a structured format
func (m *Metrics) GetAllMetrics() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds": m.GetUptimeSeconds(),
		"counters":       m.GetCounters(),
		"gauges":         m.GetGauges(),
		"timers":         m.GetTimers(),
		"error_rates":    m.GetErrorRates(),
	}
}
