// Package metrics is the process-wide request accumulator. One collector
// is shared by every concurrent pipeline run, so all mutation goes through
// the mutex.
package metrics

import (
	"sync"
	"time"
)

type Collector struct {
	mu sync.Mutex

	startTime         time.Time
	requestCount      int64
	successCount      int64
	errorCount        int64
	totalResponseTime time.Duration
	requestsByIntent  map[string]int64
	errorsByType      map[string]int64

	now func() time.Time
}

// Option customizes a Collector.
type Option func(*Collector)

// WithClock replaces the wall clock, for deterministic uptime in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		requestsByIntent: make(map[string]int64),
		errorsByType:     make(map[string]int64),
		now:              time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.startTime = c.now()
	return c
}

// RecordRequest tallies one completed pipeline run. intent and errorType
// are optional; empty strings are not counted.
func (c *Collector) RecordRequest(success bool, responseTime time.Duration, intent, errorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestCount++
	if success {
		c.successCount++
	} else {
		c.errorCount++
		if errorType != "" {
			c.errorsByType[errorType]++
		}
	}

	c.totalResponseTime += responseTime
	if intent != "" {
		c.requestsByIntent[intent]++
	}
}

// Snapshot is a point-in-time copy of the accumulated metrics.
type Snapshot struct {
	UptimeSeconds       float64          `json:"uptime_seconds"`
	TotalRequests       int64            `json:"total_requests"`
	SuccessfulRequests  int64            `json:"successful_requests"`
	FailedRequests      int64            `json:"failed_requests"`
	SuccessRatePercent  float64          `json:"success_rate_percent"`
	AverageResponseTime time.Duration    `json:"average_response_time"`
	RequestsPerMinute   float64          `json:"requests_per_minute"`
	RequestsByIntent    map[string]int64 `json:"requests_by_intent"`
	ErrorsByType        map[string]int64 `json:"errors_by_type"`
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	uptime := c.now().Sub(c.startTime)

	snap := Snapshot{
		UptimeSeconds:      uptime.Seconds(),
		TotalRequests:      c.requestCount,
		SuccessfulRequests: c.successCount,
		FailedRequests:     c.errorCount,
		RequestsByIntent:   make(map[string]int64, len(c.requestsByIntent)),
		ErrorsByType:       make(map[string]int64, len(c.errorsByType)),
	}

	if c.requestCount > 0 {
		snap.SuccessRatePercent = float64(c.successCount) / float64(c.requestCount) * 100
		snap.AverageResponseTime = c.totalResponseTime / time.Duration(c.requestCount)
	}
	if uptime > 0 {
		snap.RequestsPerMinute = float64(c.requestCount) / uptime.Minutes()
	}

	for k, v := range c.requestsByIntent {
		snap.RequestsByIntent[k] = v
	}
	for k, v := range c.errorsByType {
		snap.ErrorsByType[k] = v
	}
	return snap
}

// Reset zeroes every counter and restarts the uptime clock.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = c.now()
	c.requestCount = 0
	c.successCount = 0
	c.errorCount = 0
	c.totalResponseTime = 0
	c.requestsByIntent = make(map[string]int64)
	c.errorsByType = make(map[string]int64)
}
