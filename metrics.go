package benstream

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordWrite is called after each encoder write (one original step).
	RecordWrite(duration time.Duration, err error)

	// RecordRead is called after each decoder read (one emitted value).
	RecordRead(duration time.Duration, err error)

	// RecordSeek is called after each cursor seek.
	RecordSeek(duration time.Duration, err error)

	// RecordIndexBuild is called after a chunk index build.
	// steps and records describe the scanned stream.
	RecordIndexBuild(steps, records uint64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordWrite(time.Duration, error)                {}
func (NoopMetricsCollector) RecordRead(time.Duration, error)                 {}
func (NoopMetricsCollector) RecordSeek(time.Duration, error)                 {}
func (NoopMetricsCollector) RecordIndexBuild(uint64, uint64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteTotalNanos atomic.Int64
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadTotalNanos  atomic.Int64
	SeekCount       atomic.Int64
	SeekErrors      atomic.Int64
	IndexBuilds     atomic.Int64
	IndexedSteps    atomic.Int64
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordSeek implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSeek(duration time.Duration, err error) {
	b.SeekCount.Add(1)
	if err != nil {
		b.SeekErrors.Add(1)
	}
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(steps, records uint64, duration time.Duration, err error) {
	b.IndexBuilds.Add(1)
	if err == nil {
		b.IndexedSteps.Add(int64(steps)) //nolint:gosec
	}
}
