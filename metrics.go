package trafficos

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kainat5008/Traffic-System-OS/gate"
)

// MetricsCollector receives a callback after every gate operation. Implement
// it to integrate with monitoring systems; implementations must be safe for
// concurrent use.
type MetricsCollector interface {
	// RecordAcquire is called after each acquire or try-acquire attempt.
	RecordAcquire(outcome gate.Outcome, duration time.Duration, err error)

	// RecordRelease is called after each release.
	RecordRelease(duration time.Duration, err error)

	// RecordReap is called after each reap pass.
	RecordReap(duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAcquire(gate.Outcome, time.Duration, error) {}
func (NoopMetricsCollector) RecordRelease(time.Duration, error)               {}
func (NoopMetricsCollector) RecordReap(time.Duration, error)                  {}

// BasicMetricsCollector counts operations in memory. Useful for tests, the
// demo binary, and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AcquireGranted    atomic.Int64
	AcquireDenied     atomic.Int64
	AcquireFailed     atomic.Int64
	AcquireTotalNanos atomic.Int64
	ReleaseCount      atomic.Int64
	ReleaseErrors     atomic.Int64
	ReapCount         atomic.Int64
	ReapErrors        atomic.Int64
}

func (m *BasicMetricsCollector) RecordAcquire(outcome gate.Outcome, duration time.Duration, _ error) {
	switch outcome {
	case gate.Granted:
		m.AcquireGranted.Add(1)
	case gate.Denied:
		m.AcquireDenied.Add(1)
	default:
		m.AcquireFailed.Add(1)
	}
	m.AcquireTotalNanos.Add(int64(duration))
}

func (m *BasicMetricsCollector) RecordRelease(_ time.Duration, err error) {
	m.ReleaseCount.Add(1)
	if err != nil {
		m.ReleaseErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordReap(_ time.Duration, err error) {
	m.ReapCount.Add(1)
	if err != nil {
		m.ReapErrors.Add(1)
	}
}

// Summary renders the counters on one line.
func (m *BasicMetricsCollector) Summary() string {
	return fmt.Sprintf("granted=%d denied=%d failed=%d released=%d reaped=%d",
		m.AcquireGranted.Load(), m.AcquireDenied.Load(), m.AcquireFailed.Load(),
		m.ReleaseCount.Load(), m.ReapCount.Load())
}
